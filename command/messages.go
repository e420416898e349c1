package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-escrow/core"
	"github.com/goliatone/go-escrow/identity"
)

const (
	TypeCreateOrder           = "escrow.command.order.create"
	TypeCreateOrderConversion = "escrow.command.order.create_via_conversion"
	TypeFulfillOrder          = "escrow.command.order.fulfill"
	TypeRefundOrder           = "escrow.command.order.refund"
	TypeProcessOrder          = "escrow.command.order.process"
	TypeSetFee                = "escrow.command.config.set_fee"
	TypeSetTreasury           = "escrow.command.config.set_treasury"
	TypeSetAuthority          = "escrow.command.config.set_authority"
	TypeSetSettlementAsset    = "escrow.command.config.set_settlement_asset"
	TypeSetAssetSupport       = "escrow.command.config.set_asset_support"
	TypeSetTolerance          = "escrow.command.config.set_tolerance"
)

type CreateOrderMessage struct {
	Request core.CreateOrderRequest
}

func (CreateOrderMessage) Type() string { return TypeCreateOrder }

func (m CreateOrderMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: create order request invalid")
}

type CreateOrderViaConversionMessage struct {
	Request core.ConvertAndCreateRequest
}

func (CreateOrderViaConversionMessage) Type() string { return TypeCreateOrderConversion }

func (m CreateOrderViaConversionMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: conversion order request invalid")
}

type FulfillOrderMessage struct {
	Request core.FulfillRequest
}

func (FulfillOrderMessage) Type() string { return TypeFulfillOrder }

func (m FulfillOrderMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: fulfill request invalid")
}

type RefundOrderMessage struct {
	Request core.RefundRequest
}

func (RefundOrderMessage) Type() string { return TypeRefundOrder }

func (m RefundOrderMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: refund request invalid")
}

type ProcessOrderMessage struct {
	Request core.ProcessOrderRequest
}

func (ProcessOrderMessage) Type() string { return TypeProcessOrder }

func (m ProcessOrderMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: process order request invalid")
}

type SetFeeMessage struct {
	Caller         identity.ID
	FeeBasisPoints uint32
}

func (SetFeeMessage) Type() string { return TypeSetFee }

func (m SetFeeMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if m.FeeBasisPoints > core.MaxBasisPoints {
		return commandValidationError("fee_basis_points",
			fmt.Sprintf("fee basis points must be <= %d", core.MaxBasisPoints))
	}
	return nil
}

type SetTreasuryMessage struct {
	Caller   identity.ID
	Treasury identity.ID
}

func (SetTreasuryMessage) Type() string { return TypeSetTreasury }

func (m SetTreasuryMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if m.Treasury.IsZero() {
		return commandValidationError("treasury", "treasury identity is required")
	}
	return nil
}

type SetAuthorityMessage struct {
	Caller    identity.ID
	Authority identity.ID
}

func (SetAuthorityMessage) Type() string { return TypeSetAuthority }

func (m SetAuthorityMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if m.Authority.IsZero() {
		return commandValidationError("authority", "settlement authority identity is required")
	}
	return nil
}

type SetSettlementAssetMessage struct {
	Caller identity.ID
	Asset  string
}

func (SetSettlementAssetMessage) Type() string { return TypeSetSettlementAsset }

func (m SetSettlementAssetMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if strings.TrimSpace(m.Asset) == "" {
		return commandValidationError("asset", "settlement asset is required")
	}
	return nil
}

type SetAssetSupportMessage struct {
	Caller    identity.ID
	Asset     string
	Supported bool
}

func (SetAssetSupportMessage) Type() string { return TypeSetAssetSupport }

func (m SetAssetSupportMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if strings.TrimSpace(m.Asset) == "" {
		return commandValidationError("asset", "asset is required")
	}
	return nil
}

type SetToleranceMessage struct {
	Caller               identity.ID
	ToleranceBasisPoints uint32
}

func (SetToleranceMessage) Type() string { return TypeSetTolerance }

func (m SetToleranceMessage) Validate() error {
	if m.Caller.IsZero() {
		return commandValidationError("caller", "caller identity is required")
	}
	if m.ToleranceBasisPoints > core.MaxBasisPoints {
		return commandValidationError("tolerance_basis_points",
			fmt.Sprintf("tolerance basis points must be <= %d", core.MaxBasisPoints))
	}
	return nil
}
