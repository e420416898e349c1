package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-escrow/identity"
)

const (
	EscrowErrorUnauthorized             = "ESCROW_UNAUTHORIZED"
	EscrowErrorBadInput                 = "ESCROW_BAD_INPUT"
	EscrowErrorUnsupportedAsset         = "ESCROW_UNSUPPORTED_ASSET"
	EscrowErrorAlreadyProcessed         = "ESCROW_ALREADY_PROCESSED"
	EscrowErrorNotFound                 = "ESCROW_NOT_FOUND"
	EscrowErrorTransferFailed           = "ESCROW_TRANSFER_FAILED"
	EscrowErrorSettlementTransferFailed = "ESCROW_SETTLEMENT_TRANSFER_FAILED"
	EscrowErrorRefundTransferFailed     = "ESCROW_REFUND_TRANSFER_FAILED"
	EscrowErrorConversionFailed         = "ESCROW_CONVERSION_FAILED"
	EscrowErrorTreasuryNotConfigured    = "ESCROW_TREASURY_NOT_CONFIGURED"
	EscrowErrorReentrantCall            = "ESCROW_REENTRANT_CALL"
	EscrowErrorInternal                 = "ESCROW_INTERNAL_ERROR"
)

func escrowErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureEscrowErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrOrderNotFound):
		return newEscrowError(err.Error(), goerrors.CategoryNotFound, EscrowErrorNotFound)
	case errors.Is(err, ErrOrderAlreadyProcessed),
		errors.Is(err, ErrInvalidOrderStatusTransition):
		return newEscrowError(err.Error(), goerrors.CategoryConflict, EscrowErrorAlreadyProcessed)
	case errors.Is(err, ErrAssetNotSupported):
		return newEscrowError(err.Error(), goerrors.CategoryBadInput, EscrowErrorUnsupportedAsset)
	case errors.Is(err, ErrReentrantCall):
		return newEscrowError(err.Error(), goerrors.CategoryConflict, EscrowErrorReentrantCall)
	case errors.Is(err, identity.ErrUnauthorized), errors.Is(err, identity.ErrUnknownRole):
		return newEscrowError(err.Error(), goerrors.CategoryAuthz, EscrowErrorUnauthorized)
	case errors.Is(err, identity.ErrEmptyIdentity):
		return newEscrowError(err.Error(), goerrors.CategoryBadInput, EscrowErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must be"):
		return newEscrowError(err.Error(), goerrors.CategoryBadInput, EscrowErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureEscrowErrorEnvelope(mapped)
}

func newEscrowError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureEscrowErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureEscrowErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = escrowHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultEscrowTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultEscrowTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return EscrowErrorBadInput
	case goerrors.CategoryNotFound:
		return EscrowErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return EscrowErrorUnauthorized
	case goerrors.CategoryConflict:
		return EscrowErrorAlreadyProcessed
	case goerrors.CategoryExternal:
		return EscrowErrorTransferFailed
	default:
		return EscrowErrorInternal
	}
}

func escrowHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
