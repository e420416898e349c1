package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("identity: caller is not authorized for role")
	ErrUnknownRole   = errors.New("identity: unknown role")
	ErrEmptyIdentity = errors.New("identity: identity is required")
)

// ID is an opaque caller identity. The escrow core never interprets it
// beyond normalized equality, so any address-like representation works.
type ID string

func (id ID) Normalize() ID {
	return ID(strings.ToLower(strings.TrimSpace(string(id))))
}

func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id ID) String() string {
	return string(id)
}

func (id ID) Equal(other ID) bool {
	return id.Normalize() == other.Normalize()
}

type Role string

const (
	RoleOwner               Role = "owner"
	RoleSettlementAuthority Role = "settlement_authority"
)

func (r Role) Validate() error {
	switch r {
	case RoleOwner, RoleSettlementAuthority:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
}

// Policy decides whether an actor may exercise a role. Implementations must
// treat a nil/empty actor as a denial, never as a wildcard.
type Policy interface {
	Authorize(ctx context.Context, actor ID, role Role) error
}

// RoleBinding reports the identity currently bound to a role. A zero ID means
// the role is unassigned and every authorization for it fails.
type RoleBinding func(role Role) ID

// BindingPolicy authorizes by normalized equality against a role binding
// lookup. It is the default policy for a ledger whose owner and settlement
// authority live in its runtime configuration.
type BindingPolicy struct {
	Binding RoleBinding
}

func NewBindingPolicy(binding RoleBinding) *BindingPolicy {
	return &BindingPolicy{Binding: binding}
}

func (p *BindingPolicy) Authorize(_ context.Context, actor ID, role Role) error {
	if p == nil || p.Binding == nil {
		return fmt.Errorf("identity: binding policy is not configured")
	}
	if err := role.Validate(); err != nil {
		return err
	}
	if actor.IsZero() {
		return ErrEmptyIdentity
	}
	bound := p.Binding(role)
	if bound.IsZero() || !bound.Equal(actor) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, string(role))
	}
	return nil
}

// StaticPolicy authorizes against fixed role assignments. Useful for tests
// and for embedders that manage role rotation outside the ledger.
type StaticPolicy struct {
	Owner               ID
	SettlementAuthority ID
}

func (p StaticPolicy) Authorize(_ context.Context, actor ID, role Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	if actor.IsZero() {
		return ErrEmptyIdentity
	}
	var bound ID
	switch role {
	case RoleOwner:
		bound = p.Owner
	case RoleSettlementAuthority:
		bound = p.SettlementAuthority
	}
	if bound.IsZero() || !bound.Equal(actor) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, string(role))
	}
	return nil
}

var (
	_ Policy = (*BindingPolicy)(nil)
	_ Policy = StaticPolicy{}
)
