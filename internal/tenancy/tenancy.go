// Package tenancy carries the caller's tenant and identity through a request
// context.
package tenancy

import (
	"context"
	"errors"
)

// ErrNoTenant is returned when a context carries no tenant id.
var ErrNoTenant = errors.New("tenant id not found in context")

type contextKey int

const (
	tenantKey contextKey = iota
	principalKey
)

// Principal identifies the authenticated caller.
type Principal struct {
	Email string
	Admin bool
}

// WithTenant returns a copy of ctx carrying tenantID.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantID returns the tenant id stored in ctx.
func TenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(tenantKey).(string)
	if !ok || id == "" {
		return "", ErrNoTenant
	}
	return id, nil
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
