package repository

import (
	"context"

	"github.com/siteplane/siteplane-go-pkg/errors"
	ulidgen "github.com/siteplane/siteplane-go-pkg/utils/id-generator/ulid"
)

// Tenant ids are opaque non-empty strings; the platform issues them as
// ULIDs. The id for a request is resolved once at the boundary (see
// middleware.Tenant) and travels via context from there.

type tenantCtxKey struct{}

// WithTenant returns a context bound to the given tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantFromContext reads the tenant id established for this call, if any.
func TenantFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantCtxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// RequireTenant reads the tenant id and fails when no tenant context is
// established. There is no fallback: an unscoped call must never degrade
// into an unfiltered one.
func RequireTenant(ctx context.Context) (string, error) {
	id, ok := TenantFromContext(ctx)
	if !ok {
		return "", errors.NewUnauthenticated("no tenant in context")
	}
	return id, nil
}

// NewTenantID issues a fresh tenant identifier.
func NewTenantID() string {
	return ulidgen.GenerateString()
}
