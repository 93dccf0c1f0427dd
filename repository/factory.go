package repository

import (
	"context"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * Scoped Repository Factory
 * ========================================================================
 * The factory is the only way feature code obtains repositories. A
 * TenantScope binds one tenant id for its whole lifetime; repositories
 * built from it inject that id into every operation. Scopes and
 * repositories are cheap, request-lifetime values: concurrent units of
 * work should each take their own instead of sharing one.
 * ======================================================================== */

// Factory produces tenant scopes over a shared database handle.
type Factory struct {
	db        *gorm.DB
	validator ModelValidator
	recorder  Recorder
	log       *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithValidator makes repositories validate models on Create/Update before
// they reach the database.
func WithValidator(v ModelValidator) FactoryOption {
	return func(f *Factory) { f.validator = v }
}

// WithRecorder wires a Recorder for scope-violation events.
func WithRecorder(r Recorder) FactoryOption {
	return func(f *Factory) { f.recorder = r }
}

// WithLogger attaches a logger for scope-violation diagnostics.
func WithLogger(log *zap.Logger) FactoryOption {
	return func(f *Factory) { f.log = log }
}

// NewFactory wraps an opened database handle.
func NewFactory(db *gorm.DB, opts ...FactoryOption) *Factory {
	f := &Factory{
		db:       db,
		recorder: noopRecorder{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DB exposes the underlying handle for schema migrations and administrative
// tooling. Code reading tenant-owned rows through it must assert ownership
// explicitly (AssertOwnership); feature code should not touch it.
func (f *Factory) DB() *gorm.DB { return f.db }

// ForTenant opens a scope bound to tenantID. An empty id fails here, at
// construction time: a scope is never allowed to degrade into "no filter".
func (f *Factory) ForTenant(tenantID string) (*TenantScope, error) {
	if tenantID == "" {
		return nil, errors.NewValidation("tenant id must not be empty")
	}
	return &TenantScope{factory: f, db: f.db, tenantID: tenantID}, nil
}

// ForTenantFromContext opens a scope for the tenant established on ctx.
func (f *Factory) ForTenantFromContext(ctx context.Context) (*TenantScope, error) {
	tenantID, err := RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return f.ForTenant(tenantID)
}

// TenantScope is a tenant-bound view of the database. The binding is fixed
// for the scope's lifetime.
type TenantScope struct {
	factory  *Factory
	db       *gorm.DB
	tenantID string
}

// TenantID returns the tenant this scope is bound to.
func (s *TenantScope) TenantID() string { return s.tenantID }

// Scoped returns the repository for entity type T bound to the scope's
// tenant. For global entity types the repository passes calls through
// without tenant logic.
func Scoped[T Model](s *TenantScope) Repository[T] {
	return newRepo[T](s.db, s.tenantID, s.factory)
}

// Global returns a repository for a global entity type outside any tenant
// scope. Requesting a tenant-scoped type here is a misuse and every
// operation on the returned repository fails.
func Global[T Model](f *Factory) Repository[T] {
	r := newRepo[T](f.db, "", f)
	if PolicyOf[T]() == ScopeTenant {
		r.initErr = errors.NewValidation(
			"entity %q is tenant-scoped; obtain it through ForTenant", r.entity())
	}
	return r
}
