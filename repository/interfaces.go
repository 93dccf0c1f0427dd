package repository

import (
	"context"

	"gorm.io/gorm"
)

/* ========================================================================
 * Repository Interfaces
 * ========================================================================
 * The operation set is fixed and enumerated on purpose: every method a
 * caller can reach is one the scoping layer has wrapped. There is no
 * escape hatch that hands out an unscoped handle for tenant-owned types.
 * ======================================================================== */

// QueryOption collects optional query modifiers.
type QueryOption struct {
	// Preloads lists associations to eager-load (e.g. "Author").
	Preloads []string
	// Scopes are raw gorm scopes. They run before the tenant predicate is
	// applied: a scope can widen the caller's predicate, but the tenant
	// filter is ANDed around the whole statement afterwards.
	Scopes []func(*gorm.DB) *gorm.DB
	// OrderBy is an ordering expression (e.g. "create_time DESC").
	OrderBy string
	// Select restricts the selected columns.
	Select []string
	// Joins lists join clauses.
	Joins []string
}

// Option mutates a QueryOption.
type Option func(*QueryOption)

// WithPreloads eager-loads the given associations.
func WithPreloads(preloads ...string) Option {
	return func(o *QueryOption) { o.Preloads = preloads }
}

// WithScopes appends raw gorm scopes.
func WithScopes(scopes ...func(*gorm.DB) *gorm.DB) Option {
	return func(o *QueryOption) { o.Scopes = scopes }
}

// WithOrderBy sets the ordering expression.
func WithOrderBy(orderBy string) Option {
	return func(o *QueryOption) { o.OrderBy = orderBy }
}

// WithSelect restricts the selected columns.
func WithSelect(selects ...string) Option {
	return func(o *QueryOption) { o.Select = selects }
}

// WithJoins appends join clauses.
func WithJoins(joins ...string) Option {
	return func(o *QueryOption) { o.Joins = joins }
}

// ApplyOptions folds opts into a QueryOption.
func ApplyOptions(opts []Option) *QueryOption {
	o := &QueryOption{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageResult is one page of a paginated query.
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int64 `json:"pages"`
}

// Recorder receives scoping-layer events. The default is a no-op; the
// metrics package provides a prometheus-backed implementation.
type Recorder interface {
	// ScopeViolation is called when the layer rejects or detects a
	// tenant-scoping violation. kind is one of "filter_conflict",
	// "misclassified_model", "update_tenant_column".
	ScopeViolation(entity, kind string)
}

type noopRecorder struct{}

func (noopRecorder) ScopeViolation(entity, kind string) {}

// ModelValidator validates a model before it reaches the database. The
// validator package provides an implementation; wire it with WithValidator.
type ModelValidator interface {
	Validate(model any) error
}

// CreateRepository groups the create-side operations.
type CreateRepository[T Model] interface {
	// Create persists a single record. For tenant-scoped types the owning
	// tenant is stamped from the repository binding, overriding whatever
	// the caller set.
	Create(ctx context.Context, model *T) error

	// CreateBatch persists records in batches of batchSize (default
	// DefaultBatchSize). Stamping applies to every record.
	CreateBatch(ctx context.Context, models []*T, batchSize int) error

	// Upsert inserts the record or, on a conflict over conflictColumns
	// (default: primary key), updates the existing row. For tenant-scoped
	// types the conflict update is additionally constrained to rows owned
	// by the repository's tenant and never assigns the tenant column.
	Upsert(ctx context.Context, model *T, conflictColumns ...string) error
}

// QueryRepository groups the read-side operations. All predicates passed as
// query strings must not reference the tenant column; see the package
// conflict policy in scope.go.
type QueryRepository[T Model] interface {
	FindByID(ctx context.Context, id int64, opts ...Option) (*T, error)
	FindByIDs(ctx context.Context, ids []int64, opts ...Option) ([]*T, error)
	FindOne(ctx context.Context, query string, args ...any) (*T, error)
	FindOneWithOpts(ctx context.Context, query string, opts []Option, args ...any) (*T, error)
	FindAll(ctx context.Context, query string, args ...any) ([]*T, error)
	FindAllWithOpts(ctx context.Context, query string, opts []Option, args ...any) ([]*T, error)
	Count(ctx context.Context, query string, args ...any) (int64, error)
	Exists(ctx context.Context, query string, args ...any) (bool, error)
}

// PageRepository groups paginated reads.
type PageRepository[T Model] interface {
	FindPage(ctx context.Context, page, pageSize int, query string, args ...any) (*PageResult[T], error)
	FindPageWithOpts(ctx context.Context, page, pageSize int, query string, opts []Option, args ...any) (*PageResult[T], error)
}

// AggregateRepository groups aggregations. Column names are validated
// against a strict identifier whitelist.
type AggregateRepository[T Model] interface {
	Sum(ctx context.Context, column string, query string, args ...any) (float64, error)
	Avg(ctx context.Context, column string, query string, args ...any) (float64, error)
	Max(ctx context.Context, column string, query string, args ...any) (any, error)
	Min(ctx context.Context, column string, query string, args ...any) (any, error)
	CountByGroup(ctx context.Context, groupColumn string, query string, args ...any) (map[string]int64, error)
}

// MutateRepository groups update and delete operations. Selection
// predicates always include the tenant filter for scoped types, so a
// mutation can never reach another tenant's row regardless of the
// caller-supplied filter.
type MutateRepository[T Model] interface {
	// Update rewrites the record identified by its primary key. The tenant
	// column is never written; updates cannot re-home a row.
	Update(ctx context.Context, model *T) error

	// UpdateByID applies updates to one row. allowedFields, when given,
	// whitelists the updatable columns.
	UpdateByID(ctx context.Context, id int64, updates map[string]any, allowedFields ...string) error

	// UpdateWhere applies updates to every matching row and returns the
	// number of rows affected.
	UpdateWhere(ctx context.Context, updates map[string]any, query string, args ...any) (int64, error)

	// Delete soft-deletes one row.
	Delete(ctx context.Context, id int64) error

	// DeleteBatch soft-deletes the given rows.
	DeleteBatch(ctx context.Context, ids []int64) error

	// DeleteWhere soft-deletes every matching row and returns the number
	// of rows affected.
	DeleteWhere(ctx context.Context, query string, args ...any) (int64, error)

	// HardDelete removes one row permanently.
	HardDelete(ctx context.Context, id int64) error
}

// Repository is the full per-entity operation set produced by the factory.
type Repository[T Model] interface {
	CreateRepository[T]
	QueryRepository[T]
	PageRepository[T]
	AggregateRepository[T]
	MutateRepository[T]
}
