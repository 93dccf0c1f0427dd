package repository

import (
	"context"
	"reflect"
	"sync"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

/* ========================================================================
 * Scoping core
 * ========================================================================
 * Tenant isolation is enforced by argument transformation, not locking:
 *   - reads, updates and deletes get "tenant_id = ?" merged into their
 *     selection predicate;
 *   - creates and the insert branch of upserts get the tenant id stamped
 *     onto the record, overriding whatever the caller set;
 *   - a caller-supplied predicate that itself references the tenant
 *     column is rejected as ambiguous intent, never silently overridden
 *     (and never silently honoured).
 * Database-level failures pass through unchanged except duplicate-key
 * errors, which become the taxonomy's DuplicateError.
 * ======================================================================== */

// DefaultBatchSize is the batch size used when CreateBatch is called with
// a non-positive one.
const DefaultBatchSize = 100

type repoImpl[T Model] struct {
	db       *gorm.DB
	tenantID string
	policy   ScopePolicy

	validator ModelValidator
	recorder  Recorder
	log       *zap.Logger

	// initErr marks a repository that was constructed in a way that must
	// never execute (e.g. Global over a tenant-scoped type).
	initErr error

	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

func newRepo[T Model](db *gorm.DB, tenantID string, f *Factory) *repoImpl[T] {
	return &repoImpl[T]{
		db:        db,
		tenantID:  tenantID,
		policy:    PolicyOf[T](),
		validator: f.validator,
		recorder:  f.recorder,
		log:       f.log,
	}
}

func (r *repoImpl[T]) newModelPtr() *T {
	var model T
	return &model
}

// entity returns the table name when the schema has been parsed, otherwise
// the Go type name. Used in errors and recorder events.
func (r *repoImpl[T]) entity() string {
	if r.schema != nil {
		return r.schema.Table
	}
	var model T
	return reflect.TypeOf(model).Name()
}

func (r *repoImpl[T]) getSchema() (*schema.Schema, error) {
	r.schemaOnce.Do(func() {
		stmt := &gorm.Statement{DB: r.db}
		if err := stmt.Parse(r.newModelPtr()); err != nil {
			r.schemaErr = errors.Wrap("parse model schema", err)
			return
		}
		r.schema = stmt.Schema
		r.schemaErr = r.checkClassification(stmt.Schema)
	})
	return r.schema, r.schemaErr
}

// checkClassification cross-checks the declared policy against the parsed
// table shape. A tenant-scoped type without the tenant column cannot be
// filtered; a global type with one is almost certainly a misregistered
// tenant-owned type. Both refuse to operate.
func (r *repoImpl[T]) checkClassification(sch *schema.Schema) error {
	_, hasTenantColumn := sch.FieldsByDBName[TenantColumn]
	switch {
	case r.policy == ScopeTenant && !hasTenantColumn:
		r.recorder.ScopeViolation(sch.Table, "misclassified_model")
		return &errors.InternalError{Message: "entity " + sch.Table +
			" is registered tenant-scoped but has no " + TenantColumn + " column"}
	case r.policy == ScopeGlobal && hasTenantColumn:
		r.recorder.ScopeViolation(sch.Table, "misclassified_model")
		return &errors.InternalError{Message: "entity " + sch.Table +
			" carries a " + TenantColumn + " column but is registered global"}
	}
	return nil
}

// ready gates every operation on construction and classification checks.
func (r *repoImpl[T]) ready() error {
	if r.initErr != nil {
		return r.initErr
	}
	_, err := r.getSchema()
	return err
}

func (r *repoImpl[T]) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db)
}

// scoped returns a statement with the tenant predicate already applied for
// tenant-scoped types. Global types get the bare connection.
func (r *repoImpl[T]) scoped(ctx context.Context) *gorm.DB {
	db := r.conn(ctx)
	if r.policy == ScopeTenant {
		db = db.Where(TenantColumn+" = ?", r.tenantID)
	}
	return db
}

// tenantGuard appends the tenant predicate after every caller-supplied
// modifier has run. Conditions already on the statement are collapsed
// into one AND group first, so a caller scope that attached a top-level
// OR can only widen that group, never reach past the tenant filter.
func (r *repoImpl[T]) tenantGuard(db *gorm.DB) *gorm.DB {
	if r.policy != ScopeTenant {
		return db
	}
	stmt := db.Statement
	if c, ok := stmt.Clauses["WHERE"]; ok {
		if where, ok := c.Expression.(clause.Where); ok && len(where.Exprs) > 0 {
			exprs := where.Exprs
			if len(exprs) == 1 {
				// A lone OR condition has nothing to attach to; treat it
				// as the group itself, as gorm does for grouped conditions.
				if or, ok := exprs[0].(clause.OrConditions); ok {
					exprs = []clause.Expression{clause.AndConditions(or)}
				}
			}
			c.Expression = clause.Where{Exprs: []clause.Expression{clause.And(exprs...)}}
			stmt.Clauses["WHERE"] = c
		}
	}
	return db.Where(TenantColumn+" = ?", r.tenantID)
}

// guardQuery rejects caller predicates that reference the tenant column.
// Overriding would mask caller bugs (code filtering on the wrong tenant's
// id); honouring would let a caller widen the scope. Rejecting is the one
// policy that keeps both failure modes loud.
func (r *repoImpl[T]) guardQuery(query string) error {
	if r.policy != ScopeTenant {
		return nil
	}
	if referencesColumn(query, TenantColumn) {
		r.recorder.ScopeViolation(r.entity(), "filter_conflict")
		r.log.Warn("rejected caller-supplied tenant filter",
			zap.String("entity", r.entity()),
			zap.String("query", query))
		return errors.NewValidation(
			"predicate must not reference %s; the repository applies the tenant filter", TenantColumn)
	}
	return nil
}

// stampTenant overwrites the record's owning tenant with the repository's
// binding. Intentionally not an error when the caller set something else:
// a scoped repository must be incapable of writing another tenant's rows.
func (r *repoImpl[T]) stampTenant(model *T) error {
	if r.policy != ScopeTenant {
		return nil
	}
	settable, ok := any(model).(TenantSettable)
	if !ok {
		return &errors.InternalError{Message: "entity " + r.entity() +
			" is tenant-scoped but does not implement TenantSettable"}
	}
	settable.SetOwnerTenantID(r.tenantID)
	return nil
}

func (r *repoImpl[T]) runValidator(model *T) error {
	if r.validator == nil {
		return nil
	}
	return r.validator.Validate(model)
}

// translate maps the database-level errors this layer owns into the
// taxonomy. Everything else passes through unchanged so callers can apply
// their own retry policy. Requires gorm's TranslateError to be on, as the
// database package's open helpers configure.
func (r *repoImpl[T]) translate(err error, id ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.NewNotFound(r.entity(), id...)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.NewDuplicate(r.entity(), "", nil)
	default:
		return err
	}
}

// buildQuery applies validated query options and then the tenant
// predicate. The predicate goes on last so nothing a caller option added
// can sit outside it.
func (r *repoImpl[T]) buildQuery(ctx context.Context, opt *QueryOption) (*gorm.DB, error) {
	db := r.conn(ctx)
	if opt == nil {
		return r.tenantGuard(db), nil
	}

	if err := ValidateSelect(opt.Select); err != nil {
		return nil, err
	}
	if err := ValidateOrderBy(opt.OrderBy); err != nil {
		return nil, err
	}

	if len(opt.Select) > 0 {
		db = db.Select(opt.Select)
	}
	for _, join := range opt.Joins {
		db = db.Joins(join)
	}
	if opt.OrderBy != "" {
		db = db.Order(opt.OrderBy)
	}
	for _, scope := range opt.Scopes {
		db = scope(db)
	}
	for _, preload := range opt.Preloads {
		db = db.Preload(preload)
	}
	return r.tenantGuard(db), nil
}

// filterUpdates drops primary-key, non-updatable and unknown columns from
// an updates map, applying the optional whitelist. An explicit attempt to
// write the tenant column is rejected rather than dropped: silent removal
// would hide a caller bug that looks exactly like an attack.
func (r *repoImpl[T]) filterUpdates(updates map[string]any, allowedFields []string) (map[string]any, error) {
	sch, err := r.getSchema()
	if err != nil {
		return nil, err
	}

	if r.policy == ScopeTenant {
		for k := range updates {
			name := k
			if field, ok := sch.FieldsByName[k]; ok {
				name = field.DBName
			}
			if name == TenantColumn {
				r.recorder.ScopeViolation(r.entity(), "update_tenant_column")
				return nil, errors.NewValidation("the %s column cannot be updated", TenantColumn)
			}
		}
	}

	allowed := make(map[string]struct{}, len(allowedFields))
	for _, f := range allowedFields {
		allowed[f] = struct{}{}
	}

	filtered := make(map[string]any, len(updates))
	for k, v := range updates {
		if len(allowed) > 0 {
			if _, ok := allowed[k]; !ok {
				continue
			}
		}
		if field, ok := sch.FieldsByDBName[k]; ok {
			if !field.PrimaryKey && field.Updatable {
				filtered[k] = v
			}
			continue
		}
		if field, ok := sch.FieldsByName[k]; ok {
			if !field.PrimaryKey && field.Updatable {
				filtered[field.DBName] = v
			}
		}
	}
	return filtered, nil
}

// updatableColumns returns the columns an upsert's conflict branch may
// assign: everything updatable except the primary key and the tenant
// column.
func (r *repoImpl[T]) updatableColumns() ([]string, error) {
	sch, err := r.getSchema()
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(sch.Fields))
	for _, field := range sch.Fields {
		if field.DBName == "" || field.PrimaryKey || !field.Updatable {
			continue
		}
		if field.DBName == TenantColumn {
			continue
		}
		cols = append(cols, field.DBName)
	}
	return cols, nil
}

func primaryID[T Model](model *T) (int64, bool) {
	if ider, ok := any(*model).(interface{ PrimaryID() int64 }); ok {
		return ider.PrimaryID(), true
	}
	return 0, false
}
