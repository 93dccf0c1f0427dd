package repository

import (
	"context"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"gorm.io/gorm/clause"
)

/* ========================================================================
 * Create / Update / Delete operations
 * ========================================================================
 * Writes stamp the owning tenant; mutations merge the tenant predicate
 * into their selection, so a mutation aimed at another tenant's row
 * matches zero rows and surfaces as not-found. Zero rows and "exists under
 * another tenant" are deliberately indistinguishable to the caller.
 * ======================================================================== */

// Create persists a single record, stamping the owning tenant.
func (r *repoImpl[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return errors.NewValidation("model must not be nil")
	}
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.runValidator(model); err != nil {
		return err
	}
	if err := r.stampTenant(model); err != nil {
		return err
	}
	return r.translate(r.conn(ctx).Create(model).Error)
}

// CreateBatch persists records in batches, stamping every record.
func (r *repoImpl[T]) CreateBatch(ctx context.Context, models []*T, batchSize int) error {
	if len(models) == 0 {
		return errors.NewValidation("models must not be empty")
	}
	if err := r.ready(); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	valid := make([]*T, 0, len(models))
	for _, m := range models {
		if m == nil {
			continue
		}
		if err := r.runValidator(m); err != nil {
			return err
		}
		if err := r.stampTenant(m); err != nil {
			return err
		}
		valid = append(valid, m)
	}
	if len(valid) == 0 {
		return nil
	}
	return r.translate(r.conn(ctx).CreateInBatches(valid, batchSize).Error)
}

// Upsert inserts the record or updates the conflicting row. The insert
// branch carries the stamped tenant id; the update branch is constrained
// to rows owned by the repository's tenant and never assigns the tenant
// column. A conflict with another tenant's row therefore updates nothing
// instead of hijacking it.
func (r *repoImpl[T]) Upsert(ctx context.Context, model *T, conflictColumns ...string) error {
	if model == nil {
		return errors.NewValidation("model must not be nil")
	}
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.runValidator(model); err != nil {
		return err
	}
	if err := r.stampTenant(model); err != nil {
		return err
	}

	sch, err := r.getSchema()
	if err != nil {
		return err
	}
	if len(conflictColumns) == 0 {
		conflictColumns = sch.PrimaryFieldDBNames
	}
	cols := make([]clause.Column, 0, len(conflictColumns))
	for _, c := range conflictColumns {
		if err := validateColumn(c); err != nil {
			return err
		}
		cols = append(cols, clause.Column{Name: c})
	}

	assigns, err := r.updatableColumns()
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(assigns),
	}
	if r.policy == ScopeTenant {
		onConflict.Where = clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Name: TenantColumn}, Value: r.tenantID},
		}}
	}
	return r.translate(r.conn(ctx).Clauses(onConflict).Create(model).Error)
}

// Update rewrites the record identified by its primary key. The primary
// key and tenant column are never written.
func (r *repoImpl[T]) Update(ctx context.Context, model *T) error {
	if model == nil {
		return errors.NewValidation("model must not be nil")
	}
	if err := r.ready(); err != nil {
		return err
	}
	id, ok := primaryID(model)
	if !ok || id == 0 {
		return errors.NewValidation("model has no primary key set")
	}
	if err := r.runValidator(model); err != nil {
		return err
	}
	// Keep the in-memory record truthful even though the column is
	// omitted from the statement.
	if err := r.stampTenant(model); err != nil {
		return err
	}

	result := r.scoped(ctx).
		Model(r.newModelPtr()).
		Where("id = ?", id).
		Select("*").
		Omit("id", TenantColumn, "create_time").
		Updates(model)
	if result.Error != nil {
		return r.translate(result.Error, id)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFound(r.entity(), id)
	}
	return nil
}

// UpdateByID applies a partial update to one row. Unknown and
// non-updatable columns are dropped; an explicit tenant-column update is
// rejected.
func (r *repoImpl[T]) UpdateByID(ctx context.Context, id int64, updates map[string]any, allowedFields ...string) error {
	if len(updates) == 0 {
		return errors.NewValidation("updates must not be empty")
	}
	if err := r.ready(); err != nil {
		return err
	}
	filtered, err := r.filterUpdates(updates, allowedFields)
	if err != nil {
		return err
	}
	if len(filtered) == 0 {
		return errors.NewValidation("no updatable fields in request")
	}

	result := r.scoped(ctx).
		Model(r.newModelPtr()).
		Where("id = ?", id).
		Updates(filtered)
	if result.Error != nil {
		return r.translate(result.Error, id)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFound(r.entity(), id)
	}
	return nil
}

// UpdateWhere applies a partial update to every matching row and returns
// the number of rows affected. A predicate matching only other tenants'
// rows affects zero rows.
func (r *repoImpl[T]) UpdateWhere(ctx context.Context, updates map[string]any, query string, args ...any) (int64, error) {
	if len(updates) == 0 {
		return 0, errors.NewValidation("updates must not be empty")
	}
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := r.guardQuery(query); err != nil {
		return 0, err
	}
	filtered, err := r.filterUpdates(updates, nil)
	if err != nil {
		return 0, err
	}
	if len(filtered) == 0 {
		return 0, errors.NewValidation("no updatable fields in request")
	}

	db := r.scoped(ctx).Model(r.newModelPtr())
	if query != "" {
		db = db.Where(query, args...)
	}
	result := db.Updates(filtered)
	if result.Error != nil {
		return 0, r.translate(result.Error)
	}
	return result.RowsAffected, nil
}

// Delete soft-deletes one row.
func (r *repoImpl[T]) Delete(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}
	result := r.scoped(ctx).Where("id = ?", id).Delete(r.newModelPtr())
	if result.Error != nil {
		return r.translate(result.Error, id)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFound(r.entity(), id)
	}
	return nil
}

// DeleteBatch soft-deletes the given rows. Rows outside the tenant scope
// are silently skipped, matching bulk-delete semantics elsewhere.
func (r *repoImpl[T]) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return errors.NewValidation("ids must not be empty")
	}
	if err := r.ready(); err != nil {
		return err
	}
	return r.translate(r.scoped(ctx).Where("id IN ?", ids).Delete(r.newModelPtr()).Error)
}

// DeleteWhere soft-deletes every matching row and returns the number of
// rows affected.
func (r *repoImpl[T]) DeleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := r.guardQuery(query); err != nil {
		return 0, err
	}
	db := r.scoped(ctx)
	if query != "" {
		db = db.Where(query, args...)
	}
	result := db.Delete(r.newModelPtr())
	if result.Error != nil {
		return 0, r.translate(result.Error)
	}
	return result.RowsAffected, nil
}

// HardDelete removes one row permanently.
func (r *repoImpl[T]) HardDelete(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}
	result := r.scoped(ctx).Unscoped().Where("id = ?", id).Delete(r.newModelPtr())
	if result.Error != nil {
		return r.translate(result.Error, id)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFound(r.entity(), id)
	}
	return nil
}
