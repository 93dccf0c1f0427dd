package repository

import (
	"context"
)

/* ========================================================================
 * Read operations
 * ========================================================================
 * Every read runs with the tenant predicate merged in. A record that
 * exists under another tenant is reported as not found.
 * ======================================================================== */

// FindByID looks one record up by primary key within the tenant scope.
func (r *repoImpl[T]) FindByID(ctx context.Context, id int64, opts ...Option) (*T, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	db, err := r.buildQuery(ctx, ApplyOptions(opts))
	if err != nil {
		return nil, err
	}
	model := r.newModelPtr()
	if err := db.First(model, "id = ?", id).Error; err != nil {
		return nil, r.translate(err, id)
	}
	return model, nil
}

// FindByIDs looks up the records with the given primary keys. Ids owned by
// other tenants are simply absent from the result.
func (r *repoImpl[T]) FindByIDs(ctx context.Context, ids []int64, opts ...Option) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}
	if err := r.ready(); err != nil {
		return nil, err
	}
	db, err := r.buildQuery(ctx, ApplyOptions(opts))
	if err != nil {
		return nil, err
	}
	var models []*T
	if err := db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, r.translate(err)
	}
	return models, nil
}

// FindOne returns the first record matching the caller predicate.
func (r *repoImpl[T]) FindOne(ctx context.Context, query string, args ...any) (*T, error) {
	return r.FindOneWithOpts(ctx, query, nil, args...)
}

// FindOneWithOpts is FindOne with query options.
func (r *repoImpl[T]) FindOneWithOpts(ctx context.Context, query string, opts []Option, args ...any) (*T, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := r.guardQuery(query); err != nil {
		return nil, err
	}
	var opt *QueryOption
	if len(opts) > 0 {
		opt = ApplyOptions(opts)
	}
	db, err := r.buildQuery(ctx, opt)
	if err != nil {
		return nil, err
	}
	if query != "" {
		db = db.Where(query, args...)
	}
	model := r.newModelPtr()
	if err := db.First(model).Error; err != nil {
		return nil, r.translate(err)
	}
	return model, nil
}

// FindAll returns every record matching the caller predicate.
func (r *repoImpl[T]) FindAll(ctx context.Context, query string, args ...any) ([]*T, error) {
	return r.FindAllWithOpts(ctx, query, nil, args...)
}

// FindAllWithOpts is FindAll with query options.
func (r *repoImpl[T]) FindAllWithOpts(ctx context.Context, query string, opts []Option, args ...any) ([]*T, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := r.guardQuery(query); err != nil {
		return nil, err
	}
	var opt *QueryOption
	if len(opts) > 0 {
		opt = ApplyOptions(opts)
	}
	db, err := r.buildQuery(ctx, opt)
	if err != nil {
		return nil, err
	}
	if query != "" {
		db = db.Where(query, args...)
	}
	var models []*T
	if err := db.Find(&models).Error; err != nil {
		return nil, r.translate(err)
	}
	return models, nil
}

// Count counts the records matching the caller predicate.
func (r *repoImpl[T]) Count(ctx context.Context, query string, args ...any) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := r.guardQuery(query); err != nil {
		return 0, err
	}
	db := r.scoped(ctx).Model(r.newModelPtr())
	if query != "" {
		db = db.Where(query, args...)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, r.translate(err)
	}
	return count, nil
}

// Exists reports whether any record matches the caller predicate.
func (r *repoImpl[T]) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	count, err := r.Count(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
