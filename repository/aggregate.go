package repository

import (
	"context"
	"database/sql"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * Aggregations
 * ========================================================================
 * Column names are interpolated into the SELECT list and therefore pass
 * the identifier whitelist first. The tenant predicate applies to every
 * aggregate, so totals never mix tenants.
 * ======================================================================== */

func (r *repoImpl[T]) aggregateBase(ctx context.Context, column, query string, args ...any) (*gorm.DB, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := validateColumn(column); err != nil {
		return nil, err
	}
	if err := r.guardQuery(query); err != nil {
		return nil, err
	}
	db := r.scoped(ctx).Model(r.newModelPtr())
	if query != "" {
		db = db.Where(query, args...)
	}
	return db, nil
}

// Sum totals a numeric column over the matching rows; zero when none match.
func (r *repoImpl[T]) Sum(ctx context.Context, column string, query string, args ...any) (float64, error) {
	db, err := r.aggregateBase(ctx, column, query, args...)
	if err != nil {
		return 0, err
	}
	var result float64
	if err := db.Select("COALESCE(SUM(" + column + "), 0)").Scan(&result).Error; err != nil {
		return 0, r.translate(err)
	}
	return result, nil
}

// Avg averages a numeric column over the matching rows; zero when none
// match.
func (r *repoImpl[T]) Avg(ctx context.Context, column string, query string, args ...any) (float64, error) {
	db, err := r.aggregateBase(ctx, column, query, args...)
	if err != nil {
		return 0, err
	}
	var result float64
	if err := db.Select("COALESCE(AVG(" + column + "), 0)").Scan(&result).Error; err != nil {
		return 0, r.translate(err)
	}
	return result, nil
}

// Max returns the maximum value of a column, or nil when no rows match.
// The concrete type depends on what the driver scans.
func (r *repoImpl[T]) Max(ctx context.Context, column string, query string, args ...any) (any, error) {
	return r.extremum(ctx, "MAX", column, query, args...)
}

// Min returns the minimum value of a column, or nil when no rows match.
func (r *repoImpl[T]) Min(ctx context.Context, column string, query string, args ...any) (any, error) {
	return r.extremum(ctx, "MIN", column, query, args...)
}

func (r *repoImpl[T]) extremum(ctx context.Context, fn, column, query string, args ...any) (any, error) {
	db, err := r.aggregateBase(ctx, column, query, args...)
	if err != nil {
		return nil, err
	}
	var result any
	row := db.Select(fn + "(" + column + ")").Row()
	if err := row.Scan(&result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.translate(err)
	}
	return result, nil
}

// CountByGroup counts matching rows grouped by a column.
func (r *repoImpl[T]) CountByGroup(ctx context.Context, groupColumn string, query string, args ...any) (map[string]int64, error) {
	db, err := r.aggregateBase(ctx, groupColumn, query, args...)
	if err != nil {
		return nil, err
	}

	type row struct {
		GroupKey string `gorm:"column:group_key"`
		Count    int64  `gorm:"column:count"`
	}
	var rows []row
	if err := db.
		Select(groupColumn + " AS group_key, COUNT(*) AS count").
		Group(groupColumn).
		Scan(&rows).Error; err != nil {
		return nil, r.translate(err)
	}

	result := make(map[string]int64, len(rows))
	for _, rw := range rows {
		result[rw.GroupKey] = rw.Count
	}
	return result, nil
}
