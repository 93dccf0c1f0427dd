package repository

import (
	"context"
	"math"

	"gorm.io/gorm"
)

const maxPageSize = 1000

// FindPage returns one page of records matching the caller predicate.
// Count and rows are read inside one transaction so the totals match the
// page content.
func (r *repoImpl[T]) FindPage(ctx context.Context, page, pageSize int, query string, args ...any) (*PageResult[T], error) {
	return r.FindPageWithOpts(ctx, page, pageSize, query, nil, args...)
}

// FindPageWithOpts is FindPage with query options.
func (r *repoImpl[T]) FindPageWithOpts(ctx context.Context, page, pageSize int, query string, opts []Option, args ...any) (*PageResult[T], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := r.guardQuery(query); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var opt *QueryOption
	if len(opts) > 0 {
		opt = ApplyOptions(opts)
	}

	var result *PageResult[T]
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := withTx(ctx, tx)
		db, err := r.buildQuery(txCtx, opt)
		if err != nil {
			return err
		}
		if query != "" {
			db = db.Where(query, args...)
		}
		result, err = r.readPage(db, page, pageSize)
		return err
	})
	if err != nil {
		return nil, r.translate(err)
	}
	return result, nil
}

func (r *repoImpl[T]) readPage(db *gorm.DB, page, pageSize int) (*PageResult[T], error) {
	var total int64
	if err := db.Model(r.newModelPtr()).Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	var list []T
	if err := db.Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, err
	}

	pages := int64(0)
	if pageSize > 0 {
		pages = int64(math.Ceil(float64(total) / float64(pageSize)))
	}
	return &PageResult[T]{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}
