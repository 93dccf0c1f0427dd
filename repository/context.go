package repository

import (
	"context"

	"gorm.io/gorm"
)

type ctxTxKey struct{}

// withTx binds an in-flight transaction to the context so repository calls
// made inside a transactional callback join it automatically.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxTxKey{}, tx)
}

// dbFromContext returns the transaction bound to ctx when present,
// otherwise the repository's own handle. The context is always re-attached
// so cancellation propagates into the driver call.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxTxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}
