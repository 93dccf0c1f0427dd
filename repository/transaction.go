package repository

import (
	"context"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * Tenant-Scoped Transaction Coordinator
 * ========================================================================
 * Atomicity is the database's job; this wrapper only guarantees that the
 * scope handed to the callback is bound to both the transaction and the
 * tenant, so repositories obtained inside behave operation-for-operation
 * like their non-transactional counterparts. Any error from the callback
 * rolls the transaction back and propagates unchanged; there is no retry
 * logic here.
 * ======================================================================== */

// RunInTransaction executes fn inside a database transaction with a
// tenant-bound scope. The transaction also travels on the callback's
// context, so repository calls made with that context join it.
func (f *Factory) RunInTransaction(ctx context.Context, tenantID string, fn func(ctx context.Context, scope *TenantScope) error) error {
	if tenantID == "" {
		return errors.NewValidation("tenant id must not be empty")
	}
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope := &TenantScope{factory: f, db: tx, tenantID: tenantID}
		return fn(withTx(ctx, tx), scope)
	})
}

// RunInTransactionFromContext is RunInTransaction for the tenant
// established on ctx.
func (f *Factory) RunInTransactionFromContext(ctx context.Context, fn func(ctx context.Context, scope *TenantScope) error) error {
	tenantID, err := RequireTenant(ctx)
	if err != nil {
		return err
	}
	return f.RunInTransaction(ctx, tenantID, fn)
}

// RunGlobalTransaction executes fn inside a database transaction without a
// tenant binding, for work that only touches global entity types.
func (f *Factory) RunGlobalTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}
