package repository

import (
	"context"
	"testing"

	"github.com/siteplane/siteplane-go-pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// pageModel is a tenant-scoped entity: slug is unique per tenant by
// convention, domain is unique across the whole platform.
type pageModel struct {
	TenantModel
	Slug   string `gorm:"column:slug;size:191;index"`
	Domain string `gorm:"column:domain;size:191;uniqueIndex"`
	Status string `gorm:"column:status;size:32"`
	Views  int64  `gorm:"column:views"`
}

// planModel is shared platform data.
type planModel struct {
	GlobalModel
	Name string `gorm:"column:name;size:64"`
}

func openTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestFactory(t *testing.T, opts ...FactoryOption) *Factory {
	t.Helper()
	return NewFactory(openTestDB(t, &pageModel{}, &planModel{}), opts...)
}

func scopeFor(t *testing.T, f *Factory, tenantID string) *TenantScope {
	t.Helper()
	scope, err := f.ForTenant(tenantID)
	if err != nil {
		t.Fatalf("ForTenant(%q): %v", tenantID, err)
	}
	return scope
}

func TestForTenantRejectsEmptyID(t *testing.T) {
	f := newTestFactory(t)
	if _, err := f.ForTenant(""); !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateStampsTenantOverSpoofedPayload(t *testing.T) {
	f := newTestFactory(t)
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))

	page := &pageModel{Slug: "home", Domain: "spoof.example"}
	page.TenantID = "beta" // attempted spoof
	if err := acme.Create(context.Background(), page); err != nil {
		t.Fatalf("create: %v", err)
	}
	if page.TenantID != "acme" {
		t.Fatalf("stamped tenant = %q, want acme", page.TenantID)
	}

	var raw pageModel
	if err := f.DB().First(&raw, "id = ?", page.ID).Error; err != nil {
		t.Fatalf("raw fetch: %v", err)
	}
	if raw.TenantID != "acme" {
		t.Fatalf("persisted tenant = %q, want acme", raw.TenantID)
	}
}

func TestReadsNeverCrossTenants(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	a := &pageModel{Slug: "home", Domain: "a.example"}
	b := &pageModel{Slug: "home", Domain: "b.example"}
	if err := acme.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := beta.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	if _, err := beta.FindByID(ctx, a.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant FindByID should be not-found, got %v", err)
	}
	if _, err := acme.FindByID(ctx, a.ID); err != nil {
		t.Fatalf("own FindByID: %v", err)
	}

	all, err := acme.FindAll(ctx, "slug = ?", "home")
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != a.ID {
		t.Fatalf("FindAll leaked rows: %+v", all)
	}

	both, err := acme.FindByIDs(ctx, []int64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(both) != 1 || both[0].ID != a.ID {
		t.Fatalf("FindByIDs leaked rows: %+v", both)
	}

	n, err := acme.Count(ctx, "slug = ?", "home")
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1", n, err)
	}
}

func TestCallerScopeCannotWidenTenantFilter(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	a := &pageModel{Slug: "home", Domain: "wa.example"}
	b := &pageModel{Slug: "home", Domain: "wb.example"}
	if err := acme.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := beta.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	// An OR attached at the top level must not reach past the tenant
	// predicate.
	widen := func(tx *gorm.DB) *gorm.DB { return tx.Or("1 = 1") }

	rows, err := acme.FindAllWithOpts(ctx, "", []Option{WithScopes(widen)})
	if err != nil {
		t.Fatalf("FindAllWithOpts: %v", err)
	}
	if len(rows) != 1 || rows[0].TenantID != "acme" {
		t.Fatalf("widening scope leaked rows: %+v", rows)
	}

	one, err := acme.FindOneWithOpts(ctx, "slug = ?", []Option{WithScopes(widen)}, "home")
	if err != nil {
		t.Fatalf("FindOneWithOpts: %v", err)
	}
	if one.TenantID != "acme" {
		t.Fatalf("widening scope leaked row: %+v", one)
	}

	page, err := acme.FindPageWithOpts(ctx, 1, 10, "", []Option{WithScopes(widen)})
	if err != nil {
		t.Fatalf("FindPageWithOpts: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("widening scope leaked into totals: %d", page.Total)
	}

	if _, err := beta.FindByID(ctx, a.ID, WithScopes(widen)); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant FindByID with widening scope should be not-found, got %v", err)
	}

	// A scope that ORs onto an existing predicate widens only that group.
	narrowThenWiden := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", "draft").Or("1 = 1")
	}
	rows, err = acme.FindAllWithOpts(ctx, "", []Option{WithScopes(narrowThenWiden)})
	if err != nil {
		t.Fatalf("FindAllWithOpts: %v", err)
	}
	if len(rows) != 1 || rows[0].TenantID != "acme" {
		t.Fatalf("grouped widening scope leaked rows: %+v", rows)
	}
}

func TestCrossTenantUpdateAffectsZeroRows(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	b := &pageModel{Slug: "pricing", Domain: "b2.example", Status: "draft"}
	if err := beta.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Arbitrary primary-key filter pointed at another tenant's row.
	affected, err := acme.UpdateWhere(ctx, map[string]any{"status": "published"}, "id = ?", b.ID)
	if err != nil {
		t.Fatalf("UpdateWhere: %v", err)
	}
	if affected != 0 {
		t.Fatalf("cross-tenant update affected %d rows", affected)
	}

	if err := acme.UpdateByID(ctx, b.ID, map[string]any{"status": "published"}); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant UpdateByID should be not-found, got %v", err)
	}

	got, err := beta.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got.Status != "draft" {
		t.Fatalf("row mutated across tenants: %+v", got)
	}
}

func TestCrossTenantDeleteAffectsZeroRows(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	b := &pageModel{Slug: "about", Domain: "b3.example"}
	if err := beta.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := acme.Delete(ctx, b.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant Delete should be not-found, got %v", err)
	}
	if err := acme.HardDelete(ctx, b.ID); !errors.IsNotFound(err) {
		t.Fatalf("cross-tenant HardDelete should be not-found, got %v", err)
	}
	affected, err := acme.DeleteWhere(ctx, "slug = ?", "about")
	if err != nil || affected != 0 {
		t.Fatalf("DeleteWhere = %d, %v; want 0, nil", affected, err)
	}

	if _, err := beta.FindByID(ctx, b.ID); err != nil {
		t.Fatalf("row should survive cross-tenant delete attempts: %v", err)
	}
}

func TestUpdateNeverRehomesRow(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))

	p := &pageModel{Slug: "home", Domain: "a4.example", Status: "draft"}
	if err := acme.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Status = "published"
	p.TenantID = "beta" // must be ignored
	if err := acme.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}

	var raw pageModel
	if err := f.DB().First(&raw, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("raw fetch: %v", err)
	}
	if raw.TenantID != "acme" {
		t.Fatalf("update re-homed row to %q", raw.TenantID)
	}
	if raw.Status != "published" {
		t.Fatalf("update lost field change: %+v", raw)
	}
}

func TestCallerTenantFilterIsRejected(t *testing.T) {
	rec := &captureRecorder{}
	f := newTestFactory(t, WithRecorder(rec))
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))

	if _, err := acme.FindAll(ctx, "tenant_id = ?", "acme"); !errors.IsValidation(err) {
		t.Fatalf("tenant filter should be rejected, got %v", err)
	}
	// Matching our own tenant id is rejected too: the intent is ambiguous
	// either way and overriding would mask caller bugs.
	if _, err := acme.Count(ctx, "TENANT_ID = ?", "acme"); !errors.IsValidation(err) {
		t.Fatalf("tenant filter should be rejected case-insensitively, got %v", err)
	}
	if _, err := acme.UpdateWhere(ctx, map[string]any{"status": "x"}, "tenant_id = ? AND slug = ?", "beta", "home"); !errors.IsValidation(err) {
		t.Fatalf("tenant filter in update predicate should be rejected, got %v", err)
	}
	if err := acme.UpdateByID(ctx, 1, map[string]any{"tenant_id": "beta"}); !errors.IsValidation(err) {
		t.Fatalf("tenant column update should be rejected, got %v", err)
	}
	if err := acme.UpdateByID(ctx, 1, map[string]any{"TenantID": "beta"}); !errors.IsValidation(err) {
		t.Fatalf("tenant field update should be rejected, got %v", err)
	}

	// Columns that merely contain the word are fine.
	if _, err := acme.FindAll(ctx, "slug = ?", "tenant_id_docs"); err != nil {
		t.Fatalf("unrelated query rejected: %v", err)
	}

	if rec.count("filter_conflict") == 0 {
		t.Fatalf("recorder should have seen filter_conflict events")
	}
	if rec.count("update_tenant_column") == 0 {
		t.Fatalf("recorder should have seen update_tenant_column events")
	}
}

func TestGlobalEntitiesAreNeverFilteredOrStamped(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	acmePlans := Scoped[planModel](scopeFor(t, f, "acme"))
	betaPlans := Scoped[planModel](scopeFor(t, f, "beta"))

	pro := &planModel{Name: "pro"}
	if err := acmePlans.Create(ctx, pro); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := betaPlans.FindByID(ctx, pro.ID)
	if err != nil {
		t.Fatalf("global row should be visible to every scope: %v", err)
	}
	if got.Name != "pro" {
		t.Fatalf("unexpected row: %+v", got)
	}

	// And entirely outside any scope.
	admin := Global[planModel](f)
	if _, err := admin.FindByID(ctx, pro.ID); err != nil {
		t.Fatalf("Global repo: %v", err)
	}
}

func TestGlobalRejectsTenantScopedType(t *testing.T) {
	f := newTestFactory(t)
	pages := Global[pageModel](f)
	if _, err := pages.FindByID(context.Background(), 1); !errors.IsValidation(err) {
		t.Fatalf("Global over tenant-scoped type must fail, got %v", err)
	}
	if err := pages.Create(context.Background(), &pageModel{}); !errors.IsValidation(err) {
		t.Fatalf("Global create over tenant-scoped type must fail, got %v", err)
	}
}

func TestDuplicateKeyBecomesTypedError(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))

	if err := acme.Create(ctx, &pageModel{Slug: "home", Domain: "dup.example"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := acme.Create(ctx, &pageModel{Slug: "other", Domain: "dup.example"})
	if !errors.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestUpsertCannotHijackForeignRow(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	b := &pageModel{Slug: "home", Domain: "shared.example", Status: "draft"}
	if err := beta.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Conflicts with beta's row on the global unique domain. The update
	// branch is tenant-guarded, so nothing happens.
	spoof := &pageModel{Slug: "landing", Domain: "shared.example", Status: "published"}
	if err := acme.Upsert(ctx, spoof, "domain"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := beta.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got.TenantID != "beta" || got.Status != "draft" || got.Slug != "home" {
		t.Fatalf("upsert hijacked foreign row: %+v", got)
	}

	// The same upsert against the tenant's own row does update it.
	own := &pageModel{Slug: "home", Domain: "own.example", Status: "draft"}
	if err := acme.Upsert(ctx, own, "domain"); err != nil {
		t.Fatalf("own upsert insert: %v", err)
	}
	own2 := &pageModel{Slug: "home-v2", Domain: "own.example", Status: "published"}
	if err := acme.Upsert(ctx, own2, "domain"); err != nil {
		t.Fatalf("own upsert update: %v", err)
	}
	refreshed, err := acme.FindOne(ctx, "domain = ?", "own.example")
	if err != nil {
		t.Fatalf("refetch own: %v", err)
	}
	if refreshed.Slug != "home-v2" || refreshed.Status != "published" {
		t.Fatalf("own upsert did not update: %+v", refreshed)
	}
	if refreshed.TenantID != "acme" {
		t.Fatalf("own upsert changed tenant: %+v", refreshed)
	}
}

// captureRecorder counts scope-violation events by kind.
type captureRecorder struct {
	events []string
}

func (c *captureRecorder) ScopeViolation(entity, kind string) {
	c.events = append(c.events, kind)
}

func (c *captureRecorder) count(kind string) int {
	n := 0
	for _, e := range c.events {
		if e == kind {
			n++
		}
	}
	return n
}
