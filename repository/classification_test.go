package repository

import (
	"context"
	"testing"

	"github.com/siteplane/siteplane-go-pkg/errors"
)

// rogueGlobal is registered global but carries the tenant column, the
// shape of a mis-registered tenant-owned type.
type rogueGlobal struct {
	GlobalModel
	TenantID string `gorm:"column:tenant_id;type:char(26)"`
	Name     string `gorm:"column:name;size:64"`
}

// orphanScoped declares itself tenant-scoped without the tenant column.
type orphanScoped struct {
	BaseModel
	Name string `gorm:"column:name;size:64"`
}

func (orphanScoped) ScopePolicy() ScopePolicy { return ScopeTenant }

func TestGlobalTypeWithTenantColumnRefusesToOperate(t *testing.T) {
	rec := &captureRecorder{}
	db := openTestDB(t, &rogueGlobal{})
	f := NewFactory(db, WithRecorder(rec))

	repo := Global[rogueGlobal](f)
	if _, err := repo.FindByID(context.Background(), 1); errors.Code(err) != errors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := repo.Create(context.Background(), &rogueGlobal{Name: "x"}); errors.Code(err) != errors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if rec.count("misclassified_model") == 0 {
		t.Fatal("recorder should have seen misclassified_model")
	}
}

func TestScopedTypeWithoutTenantColumnRefusesToOperate(t *testing.T) {
	rec := &captureRecorder{}
	db := openTestDB(t, &orphanScoped{})
	f := NewFactory(db, WithRecorder(rec))

	scope, err := f.ForTenant("acme")
	if err != nil {
		t.Fatalf("ForTenant: %v", err)
	}
	repo := Scoped[orphanScoped](scope)
	if _, err := repo.FindAll(context.Background(), ""); errors.Code(err) != errors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if rec.count("misclassified_model") == 0 {
		t.Fatal("recorder should have seen misclassified_model")
	}
}
