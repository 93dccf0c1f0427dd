package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/siteplane/siteplane-go-pkg/errors"
)

func seedPages(t *testing.T, repo Repository[pageModel], tenant string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		p := &pageModel{
			Slug:   fmt.Sprintf("page-%02d", i),
			Domain: fmt.Sprintf("%s-%02d.example", tenant, i),
			Status: "published",
			Views:  int64(i),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("seed %s #%d: %v", tenant, i, err)
		}
	}
}

func TestFindPageCountsOnlyOwnTenant(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	beta := Scoped[pageModel](scopeFor(t, f, "beta"))

	seedPages(t, acme, "acme", 25)
	seedPages(t, beta, "beta", 5)

	page, err := acme.FindPage(ctx, 2, 10, "")
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	if page.Total != 25 {
		t.Fatalf("Total = %d, want 25", page.Total)
	}
	if page.Pages != 3 {
		t.Fatalf("Pages = %d, want 3", page.Pages)
	}
	if len(page.List) != 10 {
		t.Fatalf("len(List) = %d, want 10", len(page.List))
	}
	for _, item := range page.List {
		if item.TenantID != "acme" {
			t.Fatalf("page leaked row: %+v", item)
		}
	}

	last, err := acme.FindPage(ctx, 3, 10, "")
	if err != nil {
		t.Fatalf("FindPage last: %v", err)
	}
	if len(last.List) != 5 {
		t.Fatalf("last page len = %d, want 5", len(last.List))
	}
}

func TestFindPageClampsArguments(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	seedPages(t, acme, "acme", 3)

	page, err := acme.FindPage(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	if page.Page != 1 || page.PageSize != 10 {
		t.Fatalf("clamped page/size = %d/%d, want 1/10", page.Page, page.PageSize)
	}
	if page.Total != 3 || len(page.List) != 3 {
		t.Fatalf("unexpected result: total %d, list %d", page.Total, len(page.List))
	}
}

func TestFindPageWithOptsOrders(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	seedPages(t, acme, "acme", 5)

	page, err := acme.FindPageWithOpts(ctx, 1, 10, "status = ?",
		[]Option{WithOrderBy("views DESC")}, "published")
	if err != nil {
		t.Fatalf("FindPageWithOpts: %v", err)
	}
	if len(page.List) != 5 {
		t.Fatalf("len = %d, want 5", len(page.List))
	}
	for i := 1; i < len(page.List); i++ {
		if page.List[i].Views > page.List[i-1].Views {
			t.Fatalf("not ordered desc: %+v", page.List)
		}
	}

	if _, err := acme.FindPageWithOpts(ctx, 1, 10, "",
		[]Option{WithOrderBy("views; DROP TABLE page_models")}); !errors.IsValidation(err) {
		t.Fatalf("hostile order by should be rejected, got %v", err)
	}
}

func TestFindPageRejectsTenantFilter(t *testing.T) {
	f := newTestFactory(t)
	acme := Scoped[pageModel](scopeFor(t, f, "acme"))
	if _, err := acme.FindPage(context.Background(), 1, 10, "tenant_id = ?", "beta"); !errors.IsValidation(err) {
		t.Fatalf("tenant filter should be rejected, got %v", err)
	}
}
