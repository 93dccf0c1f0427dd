package validator

import (
	"testing"

	"github.com/siteplane/siteplane-go-pkg/errors"
	"github.com/siteplane/siteplane-go-pkg/repository"
)

var _ repository.ModelValidator = (*Validator)(nil)

type pageRequest struct {
	Slug  string `validate:"required,max=10" error_msg:"required:slug is required|max:slug too long"`
	Title string `validate:"required"`
	SEO   seoSettings
	Extra *seoSettings
}

type seoSettings struct {
	Description string `validate:"max=5" error_msg:"max:description too long"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	if err := v.Validate(&pageRequest{Slug: "home", Title: "Home"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	if err := v.Validate(nil); err != nil {
		t.Fatalf("nil should pass: %v", err)
	}
}

func TestValidateCustomMessages(t *testing.T) {
	v := New()
	err := v.Validate(&pageRequest{Slug: "", Title: "Home"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *errors.ValidationError, got %T", err)
	}
	msgs := verr.Fields["Slug"]
	if len(msgs) != 1 || msgs[0] != "slug is required" {
		t.Fatalf("Slug messages = %v", msgs)
	}

	err = v.Validate(&pageRequest{Slug: "far-too-long-slug", Title: "Home"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	errors.As(err, &verr)
	if msgs := verr.Fields["Slug"]; len(msgs) != 1 || msgs[0] != "slug too long" {
		t.Fatalf("Slug messages = %v", msgs)
	}
}

func TestValidateNestedStructs(t *testing.T) {
	v := New()
	err := v.Validate(&pageRequest{
		Slug:  "home",
		Title: "Home",
		SEO:   seoSettings{Description: "way too long"},
		Extra: &seoSettings{Description: "also too long"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *errors.ValidationError
	errors.As(err, &verr)
	if msgs := verr.Fields["SEO.Description"]; len(msgs) != 1 || msgs[0] != "description too long" {
		t.Fatalf("SEO.Description messages = %v", msgs)
	}
	if msgs := verr.Fields["Extra.Description"]; len(msgs) != 1 {
		t.Fatalf("Extra.Description messages = %v", msgs)
	}
}

func TestValidateFallsBackToDefaultMessage(t *testing.T) {
	v := New()
	err := v.Validate(&pageRequest{Slug: "home", Title: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *errors.ValidationError
	errors.As(err, &verr)
	if msgs := verr.Fields["Title"]; len(msgs) != 1 || msgs[0] == "" {
		t.Fatalf("Title messages = %v", msgs)
	}
}
