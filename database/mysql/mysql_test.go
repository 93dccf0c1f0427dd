package mysql

import (
	"strings"
	"testing"
)

func TestSanitizeDSN(t *testing.T) {
	dsn := "app:secret@tcp(localhost:3306)/db?charset=utf8mb4&parseTime=true&loc=Local"
	got := sanitizeDSN(dsn)
	if strings.Contains(got, "secret") {
		t.Fatalf("password leaked in sanitized DSN: %s", got)
	}
	if !strings.HasPrefix(got, "app:***@") {
		t.Fatalf("expected masked password, got: %s", got)
	}
	if !strings.Contains(got, "tcp(localhost:3306)/db") {
		t.Fatalf("address should survive, got: %s", got)
	}
}

func TestSanitizeDSNEmptyPassword(t *testing.T) {
	got := sanitizeDSN("app:@tcp(localhost:3306)/db")
	if !strings.HasPrefix(got, "app:***@") {
		t.Fatalf("empty password should still be masked, got: %s", got)
	}
}
