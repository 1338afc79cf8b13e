package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError_PG_UniqueViolation(t *testing.T) {
	dialect := &PostgresDialect{}
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint \"_validation_rules_pkey\"",
		ConstraintName: "_validation_rules_pkey",
		Detail:         "Key (rule_id)=(RULE001) already exists.",
	}
	wrapped := fmt.Errorf("exec: %w", pgErr)

	mapped := MapError(dialect, wrapped)

	if !errors.Is(mapped, ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got: %v", mapped)
	}

	// Original pgconn.PgError should still be extractable
	var extracted *pgconn.PgError
	if !errors.As(mapped, &extracted) {
		t.Fatal("expected pgconn.PgError to still be extractable via errors.As")
	}
	if extracted.ConstraintName != "_validation_rules_pkey" {
		t.Fatalf("expected constraint name '_validation_rules_pkey', got: %s", extracted.ConstraintName)
	}
}

func TestMapError_PG_OtherError(t *testing.T) {
	dialect := &PostgresDialect{}
	err := fmt.Errorf("some other error")
	mapped := MapError(dialect, err)
	if mapped != err {
		t.Fatalf("expected same error back, got: %v", mapped)
	}
}

func TestMapError_PG_Nil(t *testing.T) {
	dialect := &PostgresDialect{}
	mapped := MapError(dialect, nil)
	if mapped != nil {
		t.Fatalf("expected nil, got: %v", mapped)
	}
}

func TestParamBuilders(t *testing.T) {
	pg := NewDialect("postgres").NewParamBuilder()
	if got := placeholders(pg, []any{"a", "b", 3}); got != "$1, $2, $3" {
		t.Fatalf("unexpected postgres placeholders: %s", got)
	}
	lite := NewDialect("sqlite").NewParamBuilder()
	if got := placeholders(lite, []any{"a", "b"}); got != "?1, ?2" {
		t.Fatalf("unexpected sqlite placeholders: %s", got)
	}
	if lite.Count() != 2 || len(lite.Params()) != 2 {
		t.Fatalf("expected 2 params, got %d", lite.Count())
	}
}
