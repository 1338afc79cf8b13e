package store

import (
	"context"
	"errors"
	"testing"

	"paramcheck/internal/config"
	"paramcheck/internal/metadata"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "kb"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestBootstrap_CreatesTables(t *testing.T) {
	s := newTestStore(t)
	for _, table := range []string{"_mo_parameters", "_validation_rules", "_events"} {
		exists, err := s.Dialect.TableExists(context.Background(), s.DB, table)
		if err != nil {
			t.Fatalf("table exists %s: %v", table, err)
		}
		if !exists {
			t.Fatalf("expected table %s", table)
		}
	}
	// idempotent
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
}

func TestKnowledgeBase_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := SaveKnowledgeBase(ctx, s, metadata.SampleParameters(), metadata.SampleRules()); err != nil {
		t.Fatalf("save: %v", err)
	}
	reg, err := LoadKnowledgeBase(ctx, s)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(reg.Parameters()) != 5 || len(reg.Rules()) != 6 {
		t.Fatalf("unexpected sizes: %d parameters, %d rules", len(reg.Parameters()), len(reg.Rules()))
	}
	rule := reg.Rule("RULE005")
	if rule == nil || rule.Type != metadata.ValidationMissing {
		t.Fatalf("unexpected RULE005: %+v", rule)
	}
	if len(rule.Parameters) != 2 || rule.Parameters[1] != "载波频点" {
		t.Fatalf("expected combination to round-trip, got %v", rule.Parameters)
	}
	if rule.Next != reg.Rule("RULE006") {
		t.Fatal("expected RULE005 -> RULE006")
	}
	if p := reg.Parameter("NRCELLALGOSWITCH", "异频切换算法开关"); p == nil || !p.IsMultiple() {
		t.Fatalf("expected multiple-type parameter, got %+v", p)
	}

	// a second import replaces the tables
	if err := SaveKnowledgeBase(ctx, s, metadata.SampleParameters()[:1], metadata.SampleRules()[:1]); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS n FROM _validation_rules")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if row["n"] != int64(1) {
		t.Fatalf("expected 1 rule after re-import, got %v", row["n"])
	}
}

func TestLoadKnowledgeBase_Empty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := LoadKnowledgeBase(ctx, s); !errors.Is(err, ErrEmptyKnowledgeBase) {
		t.Fatalf("expected ErrEmptyKnowledgeBase after bootstrap, got %v", err)
	}

	bare, err := New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "bare"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer bare.Close()
	if _, err := LoadKnowledgeBase(ctx, bare); !errors.Is(err, ErrEmptyKnowledgeBase) {
		t.Fatalf("expected ErrEmptyKnowledgeBase without tables, got %v", err)
	}
}

func TestKnowledgeBase_DuplicateRuleRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rules := []*metadata.ValidationRule{
		{ID: "R1", MOName: "A", Type: metadata.ValidationMissing},
		{ID: "R1", MOName: "A", Type: metadata.ValidationMissing},
	}
	err := SaveKnowledgeBase(ctx, s, nil, rules)
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
	if _, err := QueryRow(ctx, s.DB, "SELECT rule_id FROM _validation_rules"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rolled back table, got %v", err)
	}
}
