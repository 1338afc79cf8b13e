package engine

import (
	"testing"

	"paramcheck/internal/switchgroup"
)

func TestMatchSingle(t *testing.T) {
	if !MatchSingle(" 8000 ", "8000") {
		t.Fatal("expected trimmed values to match")
	}
	if MatchSingle("4000", "8000") {
		t.Fatal("expected 4000 != 8000")
	}
	if MatchSingle("8000.0", "8000") {
		t.Fatal("single match is a string comparison")
	}
}

func TestMatchMultiple_ExtraSwitchesIgnored(t *testing.T) {
	expected := switchgroup.NewStateMap()
	expected.Set("sw1", "on")

	m := MatchMultiple("sw1:on&sw2:off", expected)
	if !m.OK || len(m.Mismatches) != 0 {
		t.Fatalf("expected ok with no mismatches, got %+v", m)
	}
}

func TestMatchMultiple_ReportsMismatch(t *testing.T) {
	expected := switchgroup.NewStateMap()
	expected.Set("sw1", "on")

	m := MatchMultiple("sw1:off", expected)
	if m.OK {
		t.Fatal("expected mismatch")
	}
	if len(m.Mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(m.Mismatches))
	}
	if got := m.Mismatches[0]; got != (SwitchMismatch{Switch: "sw1", Current: "off", Expected: "on"}) {
		t.Fatalf("unexpected mismatch %+v", got)
	}
}

func TestMatchMultiple_AllMismatchesInExpectedOrder(t *testing.T) {
	expected := switchgroup.Decode("c:on&a:on&b:off")

	m := MatchMultiple("a:off;b:off", expected)
	if m.OK || len(m.Mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %+v", m)
	}
	if m.Mismatches[0].Switch != "c" || m.Mismatches[0].Current != "" {
		t.Fatalf("expected missing switch c first, got %+v", m.Mismatches[0])
	}
	if m.Mismatches[1].Switch != "a" || m.Mismatches[1].Current != "off" {
		t.Fatalf("expected a second, got %+v", m.Mismatches[1])
	}
}

func TestMatchMultiple_NoExpectations(t *testing.T) {
	if m := MatchMultiple("a:off", nil); !m.OK {
		t.Fatalf("expected ok for empty expectations, got %+v", m)
	}
}
