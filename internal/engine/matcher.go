package engine

import (
	"strings"

	"paramcheck/internal/switchgroup"
)

// SwitchMismatch is one switch whose live state differs from the expected state.
type SwitchMismatch struct {
	Switch   string `json:"switch" yaml:"switch"`
	Current  string `json:"current" yaml:"current"`
	Expected string `json:"expected" yaml:"expected"`

	// Description comes from the parameter's value_description, when it names the switch.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MultiMatch is the outcome of MatchMultiple.
type MultiMatch struct {
	OK         bool
	Mismatches []SwitchMismatch
}

// MatchSingle compares a single-value parameter after trimming both sides.
func MatchSingle(current, expected string) bool {
	return strings.TrimSpace(current) == strings.TrimSpace(expected)
}

// MatchMultiple decodes current and checks every switch named in expected,
// in expected order. Switches absent from current compare as "". Switches
// present only in current are ignored.
func MatchMultiple(current string, expected *switchgroup.StateMap) MultiMatch {
	actual := switchgroup.Decode(current)
	result := MultiMatch{OK: true}
	for _, name := range expected.Names() {
		want, _ := expected.Get(name)
		got, _ := actual.Get(name)
		if got != want {
			result.OK = false
			result.Mismatches = append(result.Mismatches, SwitchMismatch{Switch: name, Current: got, Expected: want})
		}
	}
	return result
}
