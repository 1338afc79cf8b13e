package metadata

import (
	"fmt"
	"strings"

	"paramcheck/internal/condition"
	"paramcheck/internal/switchgroup"
)

type ValidationType string

const (
	ValidationMisconfigured ValidationType = "misconfigured"
	ValidationMissing       ValidationType = "missing"
)

// ParseValidationType accepts the English names and the workbook labels 错配 / 漏配.
func ParseValidationType(text string) (ValidationType, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "misconfigured", "错配":
		return ValidationMisconfigured, nil
	case "missing", "漏配":
		return ValidationMissing, nil
	}
	return "", fmt.Errorf("unknown validation type %q", text)
}

// ValidationRule is one row of the rule table.
type ValidationRule struct {
	ID              string         `json:"rule_id" yaml:"rule_id"`
	MOName          string         `json:"mo_name" yaml:"mo_name"`
	Type            ValidationType `json:"validation_type" yaml:"validation_type"`
	Parameters      []string       `json:"parameter_combination" yaml:"parameter_combination"`
	ExpectedValue   string         `json:"expected_value" yaml:"expected_value"`
	FilterCondition string         `json:"filter_condition,omitempty" yaml:"filter_condition,omitempty"`
	LogicRelation   string         `json:"logic_relation,omitempty" yaml:"logic_relation,omitempty"`
	ExecutionOrder  int            `json:"execution_order" yaml:"execution_order"`
	NextRule        string         `json:"next_rule,omitempty" yaml:"next_rule,omitempty"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`

	// Resolved by NewRegistry, not serialized.
	Filter    *condition.Expression `json:"-" yaml:"-"`
	FilterErr error                 `json:"-" yaml:"-"`
	Checks    []ParameterCheck      `json:"-" yaml:"-"`
	Next      *ValidationRule       `json:"-" yaml:"-"`

	loadIndex int
}

// ParameterCheck pairs a combination member with its definition and expected value.
// Definition is nil when the parameter is not defined for the MO.
type ParameterCheck struct {
	Name             string
	Definition       *ParameterDefinition
	Expected         string
	ExpectedSwitches *switchgroup.StateMap
}

// Combination renders the parameter combination the way the rule table stores it.
func (r *ValidationRule) Combination() string {
	return strings.Join(r.Parameters, "&")
}

// SplitCombination parses "a&b" into trimmed, non-empty parameter names.
func SplitCombination(text string) []string {
	var names []string
	for _, part := range strings.Split(text, "&") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// expectedValues returns one expected value per parameter. A multi-parameter
// combination splits the expected value on '&' when the parts line up with
// the parameters; otherwise every parameter is compared to the whole value.
func expectedValues(params []string, expected string) []string {
	values := make([]string, len(params))
	if len(params) > 1 {
		parts := strings.Split(expected, "&")
		if len(parts) == len(params) {
			for i, part := range parts {
				values[i] = strings.TrimSpace(part)
			}
			return values
		}
	}
	for i := range values {
		values[i] = strings.TrimSpace(expected)
	}
	return values
}
