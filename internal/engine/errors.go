package engine

import "fmt"

type DiagnosticKind string

const (
	DiagnosticMalformedCondition DiagnosticKind = "malformed_condition"
	DiagnosticCyclicRuleChain    DiagnosticKind = "cyclic_rule_chain"
	DiagnosticUnknownParameter   DiagnosticKind = "unknown_parameter"
)

// Diagnostic is a non-fatal problem met while evaluating an MO. The pass
// carries on (or, for cycles, skips the MO) and reports it alongside the records.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	MOName  string         `json:"mo_name" yaml:"mo_name"`
	RuleID  string         `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.RuleID == "" {
		return fmt.Sprintf("%s %s: %s", d.Kind, d.MOName, d.Message)
	}
	return fmt.Sprintf("%s %s/%s: %s", d.Kind, d.MOName, d.RuleID, d.Message)
}
