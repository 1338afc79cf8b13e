package engine

import (
	"fmt"
	"strings"

	"paramcheck/internal/metadata"
)

type ErrorType string

const (
	ErrorMisconfigured ErrorType = "misconfigured"
	ErrorMissing       ErrorType = "missing"
	ErrorDataAbsent    ErrorType = "data_absent"
)

// SystemRuleID is the rule id of records not produced by a knowledge-base rule.
const SystemRuleID = "SYSTEM"

// ParameterMismatch is one parameter of a combination that failed its check.
// For switch groups, Current and Expected list only the differing switches.
type ParameterMismatch struct {
	Parameter   string           `json:"parameter" yaml:"parameter"`
	ParameterID string           `json:"parameter_id" yaml:"parameter_id"`
	Current     string           `json:"current" yaml:"current"`
	Expected    string           `json:"expected" yaml:"expected"`
	Meaning     string           `json:"meaning,omitempty" yaml:"meaning,omitempty"`
	Switches    []SwitchMismatch `json:"switches,omitempty" yaml:"switches,omitempty"`
	Command     string           `json:"command" yaml:"command"`
}

// ErrorRecord is one finding of an evaluation pass.
type ErrorRecord struct {
	SectorID      string              `json:"sector_id" yaml:"sector_id"`
	MOName        string              `json:"mo_name" yaml:"mo_name"`
	RuleID        string              `json:"rule_id" yaml:"rule_id"`
	Type          ErrorType           `json:"error_type" yaml:"error_type"`
	Row           *RowKey             `json:"row,omitempty" yaml:"row,omitempty"`
	Parameters    []string            `json:"parameter_names,omitempty" yaml:"parameter_names,omitempty"`
	CurrentValue  string              `json:"current_value" yaml:"current_value"`
	ExpectedValue string              `json:"expected_value" yaml:"expected_value"`
	Description   string              `json:"description,omitempty" yaml:"description,omitempty"`
	Message       string              `json:"message" yaml:"message"`
	Details       []ParameterMismatch `json:"details,omitempty" yaml:"details,omitempty"`
	Mismatches    []SwitchMismatch    `json:"mismatches,omitempty" yaml:"mismatches,omitempty"`
	Command       string              `json:"command,omitempty" yaml:"command,omitempty"`
}

// RowResult is the verdict of one misconfigured rule on one row. Rows the
// filter excluded are valid with Matched false.
type RowResult struct {
	RuleID  string       `json:"rule_id" yaml:"rule_id"`
	Row     RowKey       `json:"row" yaml:"row"`
	Matched bool         `json:"matched" yaml:"matched"`
	Valid   bool         `json:"valid" yaml:"valid"`
	Error   *ErrorRecord `json:"error,omitempty" yaml:"error,omitempty"`
	Command string       `json:"command,omitempty" yaml:"command,omitempty"`
}

// MOResult collects everything one MO pass produced.
type MOResult struct {
	SectorID    string        `json:"sector_id" yaml:"sector_id"`
	MOName      string        `json:"mo_name" yaml:"mo_name"`
	Executed    []string      `json:"executed_rules,omitempty" yaml:"executed_rules,omitempty"`
	Rows        []RowResult   `json:"rows,omitempty" yaml:"rows,omitempty"`
	Errors      []ErrorRecord `json:"errors,omitempty" yaml:"errors,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// SectorResult is the outcome of evaluating every MO of one sector.
type SectorResult struct {
	SectorID string      `json:"sector_id" yaml:"sector_id"`
	MOs      []*MOResult `json:"mos" yaml:"mos"`
}

// Errors returns the records of all MOs in evaluation order.
func (s *SectorResult) Errors() []ErrorRecord {
	var records []ErrorRecord
	for _, mo := range s.MOs {
		records = append(records, mo.Errors...)
	}
	return records
}

// Commands returns the corrective commands of all flagged rows.
func (s *SectorResult) Commands() []string {
	var commands []string
	for _, record := range s.Errors() {
		if record.Command != "" {
			commands = append(commands, record.Command)
		}
	}
	return commands
}

func (s *SectorResult) Diagnostics() []Diagnostic {
	var diagnostics []Diagnostic
	for _, mo := range s.MOs {
		diagnostics = append(diagnostics, mo.Diagnostics...)
	}
	return diagnostics
}

// SingleCommand renders MOD <mo>:<id>=<expected>;
func SingleCommand(moName, parameterID, expected string) string {
	return fmt.Sprintf("MOD %s:%s=%s;", moName, parameterID, expected)
}

// SwitchCommand renders MOD <mo>:<id>=<sw>=<state>;... for the given switches only.
func SwitchCommand(moName, parameterID string, mismatches []SwitchMismatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MOD %s:%s=", moName, parameterID)
	for _, m := range mismatches {
		fmt.Fprintf(&b, "%s=%s;", m.Switch, m.Expected)
	}
	return b.String()
}

func singleMismatch(moName string, check metadata.ParameterCheck, current string) ParameterMismatch {
	id := check.Definition.CommandID()
	return ParameterMismatch{
		Parameter:   check.Name,
		ParameterID: id,
		Current:     current,
		Expected:    check.Expected,
		Meaning:     check.Definition.Meaning,
		Command:     SingleCommand(moName, id, check.Expected),
	}
}

func switchMismatch(moName string, check metadata.ParameterCheck, mismatches []SwitchMismatch) ParameterMismatch {
	id := check.Definition.CommandID()
	current := make([]string, len(mismatches))
	expected := make([]string, len(mismatches))
	described := make([]SwitchMismatch, len(mismatches))
	for i, m := range mismatches {
		m.Description = check.Definition.Switches[m.Switch]
		described[i] = m
		current[i] = m.Switch + ":" + m.Current
		expected[i] = m.Switch + ":" + m.Expected
	}
	return ParameterMismatch{
		Parameter:   check.Name,
		ParameterID: id,
		Current:     strings.Join(current, "&"),
		Expected:    strings.Join(expected, "&"),
		Meaning:     check.Definition.Meaning,
		Switches:    described,
		Command:     SwitchCommand(moName, id, described),
	}
}

// misconfiguredRecord aggregates every mismatched parameter of a row into one record.
func misconfiguredRecord(sectorID string, rule *metadata.ValidationRule, key RowKey, details []ParameterMismatch) ErrorRecord {
	record := ErrorRecord{
		SectorID:    sectorID,
		MOName:      rule.MOName,
		RuleID:      rule.ID,
		Type:        ErrorMisconfigured,
		Row:         &key,
		Description: rule.Description,
		Details:     details,
	}
	var current, expected, commands []string
	for _, d := range details {
		record.Parameters = append(record.Parameters, d.Parameter)
		record.Mismatches = append(record.Mismatches, d.Switches...)
		current = append(current, d.Current)
		expected = append(expected, d.Expected)
		commands = append(commands, d.Command)
	}
	record.CurrentValue = strings.Join(current, "&")
	record.ExpectedValue = strings.Join(expected, "&")
	record.Command = strings.Join(commands, "\n")
	record.Message = fmt.Sprintf("parameter misconfigured: %s", strings.Join(record.Parameters, "&"))
	return record
}

func missingRecord(sectorID string, rule *metadata.ValidationRule) ErrorRecord {
	message := "no row configured"
	if !rule.Filter.IsEmpty() {
		message = fmt.Sprintf("no row satisfies filter: %s", rule.Filter)
	}
	return ErrorRecord{
		SectorID:      sectorID,
		MOName:        rule.MOName,
		RuleID:        rule.ID,
		Type:          ErrorMissing,
		Parameters:    rule.Parameters,
		ExpectedValue: rule.ExpectedValue,
		Description:   rule.Description,
		Message:       message,
	}
}

func dataAbsentRecord(sectorID, moName string) ErrorRecord {
	return ErrorRecord{
		SectorID:    sectorID,
		MOName:      moName,
		RuleID:      SystemRuleID,
		Type:        ErrorDataAbsent,
		Description: fmt.Sprintf("no %s data for sector", moName),
		Message:     fmt.Sprintf("MO %s has no data", moName),
	}
}
