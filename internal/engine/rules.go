package engine

import (
	"fmt"
	"log"
	"strings"

	"paramcheck/internal/metadata"
)

// Evaluator applies the knowledge-base rules to MO data. It holds no
// mutable state and can be shared between goroutines.
type Evaluator struct {
	reg *metadata.Registry
}

func NewEvaluator(reg *metadata.Registry) *Evaluator {
	return &Evaluator{reg: reg}
}

// EvaluateSector runs every MO that has rules against the sector's data.
// MOs present in data without rules are ignored.
func (e *Evaluator) EvaluateSector(sectorID string, data Dataset) *SectorResult {
	result := &SectorResult{SectorID: sectorID}
	for _, moName := range e.reg.MONames() {
		rows, present := data[moName]
		result.MOs = append(result.MOs, e.EvaluateMO(sectorID, moName, rows, present))
	}
	return result
}

// EvaluateMO runs one MO's rules in execution order. Each rule runs at most
// once; after a rule runs, its next_rule chain runs immediately. present is
// false when the sector has no data for the MO, which yields a single
// data_absent record instead.
func (e *Evaluator) EvaluateMO(sectorID, moName string, rows []Row, present bool) *MOResult {
	result := &MOResult{SectorID: sectorID, MOName: moName}
	set := e.reg.RulesForMO(moName)
	if set == nil || len(set.Rules) == 0 {
		return result
	}
	if !present {
		result.Errors = append(result.Errors, dataAbsentRecord(sectorID, moName))
		return result
	}
	if set.ChainErr != nil {
		result.diagnose(DiagnosticCyclicRuleChain, "", set.ChainErr.Error())
		return result
	}

	pass := &rulePass{sectorID: sectorID, rows: rows, result: result, executed: map[*metadata.ValidationRule]bool{}}
	for _, rule := range set.Rules {
		if pass.executed[rule] {
			continue
		}
		if err := pass.runChain(rule); err != nil {
			result.diagnose(DiagnosticCyclicRuleChain, rule.ID, err.Error())
			return result
		}
	}
	return result
}

type rulePass struct {
	sectorID string
	rows     []Row
	result   *MOResult
	executed map[*metadata.ValidationRule]bool
}

// runChain runs start and then follows next_rule links until it reaches the
// end of the chain or a rule that already ran. Returning to a rule of the
// same chain is reported as a cycle.
func (p *rulePass) runChain(start *metadata.ValidationRule) error {
	var chain []string
	onChain := map[*metadata.ValidationRule]bool{}
	for rule := start; rule != nil; rule = rule.Next {
		chain = append(chain, rule.ID)
		if onChain[rule] {
			return &metadata.CyclicRuleChainError{MOName: rule.MOName, Chain: chain}
		}
		onChain[rule] = true
		if p.executed[rule] {
			return nil
		}
		p.executed[rule] = true
		p.run(rule)
	}
	return nil
}

func (p *rulePass) run(rule *metadata.ValidationRule) {
	p.result.Executed = append(p.result.Executed, rule.ID)
	if rule.FilterErr != nil {
		p.result.diagnose(DiagnosticMalformedCondition, rule.ID, rule.FilterErr.Error())
	}

	switch rule.Type {
	case metadata.ValidationMissing:
		for _, row := range p.rows {
			if rule.Filter.Evaluate(row.Values) {
				return
			}
		}
		p.result.Errors = append(p.result.Errors, missingRecord(p.sectorID, rule))

	case metadata.ValidationMisconfigured:
		for _, check := range rule.Checks {
			if check.Definition == nil {
				p.result.diagnose(DiagnosticUnknownParameter, rule.ID,
					fmt.Sprintf("parameter %s is not defined for %s, skipped", check.Name, rule.MOName))
			}
		}
		for _, row := range p.rows {
			p.result.Rows = append(p.result.Rows, p.checkRow(rule, row))
		}
	}
}

func (p *rulePass) checkRow(rule *metadata.ValidationRule, row Row) RowResult {
	verdict := RowResult{RuleID: rule.ID, Row: row.Key, Valid: true}
	if !rule.Filter.Evaluate(row.Values) {
		return verdict
	}
	verdict.Matched = true

	var details []ParameterMismatch
	for _, check := range rule.Checks {
		if check.Definition == nil {
			continue
		}
		current := strings.TrimSpace(row.Values[check.Name])
		if check.Definition.IsMultiple() {
			if m := MatchMultiple(current, check.ExpectedSwitches); !m.OK {
				details = append(details, switchMismatch(rule.MOName, check, m.Mismatches))
			}
			continue
		}
		if !MatchSingle(current, check.Expected) {
			details = append(details, singleMismatch(rule.MOName, check, current))
		}
	}
	if len(details) == 0 {
		return verdict
	}

	record := misconfiguredRecord(p.sectorID, rule, row.Key, details)
	p.result.Errors = append(p.result.Errors, record)
	verdict.Valid = false
	verdict.Error = &record
	verdict.Command = record.Command
	return verdict
}

func (r *MOResult) diagnose(kind DiagnosticKind, ruleID, message string) {
	d := Diagnostic{Kind: kind, MOName: r.MOName, RuleID: ruleID, Message: message}
	log.Printf("WARN: sector %s: %s", r.SectorID, d)
	r.Diagnostics = append(r.Diagnostics, d)
}
