package metadata

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"paramcheck/internal/condition"
	"paramcheck/internal/switchgroup"
)

// MORules is the ordered rule set of one managed object.
// ChainErr is a *CyclicRuleChainError when the set contains a next_rule loop.
type MORules struct {
	Name     string
	Rules    []*ValidationRule
	ChainErr error
}

// Registry is the validated, read-only knowledge base. It is built once by
// NewRegistry and is safe to share between goroutines.
type Registry struct {
	parameters    map[parameterKey]*ParameterDefinition
	parameterList []*ParameterDefinition
	rules         map[string]*ValidationRule
	ruleList      []*ValidationRule
	mos           map[string]*MORules
	moNames       []string
	warnings      []error
}

// NewRegistry validates the parameter and rule tables and freezes them.
// The inputs are copied. Schema violations are fatal and reported together
// in an error wrapping ErrInvalidKnowledgeBase. Unknown parameters, bad
// filters and chain cycles are kept as warnings for the engine to report.
func NewRegistry(params []*ParameterDefinition, rules []*ValidationRule) (*Registry, error) {
	reg := &Registry{
		parameters: make(map[parameterKey]*ParameterDefinition, len(params)),
		rules:      make(map[string]*ValidationRule, len(rules)),
		mos:        make(map[string]*MORules),
	}
	var errs []error

	for i, in := range params {
		p := *in
		p.MOName = strings.TrimSpace(p.MOName)
		p.Name = strings.TrimSpace(p.Name)
		if p.MOName == "" || p.Name == "" {
			errs = append(errs, fmt.Errorf("parameter #%d: mo_name and parameter_name are required", i+1))
			continue
		}
		kind, err := ParseParameterType(string(p.Type))
		if err != nil {
			errs = append(errs, fmt.Errorf("parameter %s.%s: %w", p.MOName, p.Name, err))
			continue
		}
		p.Type = kind
		key := parameterKey{mo: p.MOName, name: p.Name}
		if _, exists := reg.parameters[key]; exists {
			errs = append(errs, fmt.Errorf("parameter %s.%s: duplicate definition", p.MOName, p.Name))
			continue
		}
		if p.IsMultiple() {
			p.Switches = switchgroup.DescribeSwitches(p.ValueDescription)
		}
		reg.parameters[key] = &p
		reg.parameterList = append(reg.parameterList, &p)
	}

	for i, in := range rules {
		r := *in
		r.loadIndex = i
		r.ID = strings.TrimSpace(r.ID)
		r.MOName = strings.TrimSpace(r.MOName)
		r.NextRule = strings.TrimSpace(r.NextRule)
		if r.ID == "" || r.MOName == "" {
			errs = append(errs, fmt.Errorf("rule #%d: rule_id and mo_name are required", i+1))
			continue
		}
		if _, exists := reg.rules[r.ID]; exists {
			errs = append(errs, fmt.Errorf("rule %s: duplicate rule id", r.ID))
			continue
		}
		kind, err := ParseValidationType(string(r.Type))
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.ID, err))
			continue
		}
		r.Type = kind
		if r.Type == ValidationMisconfigured && len(r.Parameters) == 0 {
			errs = append(errs, fmt.Errorf("rule %s: empty parameter combination", r.ID))
			continue
		}
		reg.resolveRule(&r)
		reg.rules[r.ID] = &r
		reg.ruleList = append(reg.ruleList, &r)
	}

	for _, r := range reg.ruleList {
		if r.NextRule == "" {
			continue
		}
		next, ok := reg.rules[r.NextRule]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("rule %s: next_rule %s does not exist", r.ID, r.NextRule))
		case next.MOName != r.MOName:
			errs = append(errs, fmt.Errorf("rule %s: next_rule %s belongs to %s, not %s", r.ID, next.ID, next.MOName, r.MOName))
		default:
			r.Next = next
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKnowledgeBase, errors.Join(errs...))
	}

	for _, r := range reg.ruleList {
		set, ok := reg.mos[r.MOName]
		if !ok {
			set = &MORules{Name: r.MOName}
			reg.mos[r.MOName] = set
			reg.moNames = append(reg.moNames, r.MOName)
		}
		set.Rules = append(set.Rules, r)
	}
	sort.Strings(reg.moNames)
	for _, name := range reg.moNames {
		set := reg.mos[name]
		sort.SliceStable(set.Rules, func(i, j int) bool {
			return set.Rules[i].ExecutionOrder < set.Rules[j].ExecutionOrder
		})
		if cycle := findCycle(set.Rules); cycle != nil {
			set.ChainErr = &CyclicRuleChainError{MOName: name, Chain: cycle}
			reg.warnings = append(reg.warnings, set.ChainErr)
			log.Printf("WARN: %v", set.ChainErr)
		}
	}
	sort.SliceStable(reg.ruleList, func(i, j int) bool {
		a, b := reg.ruleList[i], reg.ruleList[j]
		if a.MOName != b.MOName {
			return a.MOName < b.MOName
		}
		return a.ExecutionOrder < b.ExecutionOrder
	})
	return reg, nil
}

// resolveRule parses the filter and binds every combination member to its definition.
func (reg *Registry) resolveRule(r *ValidationRule) {
	r.Parameters = append([]string(nil), r.Parameters...)
	for i := range r.Parameters {
		r.Parameters[i] = strings.TrimSpace(r.Parameters[i])
	}
	r.Filter, r.FilterErr = condition.Parse(r.FilterCondition)
	if r.FilterErr != nil {
		reg.warnings = append(reg.warnings, fmt.Errorf("rule %s: %w", r.ID, r.FilterErr))
	}
	expected := expectedValues(r.Parameters, r.ExpectedValue)
	r.Checks = make([]ParameterCheck, len(r.Parameters))
	for i, name := range r.Parameters {
		check := ParameterCheck{Name: name, Expected: expected[i]}
		check.Definition = reg.parameters[parameterKey{mo: r.MOName, name: name}]
		if check.Definition == nil && r.Type == ValidationMisconfigured {
			reg.warnings = append(reg.warnings, &UnknownParameterError{MOName: r.MOName, RuleID: r.ID, Parameter: name})
		}
		if check.Definition != nil && check.Definition.IsMultiple() {
			check.ExpectedSwitches = switchgroup.Decode(check.Expected)
		}
		r.Checks[i] = check
	}
	if w := positionalWarning(r); w != nil {
		log.Printf("WARN: %v", w)
		reg.warnings = append(reg.warnings, w)
	}
}

// positionalWarning flags a combination with a switch-group member whose
// expected value cannot be split one part per parameter. Every parameter is
// then compared with the whole value, which a single-value member never matches.
func positionalWarning(r *ValidationRule) error {
	if r.Type != ValidationMisconfigured || len(r.Checks) < 2 {
		return nil
	}
	if parts := len(strings.Split(r.ExpectedValue, "&")); parts == len(r.Checks) {
		return nil
	}
	for _, check := range r.Checks {
		if check.Definition != nil && check.Definition.IsMultiple() {
			return fmt.Errorf("rule %s: expected value %q does not split into one part per parameter of %s; switch group %s is compared with the whole value",
				r.ID, r.ExpectedValue, r.Combination(), check.Name)
		}
	}
	return nil
}

// findCycle follows next_rule links from every rule and returns the first
// loop found, or nil. Each rule has at most one successor.
func findCycle(rules []*ValidationRule) []string {
	done := make(map[*ValidationRule]bool, len(rules))
	for _, start := range rules {
		onPath := map[*ValidationRule]int{}
		var path []*ValidationRule
		for r := start; r != nil && !done[r]; r = r.Next {
			if at, seen := onPath[r]; seen {
				var chain []string
				for _, member := range path[at:] {
					chain = append(chain, member.ID)
				}
				return append(chain, r.ID)
			}
			onPath[r] = len(path)
			path = append(path, r)
		}
		for _, r := range path {
			done[r] = true
		}
	}
	return nil
}

// Parameter returns the definition of (mo, name), or nil.
func (reg *Registry) Parameter(mo, name string) *ParameterDefinition {
	return reg.parameters[parameterKey{mo: mo, name: name}]
}

// Parameters returns every definition in load order.
func (reg *Registry) Parameters() []*ParameterDefinition {
	return append([]*ParameterDefinition(nil), reg.parameterList...)
}

// Rule returns a rule by id, or nil.
func (reg *Registry) Rule(id string) *ValidationRule {
	return reg.rules[id]
}

// Rules returns every rule ordered by MO name and execution order.
func (reg *Registry) Rules() []*ValidationRule {
	return append([]*ValidationRule(nil), reg.ruleList...)
}

// RulesForMO returns the rule set of an MO, or nil if it has no rules.
func (reg *Registry) RulesForMO(mo string) *MORules {
	return reg.mos[mo]
}

// MONames returns the sorted names of all MOs that have rules.
func (reg *Registry) MONames() []string {
	return append([]string(nil), reg.moNames...)
}

// Warnings returns the non-fatal problems found at load time.
func (reg *Registry) Warnings() []error {
	return append([]error(nil), reg.warnings...)
}
