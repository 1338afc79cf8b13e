package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Querier is implemented by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadAll reads the parameter and rule tables and builds a Registry from them.
func LoadAll(ctx context.Context, q Querier) (*Registry, error) {
	params, err := loadParameters(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}

	rules, err := loadRules(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	reg, err := NewRegistry(params, rules)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d parameters, %d rules for %d MOs into registry",
		len(params), len(rules), len(reg.moNames))
	return reg, nil
}

func loadParameters(ctx context.Context, q Querier) ([]*ParameterDefinition, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT mo_name, mo_description, scenario, parameter_name, parameter_id,
		        parameter_type, parameter_meaning, value_description
		   FROM _mo_parameters ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []*ParameterDefinition
	for rows.Next() {
		var p ParameterDefinition
		var kind string
		if err := rows.Scan(&p.MOName, &p.MODescription, &p.Scenario, &p.Name, &p.ID,
			&kind, &p.Meaning, &p.ValueDescription); err != nil {
			return nil, fmt.Errorf("scan parameter row: %w", err)
		}
		p.Type = ParameterType(kind)
		params = append(params, &p)
	}
	return params, rows.Err()
}

func loadRules(ctx context.Context, q Querier) ([]*ValidationRule, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT rule_id, mo_name, validation_type, parameter_combination, expected_value,
		        filter_condition, logic_relation, execution_order, next_rule, description
		   FROM _validation_rules ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*ValidationRule
	for rows.Next() {
		var r ValidationRule
		var kind, combination string
		if err := rows.Scan(&r.ID, &r.MOName, &kind, &combination, &r.ExpectedValue,
			&r.FilterCondition, &r.LogicRelation, &r.ExecutionOrder, &r.NextRule, &r.Description); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		r.Type = ValidationType(kind)
		r.Parameters = SplitCombination(combination)
		rules = append(rules, &r)
	}
	return rules, rows.Err()
}
