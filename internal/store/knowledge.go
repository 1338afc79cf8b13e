package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"paramcheck/internal/metadata"
)

// SaveKnowledgeBase replaces the contents of the knowledge-base tables in a
// single transaction. Row order is kept in the position column so that
// execution-order ties load back in the same order.
func SaveKnowledgeBase(ctx context.Context, s *Store, params []*metadata.ParameterDefinition, rules []*metadata.ValidationRule) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := Exec(ctx, tx, "DELETE FROM _validation_rules"); err != nil {
		return err
	}
	if _, err := Exec(ctx, tx, "DELETE FROM _mo_parameters"); err != nil {
		return err
	}

	for i, p := range params {
		pb := s.Dialect.NewParamBuilder()
		values := []any{p.MOName, p.Name, p.MODescription, p.Scenario, p.ID, string(p.Type), p.Meaning, p.ValueDescription, i}
		sqlStr := fmt.Sprintf(`INSERT INTO _mo_parameters
			(mo_name, parameter_name, mo_description, scenario, parameter_id, parameter_type, parameter_meaning, value_description, position)
			VALUES (%s)`, placeholders(pb, values))
		if _, err := Exec(ctx, tx, sqlStr, pb.Params()...); err != nil {
			return fmt.Errorf("insert parameter %s.%s: %w", p.MOName, p.Name, MapError(s.Dialect, err))
		}
	}

	for i, r := range rules {
		pb := s.Dialect.NewParamBuilder()
		values := []any{r.ID, r.MOName, string(r.Type), r.Combination(), r.ExpectedValue, r.FilterCondition,
			r.LogicRelation, r.ExecutionOrder, r.NextRule, r.Description, i}
		sqlStr := fmt.Sprintf(`INSERT INTO _validation_rules
			(rule_id, mo_name, validation_type, parameter_combination, expected_value, filter_condition,
			 logic_relation, execution_order, next_rule, description, position)
			VALUES (%s)`, placeholders(pb, values))
		if _, err := Exec(ctx, tx, sqlStr, pb.Params()...); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID, MapError(s.Dialect, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("Imported %d parameters, %d rules", len(params), len(rules))
	return nil
}

// ErrEmptyKnowledgeBase is returned when nothing has been imported yet.
var ErrEmptyKnowledgeBase = errors.New("knowledge base is empty, run kb import first")

// LoadKnowledgeBase builds a Registry from the knowledge-base tables.
func LoadKnowledgeBase(ctx context.Context, s *Store) (*metadata.Registry, error) {
	for _, table := range []string{"_mo_parameters", "_validation_rules"} {
		exists, err := s.Dialect.TableExists(ctx, s.DB, table)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			return nil, fmt.Errorf("table %s missing: %w", table, ErrEmptyKnowledgeBase)
		}
	}
	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS n FROM _validation_rules")
	if err != nil {
		return nil, fmt.Errorf("count rules: %w", err)
	}
	if n, ok := row["n"].(int64); ok && n == 0 {
		return nil, ErrEmptyKnowledgeBase
	}
	return metadata.LoadAll(ctx, s.DB)
}

func placeholders(pb ParamBuilder, values []any) string {
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = pb.Add(v)
	}
	return strings.Join(phs, ", ")
}
