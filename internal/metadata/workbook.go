package metadata

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Default sheet names of the knowledge-base workbook.
const (
	ParameterSheet = "参数信息"
	RuleSheet      = "校验规则"
)

// WorkbookOptions overrides the sheet names; empty fields use the defaults.
type WorkbookOptions struct {
	ParameterSheet string
	RuleSheet      string
}

func (o WorkbookOptions) parameterSheet() string {
	if o.ParameterSheet != "" {
		return o.ParameterSheet
	}
	return ParameterSheet
}

func (o WorkbookOptions) ruleSheet() string {
	if o.RuleSheet != "" {
		return o.RuleSheet
	}
	return RuleSheet
}

// column maps a field to its English and workbook header.
type column struct {
	field string
	label string
}

var parameterColumns = []column{
	{"mo_name", "MO名称"},
	{"mo_description", "MO描述"},
	{"scenario", "场景类型"},
	{"parameter_name", "参数名称"},
	{"parameter_id", "参数ID"},
	{"parameter_type", "参数类型"},
	{"parameter_meaning", "参数含义"},
	{"value_description", "值描述"},
}

var ruleColumns = []column{
	{"rule_id", "规则ID"},
	{"mo_name", "MO名称"},
	{"validation_type", "校验类型"},
	{"parameter_combination", "参数组合"},
	{"expected_value", "期望值"},
	{"filter_condition", "筛选条件"},
	{"logic_relation", "逻辑关系"},
	{"execution_order", "执行顺序"},
	{"next_rule", "后续规则"},
	{"description", "描述"},
}

// LoadWorkbook reads a knowledge-base workbook and builds a Registry from it.
func LoadWorkbook(path string, opts WorkbookOptions) (*Registry, error) {
	params, rules, err := ReadWorkbook(path, opts)
	if err != nil {
		return nil, err
	}
	return NewRegistry(params, rules)
}

// ReadWorkbook parses the parameter and rule sheets. Headers may be the
// workbook labels or the English field names. Blank rows are skipped.
func ReadWorkbook(path string, opts WorkbookOptions) ([]*ParameterDefinition, []*ValidationRule, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer file.Close()

	paramRows, err := readSheet(file, opts.parameterSheet(), parameterColumns)
	if err != nil {
		return nil, nil, err
	}
	var params []*ParameterDefinition
	for _, row := range paramRows {
		params = append(params, &ParameterDefinition{
			MOName:           row["mo_name"],
			MODescription:    row["mo_description"],
			Scenario:         row["scenario"],
			Name:             row["parameter_name"],
			ID:               row["parameter_id"],
			Type:             ParameterType(row["parameter_type"]),
			Meaning:          row["parameter_meaning"],
			ValueDescription: row["value_description"],
		})
	}

	ruleRows, err := readSheet(file, opts.ruleSheet(), ruleColumns)
	if err != nil {
		return nil, nil, err
	}
	var rules []*ValidationRule
	for _, row := range ruleRows {
		order, err := strconv.Atoi(row["execution_order"])
		if err != nil {
			order = 1
		}
		rules = append(rules, &ValidationRule{
			ID:              row["rule_id"],
			MOName:          row["mo_name"],
			Type:            ValidationType(row["validation_type"]),
			Parameters:      SplitCombination(row["parameter_combination"]),
			ExpectedValue:   row["expected_value"],
			FilterCondition: row["filter_condition"],
			LogicRelation:   row["logic_relation"],
			ExecutionOrder:  order,
			NextRule:        row["next_rule"],
			Description:     row["description"],
		})
	}
	return params, rules, nil
}

// readSheet returns the data rows of a sheet keyed by field name, with cells trimmed.
func readSheet(file *excelize.File, sheet string, columns []column) ([]map[string]string, error) {
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("sheet %s: missing header row", sheet)
	}

	index := make(map[string]int, len(columns))
	for i, header := range rows[0] {
		header = strings.TrimSpace(header)
		for _, c := range columns {
			if header == c.label || strings.EqualFold(header, c.field) {
				index[c.field] = i
			}
		}
	}
	var missing []string
	for _, c := range columns {
		if _, ok := index[c.field]; !ok {
			missing = append(missing, c.label)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("sheet %s: missing columns %s", sheet, strings.Join(missing, ", "))
	}

	var result []map[string]string
	for _, cells := range rows[1:] {
		row := make(map[string]string, len(columns))
		blank := true
		for field, i := range index {
			if i < len(cells) {
				row[field] = strings.TrimSpace(cells[i])
			}
			if row[field] != "" {
				blank = false
			}
		}
		if !blank {
			result = append(result, row)
		}
	}
	return result, nil
}

// WriteWorkbook writes the tables as a two-sheet workbook with the default labels.
func WriteWorkbook(path string, params []*ParameterDefinition, rules []*ValidationRule) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", ParameterSheet); err != nil {
		return errors.Wrap(err, "rename default sheet")
	}
	if err := writeRow(file, ParameterSheet, 1, labels(parameterColumns)); err != nil {
		return err
	}
	for i, p := range params {
		values := []any{p.MOName, p.MODescription, p.Scenario, p.Name, p.ID, string(p.Type), p.Meaning, p.ValueDescription}
		if err := writeRow(file, ParameterSheet, i+2, values); err != nil {
			return err
		}
	}

	if _, err := file.NewSheet(RuleSheet); err != nil {
		return errors.Wrapf(err, "create sheet %s", RuleSheet)
	}
	if err := writeRow(file, RuleSheet, 1, labels(ruleColumns)); err != nil {
		return err
	}
	for i, r := range rules {
		values := []any{r.ID, r.MOName, workbookLabel(r.Type), r.Combination(), r.ExpectedValue,
			r.FilterCondition, r.LogicRelation, r.ExecutionOrder, r.NextRule, r.Description}
		if err := writeRow(file, RuleSheet, i+2, values); err != nil {
			return err
		}
	}
	file.SetActiveSheet(0)

	if err := file.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

// WriteSampleWorkbook writes the sample knowledge base to path.
func WriteSampleWorkbook(path string) error {
	return WriteWorkbook(path, SampleParameters(), SampleRules())
}

func writeRow(file *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := file.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s!%s", sheet, cell)
	}
	return nil
}

func labels(columns []column) []any {
	result := make([]any, len(columns))
	for i, c := range columns {
		result[i] = c.label
	}
	return result
}

func workbookLabel(t ValidationType) string {
	switch t {
	case ValidationMisconfigured:
		return "错配"
	case ValidationMissing:
		return "漏配"
	}
	return string(t)
}
