package metadata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbook_SampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.xlsx")
	require.NoError(t, WriteSampleWorkbook(path))

	params, rules, err := ReadWorkbook(path, WorkbookOptions{})
	require.NoError(t, err)
	assert.Len(t, params, len(SampleParameters()))
	require.Len(t, rules, len(SampleRules()))

	assert.Equal(t, "InterFreqHoSwitch", params[1].ID)
	assert.Equal(t, ParameterMultiple, params[1].Type)

	// validation types are written as workbook labels and normalised on load
	assert.Equal(t, ValidationType("漏配"), rules[4].Type)
	assert.Equal(t, []string{"邻区类型", "载波频点"}, rules[4].Parameters)
	assert.Equal(t, 2, rules[3].ExecutionOrder)
	assert.Equal(t, "RULE004", rules[2].NextRule)

	reg, err := LoadWorkbook(path, WorkbookOptions{})
	require.NoError(t, err)
	assert.Equal(t, ValidationMissing, reg.Rule("RULE005").Type)
	assert.Equal(t, reg.Rule("RULE004"), reg.Rule("RULE003").Next)
}

func TestWorkbook_EnglishHeadersAndFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "english.xlsx")
	file := excelize.NewFile()
	require.NoError(t, file.SetSheetName("Sheet1", "params"))
	rows := [][]any{
		{"mo_name", "mo_description", "scenario", "parameter_name", "parameter_id", "parameter_type", "parameter_meaning", "value_description"},
		{" NRDUCELL ", "", "", "CellRadius", "CellRadius", "single", "", ""},
		{"", "", "", "", "", "", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, file.SetSheetRow("params", cell, &row))
	}
	_, err := file.NewSheet("rules")
	require.NoError(t, err)
	ruleRows := [][]any{
		{"rule_id", "mo_name", "validation_type", "parameter_combination", "expected_value", "filter_condition", "logic_relation", "execution_order", "next_rule", "description"},
		{"R1", "NRDUCELL", "misconfigured", "CellRadius", "8000", "", "AND", "first", "", ""},
	}
	for i, row := range ruleRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, file.SetSheetRow("rules", cell, &row))
	}
	require.NoError(t, file.SaveAs(path))
	require.NoError(t, file.Close())

	params, rules, err := ReadWorkbook(path, WorkbookOptions{ParameterSheet: "params", RuleSheet: "rules"})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "NRDUCELL", params[0].MOName)
	require.Len(t, rules, 1)
	assert.Equal(t, 1, rules[0].ExecutionOrder)
}

func TestWorkbook_Errors(t *testing.T) {
	_, _, err := ReadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"), WorkbookOptions{})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "partial.xlsx")
	file := excelize.NewFile()
	require.NoError(t, file.SetSheetName("Sheet1", ParameterSheet))
	header := []any{"MO名称", "参数名称"}
	require.NoError(t, file.SetSheetRow(ParameterSheet, "A1", &header))
	require.NoError(t, file.SaveAs(path))
	require.NoError(t, file.Close())

	_, _, err = ReadWorkbook(path, WorkbookOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "参数ID")
}
