package engine

import (
	"strings"
	"testing"

	"paramcheck/internal/metadata"
)

func newTestEvaluator(t *testing.T, params []*metadata.ParameterDefinition, rules []*metadata.ValidationRule) *Evaluator {
	t.Helper()
	reg, err := metadata.NewRegistry(params, rules)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return NewEvaluator(reg)
}

func row(site, cell string, values map[string]string) Row {
	v := map[string]string{SiteIDColumn: site, CellIDColumn: cell}
	for k, val := range values {
		v[k] = val
	}
	return NewRow(v)
}

func TestEvaluateMO_SingleValueMismatch(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRDUCELL", Name: "CellRadius", ID: "CellRadius", Type: metadata.ParameterSingle}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRDUCELL", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"CellRadius"}, ExpectedValue: "8000", ExecutionOrder: 1}},
	)

	res := ev.EvaluateMO("S1", "NRDUCELL", []Row{row("1001", "1", map[string]string{"CellRadius": "4000"})}, true)
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(res.Errors))
	}
	rec := res.Errors[0]
	if rec.Type != ErrorMisconfigured || rec.RuleID != "R1" || rec.SectorID != "S1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.CurrentValue != "4000" || rec.ExpectedValue != "8000" {
		t.Fatalf("expected 4000 -> 8000, got %s -> %s", rec.CurrentValue, rec.ExpectedValue)
	}
	if rec.Command != "MOD NRDUCELL:CellRadius=8000;" {
		t.Fatalf("unexpected command %q", rec.Command)
	}
	if rec.Row == nil || rec.Row.SiteID != "1001" || rec.Row.CellID != "1" {
		t.Fatalf("unexpected row key %+v", rec.Row)
	}
	if len(res.Rows) != 1 || res.Rows[0].Valid || res.Rows[0].Command != rec.Command {
		t.Fatalf("unexpected row verdicts %+v", res.Rows)
	}
}

func TestEvaluateMO_SwitchGroupMismatch(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRCELLALGOSWITCH", Name: "HoSwitch", ID: "InterFreqHoSwitch", Type: metadata.ParameterMultiple}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRCELLALGOSWITCH", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"HoSwitch"}, ExpectedValue: "sw_a:on&sw_b:on"}},
	)

	res := ev.EvaluateMO("S1", "NRCELLALGOSWITCH", []Row{row("1001", "1", map[string]string{"HoSwitch": "sw_a:off&sw_b:on"})}, true)
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(res.Errors))
	}
	rec := res.Errors[0]
	if len(rec.Mismatches) != 1 || rec.Mismatches[0].Switch != "sw_a" {
		t.Fatalf("expected only sw_a mismatch, got %+v", rec.Mismatches)
	}
	if rec.Command != "MOD NRCELLALGOSWITCH:InterFreqHoSwitch=sw_a=on;" {
		t.Fatalf("unexpected command %q", rec.Command)
	}
	if rec.CurrentValue != "sw_a:off" || rec.ExpectedValue != "sw_a:on" {
		t.Fatalf("expected mismatch-only detail, got %s -> %s", rec.CurrentValue, rec.ExpectedValue)
	}
}

func TestEvaluateMO_SwitchDescriptionsInDetails(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "M", Name: "Sw", ID: "SwId", Type: metadata.ParameterMultiple,
			Meaning: "handover switches", ValueDescription: "sw_a:controls coverage HO;sw_b:controls redirect"}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "M", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"Sw"}, ExpectedValue: "sw_a:on&sw_b:on&sw_c:on"}},
	)

	res := ev.EvaluateMO("S1", "M", []Row{row("1", "1", map[string]string{"Sw": "sw_a:off&sw_b:on"})}, true)
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(res.Errors))
	}
	rec := res.Errors[0]
	if len(rec.Details) != 1 || rec.Details[0].Meaning != "handover switches" {
		t.Fatalf("expected parameter meaning in detail, got %+v", rec.Details)
	}
	if len(rec.Mismatches) != 2 {
		t.Fatalf("expected sw_a and sw_c mismatches, got %+v", rec.Mismatches)
	}
	if rec.Mismatches[0].Switch != "sw_a" || rec.Mismatches[0].Description != "controls coverage HO" {
		t.Fatalf("expected sw_a description, got %+v", rec.Mismatches[0])
	}
	if rec.Mismatches[1].Switch != "sw_c" || rec.Mismatches[1].Description != "" {
		t.Fatalf("expected undescribed sw_c, got %+v", rec.Mismatches[1])
	}
	if rec.Details[0].Switches[0].Description != "controls coverage HO" {
		t.Fatalf("expected description on detail switches, got %+v", rec.Details[0].Switches)
	}
}

func TestEvaluateMO_ValidRowsProduceNothing(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRDUCELL", Name: "CellRadius", Type: metadata.ParameterSingle}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRDUCELL", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"CellRadius"}, ExpectedValue: "8000"}},
	)

	res := ev.EvaluateMO("S1", "NRDUCELL", []Row{row("1", "1", map[string]string{"CellRadius": " 8000 "})}, true)
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", res.Errors)
	}
	if !res.Rows[0].Valid || res.Rows[0].Command != "" || res.Rows[0].Error != nil {
		t.Fatalf("expected valid row, got %+v", res.Rows[0])
	}
}

func TestEvaluateMO_FilterExcludesRows(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRINTERRATHOPARAM", Name: "CC", ID: "CCValue", Type: metadata.ParameterSingle}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRINTERRATHOPARAM", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"CC"}, ExpectedValue: "A", FilterCondition: "(band=N78 and bandwidth>=100)"}},
	)

	rows := []Row{
		row("1", "1", map[string]string{"band": "N78", "bandwidth": "100", "CC": "B"}),
		row("1", "2", map[string]string{"band": "N78", "bandwidth": "80", "CC": "B"}),
		row("1", "3", map[string]string{"band": "N41", "bandwidth": "100", "CC": "B"}),
	}
	res := ev.EvaluateMO("S1", "NRINTERRATHOPARAM", rows, true)
	if len(res.Errors) != 1 || res.Errors[0].Row.CellID != "1" {
		t.Fatalf("expected only cell 1 flagged, got %+v", res.Errors)
	}
	if res.Rows[1].Matched || !res.Rows[1].Valid {
		t.Fatalf("expected filtered row to be valid and unmatched, got %+v", res.Rows[1])
	}
}

func TestEvaluateMO_CombinationAggregatesMismatches(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{
			{MOName: "REL", Name: "type", ID: "NeighborType", Type: metadata.ParameterSingle},
			{MOName: "REL", Name: "freq", ID: "CarrierFreq", Type: metadata.ParameterSingle},
		},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "REL", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"type", "freq"}, ExpectedValue: "intra&2100"}},
	)

	res := ev.EvaluateMO("S1", "REL", []Row{row("1", "1", map[string]string{"type": "inter", "freq": "1800"})}, true)
	if len(res.Errors) != 1 {
		t.Fatalf("expected one aggregated record, got %d", len(res.Errors))
	}
	rec := res.Errors[0]
	if strings.Join(rec.Parameters, ",") != "type,freq" || len(rec.Details) != 2 {
		t.Fatalf("expected both parameters, got %+v", rec)
	}
	want := "MOD REL:NeighborType=intra;\nMOD REL:CarrierFreq=2100;"
	if rec.Command != want {
		t.Fatalf("expected %q, got %q", want, rec.Command)
	}
	if rec.CurrentValue != "inter&1800" || rec.ExpectedValue != "intra&2100" {
		t.Fatalf("unexpected values %s -> %s", rec.CurrentValue, rec.ExpectedValue)
	}
}

func TestEvaluateMO_MissingIsPerMO(t *testing.T) {
	ev := newTestEvaluator(t, nil,
		[]*metadata.ValidationRule{{ID: "R1", MOName: "REL", Type: metadata.ValidationMissing,
			ExpectedValue: "intra&2100", FilterCondition: "type=intra and freq=2100"}},
	)

	absent := []Row{
		row("1", "1", map[string]string{"type": "inter", "freq": "2100"}),
		row("1", "2", map[string]string{"type": "intra", "freq": "1800"}),
	}
	res := ev.EvaluateMO("S1", "REL", absent, true)
	if len(res.Errors) != 1 || res.Errors[0].Type != ErrorMissing || res.Errors[0].Row != nil {
		t.Fatalf("expected one per-MO missing record, got %+v", res.Errors)
	}

	present := append(absent, row("1", "3", map[string]string{"type": "intra", "freq": "2100"}))
	res = ev.EvaluateMO("S1", "REL", present, true)
	if len(res.Errors) != 0 {
		t.Fatalf("expected no missing record when a row survives the filter, got %+v", res.Errors)
	}

	res = ev.EvaluateMO("S1", "REL", nil, true)
	if len(res.Errors) != 1 || res.Errors[0].Type != ErrorMissing {
		t.Fatalf("expected missing record for empty row-set, got %+v", res.Errors)
	}
}

func TestEvaluateMO_DataAbsent(t *testing.T) {
	ev := newTestEvaluator(t, nil, []*metadata.ValidationRule{
		{ID: "R1", MOName: "REL", Type: metadata.ValidationMissing},
		{ID: "R2", MOName: "REL", Type: metadata.ValidationMissing},
	})

	res := ev.EvaluateMO("S1", "REL", nil, false)
	if len(res.Errors) != 1 {
		t.Fatalf("expected a single data_absent record, got %d", len(res.Errors))
	}
	if res.Errors[0].Type != ErrorDataAbsent || res.Errors[0].RuleID != SystemRuleID {
		t.Fatalf("unexpected record %+v", res.Errors[0])
	}
	if len(res.Executed) != 0 {
		t.Fatalf("expected no rules to run, got %v", res.Executed)
	}
}

func TestEvaluateMO_ChainRunsOnce(t *testing.T) {
	ev := newTestEvaluator(t, nil, []*metadata.ValidationRule{
		{ID: "R1", MOName: "A", Type: metadata.ValidationMissing, ExecutionOrder: 1, NextRule: "R3"},
		{ID: "R2", MOName: "A", Type: metadata.ValidationMissing, ExecutionOrder: 2},
		{ID: "R3", MOName: "A", Type: metadata.ValidationMissing, ExecutionOrder: 3, NextRule: "R4"},
		{ID: "R4", MOName: "A", Type: metadata.ValidationMissing, ExecutionOrder: 4},
		{ID: "R0", MOName: "A", Type: metadata.ValidationMissing, ExecutionOrder: 5, NextRule: "R3"},
	})

	res := ev.EvaluateMO("S1", "A", []Row{row("1", "1", nil)}, true)
	if got := strings.Join(res.Executed, ","); got != "R1,R3,R4,R2,R0" {
		t.Fatalf("expected R1,R3,R4,R2,R0, got %s", got)
	}
}

func TestEvaluateMO_CyclicChain(t *testing.T) {
	ev := newTestEvaluator(t, nil, []*metadata.ValidationRule{
		{ID: "R1", MOName: "A", Type: metadata.ValidationMissing, NextRule: "R2"},
		{ID: "R2", MOName: "A", Type: metadata.ValidationMissing, NextRule: "R1"},
		{ID: "S1", MOName: "B", Type: metadata.ValidationMissing},
	})

	res := ev.EvaluateSector("S1", Dataset{"A": {}, "B": {}})
	a, b := res.MOs[0], res.MOs[1]
	if len(a.Diagnostics) != 1 || a.Diagnostics[0].Kind != DiagnosticCyclicRuleChain {
		t.Fatalf("expected cyclic diagnostic, got %+v", a.Diagnostics)
	}
	if len(a.Executed) != 0 || len(a.Errors) != 0 {
		t.Fatalf("expected no rule of A to run, got %v", a.Executed)
	}
	if len(b.Executed) != 1 || len(b.Errors) != 1 {
		t.Fatalf("expected B to be unaffected, got %+v", b)
	}
}

func TestEvaluateMO_RuntimeCycleGuard(t *testing.T) {
	reg, err := metadata.NewRegistry(nil, []*metadata.ValidationRule{
		{ID: "R1", MOName: "A", Type: metadata.ValidationMissing, NextRule: "R1"},
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	reg.RulesForMO("A").ChainErr = nil

	res := NewEvaluator(reg).EvaluateMO("S1", "A", nil, true)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != DiagnosticCyclicRuleChain {
		t.Fatalf("expected runtime cycle diagnostic, got %+v", res.Diagnostics)
	}
	if len(res.Executed) != 1 {
		t.Fatalf("expected R1 to run once, got %v", res.Executed)
	}
}

func TestEvaluateMO_UnknownParameterSkipped(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRDUCELL", Name: "CellRadius", ID: "CellRadius", Type: metadata.ParameterSingle}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRDUCELL", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"Ghost", "CellRadius"}, ExpectedValue: "8000"}},
	)

	res := ev.EvaluateMO("S1", "NRDUCELL", []Row{row("1", "1", map[string]string{"CellRadius": "4000", "Ghost": "x"})}, true)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != DiagnosticUnknownParameter {
		t.Fatalf("expected one unknown_parameter diagnostic, got %+v", res.Diagnostics)
	}
	if len(res.Errors) != 1 || strings.Join(res.Errors[0].Parameters, ",") != "CellRadius" {
		t.Fatalf("expected remaining parameter to be checked, got %+v", res.Errors)
	}
}

func TestEvaluateMO_MalformedFilterFailsClosed(t *testing.T) {
	ev := newTestEvaluator(t,
		[]*metadata.ParameterDefinition{{MOName: "NRDUCELL", Name: "CellRadius", Type: metadata.ParameterSingle}},
		[]*metadata.ValidationRule{{ID: "R1", MOName: "NRDUCELL", Type: metadata.ValidationMisconfigured,
			Parameters: []string{"CellRadius"}, ExpectedValue: "8000", FilterCondition: "band N78"}},
	)

	res := ev.EvaluateMO("S1", "NRDUCELL", []Row{row("1", "1", map[string]string{"CellRadius": "4000"})}, true)
	if len(res.Errors) != 0 {
		t.Fatalf("expected malformed filter to exclude rows, got %+v", res.Errors)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != DiagnosticMalformedCondition {
		t.Fatalf("expected malformed_condition diagnostic, got %+v", res.Diagnostics)
	}
}

func TestEvaluateSector_SampleKnowledgeBase(t *testing.T) {
	ev := newTestEvaluator(t, metadata.SampleParameters(), metadata.SampleRules())

	data := Dataset{
		"NRDUCELL": {row("1001", "1", map[string]string{"小区半径": "4000"})},
		"NRCELLALGOSWITCH": {row("1001", "1", map[string]string{
			"小区类型": "宏站", "覆盖场景": "城区", "异频切换算法开关": "基于覆盖的异频切换开关:关&异频重定向开关:开",
		})},
		"NRINTERRATHOPARAM": {row("1001", "1", map[string]string{"频段": "N78", "带宽": "100", "CC值": "B"})},
	}
	res := ev.EvaluateSector("S1", data)

	var types []string
	for _, rec := range res.Errors() {
		types = append(types, rec.MOName+":"+string(rec.Type))
	}
	want := "NRCELLALGOSWITCH:misconfigured,NRCELLFREQRELATION:data_absent,NRDUCELL:misconfigured,NRINTERRATHOPARAM:misconfigured"
	if got := strings.Join(types, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	commands := res.Commands()
	if len(commands) != 3 || commands[0] != "MOD NRCELLALGOSWITCH:InterFreqHoSwitch=基于覆盖的异频切换开关=开;" {
		t.Fatalf("unexpected commands %q", commands)
	}
}

func TestCommonRowKeys(t *testing.T) {
	data := Dataset{
		"A": {row("2", "1", nil), row("1", "1", nil), row("1", "2", nil)},
		"B": {row("1", "2", nil), row("2", "1", nil), row("3", "1", nil)},
		"C": {},
	}
	keys := CommonRowKeys(data)
	if len(keys) != 2 || keys[0] != (RowKey{SiteID: "1", CellID: "2"}) || keys[1] != (RowKey{SiteID: "2", CellID: "1"}) {
		t.Fatalf("unexpected keys %+v", keys)
	}
	if len(CommonRowKeys(Dataset{})) != 0 {
		t.Fatal("expected no keys for empty dataset")
	}
}
