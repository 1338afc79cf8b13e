package metadata

// SampleParameters returns the parameter table of the sample knowledge base.
func SampleParameters() []*ParameterDefinition {
	return []*ParameterDefinition{
		{MOName: "NRDUCELL", MODescription: "NR DU小区", Scenario: "空域配置", Name: "小区半径", ID: "CellRadius",
			Type: ParameterSingle, Meaning: "小区覆盖半径，单位为米"},
		{MOName: "NRCELLALGOSWITCH", MODescription: "NR小区算法开关", Scenario: "空域配置", Name: "异频切换算法开关", ID: "InterFreqHoSwitch",
			Type: ParameterMultiple, Meaning: "异频切换相关算法开关组",
			ValueDescription: "基于覆盖的异频切换开关:控制基于覆盖的异频切换功能;异频重定向开关:控制异频重定向功能"},
		{MOName: "NRINTERRATHOPARAM", MODescription: "NR异频切换参数", Scenario: "空域配置", Name: "CC值", ID: "CCValue",
			Type: ParameterSingle, Meaning: "切换控制参数"},
		{MOName: "NRCELLFREQRELATION", MODescription: "NR小区频率关系", Scenario: "空域配置", Name: "邻区类型", ID: "NeighborType",
			Type: ParameterSingle, Meaning: "邻区类型定义"},
		{MOName: "NRCELLFREQRELATION", MODescription: "NR小区频率关系", Scenario: "空域配置", Name: "载波频点", ID: "CarrierFreq",
			Type: ParameterSingle, Meaning: "载波频点值"},
	}
}

// SampleRules returns the rule table of the sample knowledge base. RULE006
// checks 优先级, which has no definition and is reported as unknown.
func SampleRules() []*ValidationRule {
	return []*ValidationRule{
		{ID: "RULE001", MOName: "NRDUCELL", Type: ValidationMisconfigured, Parameters: []string{"小区半径"},
			ExpectedValue: "8000", LogicRelation: "AND", ExecutionOrder: 1, Description: "小区半径应为8000米"},
		{ID: "RULE002", MOName: "NRCELLALGOSWITCH", Type: ValidationMisconfigured, Parameters: []string{"异频切换算法开关"},
			ExpectedValue: "基于覆盖的异频切换开关:开&异频重定向开关:开", FilterCondition: "(小区类型=宏站 and 覆盖场景=城区)",
			LogicRelation: "AND", ExecutionOrder: 1, Description: "城区宏站的异频切换开关应为开启状态"},
		{ID: "RULE003", MOName: "NRINTERRATHOPARAM", Type: ValidationMisconfigured, Parameters: []string{"CC值"},
			ExpectedValue: "A", FilterCondition: "(频段=N78 and 带宽>=100)", LogicRelation: "AND", ExecutionOrder: 1,
			NextRule: "RULE004", Description: "N78频段且带宽>=100MHz时CC值应为A"},
		{ID: "RULE004", MOName: "NRINTERRATHOPARAM", Type: ValidationMisconfigured, Parameters: []string{"CC值"},
			ExpectedValue: "B", FilterCondition: "(频段=N41 or 带宽<100)", LogicRelation: "OR", ExecutionOrder: 2,
			Description: "或者N41频段或带宽<100MHz时CC值应为B"},
		{ID: "RULE005", MOName: "NRCELLFREQRELATION", Type: ValidationMissing, Parameters: []string{"邻区类型", "载波频点"},
			ExpectedValue: "同频&2100", FilterCondition: "(小区类型=宏站 and 覆盖场景=城区)", LogicRelation: "AND",
			ExecutionOrder: 1, NextRule: "RULE006", Description: "城区宏站必须配置2100MHz同频邻区"},
		{ID: "RULE006", MOName: "NRCELLFREQRELATION", Type: ValidationMisconfigured, Parameters: []string{"优先级"},
			ExpectedValue: "5", FilterCondition: "(邻区类型=同频 and 载波频点=2100)", LogicRelation: "AND",
			ExecutionOrder: 2, Description: "2100MHz同频邻区优先级应为5"},
	}
}
