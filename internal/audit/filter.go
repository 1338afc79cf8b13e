package audit

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// SectorFilter selects sectors with an expr-lang expression over
// sector_id (string), mos (sorted MO names) and rows (total row count),
// e.g. `sector_id startsWith "S1" && "NRDUCELL" in mos`.
type SectorFilter struct {
	source  string
	program *vm.Program
}

// NewSectorFilter compiles expression. An empty expression returns a nil
// filter, which matches every sector.
func NewSectorFilter(expression string) (*SectorFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	prog, err := expr.Compile(expression, expr.Env(sectorEnv(&Sector{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile sector filter: %w", err)
	}
	return &SectorFilter{source: expression, program: prog}, nil
}

// Match reports whether the sector should be audited.
func (f *SectorFilter) Match(s *Sector) (bool, error) {
	if f == nil {
		return true, nil
	}
	result, err := expr.Run(f.program, sectorEnv(s))
	if err != nil {
		return false, fmt.Errorf("evaluate sector filter: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("sector filter did not return bool")
	}
	return matched, nil
}

func (f *SectorFilter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

func sectorEnv(s *Sector) map[string]any {
	return map[string]any{
		"sector_id": s.ID,
		"mos":       s.MONames(),
		"rows":      s.RowCount(),
	}
}
