package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"paramcheck/internal/engine"
)

// Report is the merged outcome of one audit run.
type Report struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Sectors   []SectorReport `json:"sectors" yaml:"sectors"`
	Skipped   []string       `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Summary   Summary        `json:"summary" yaml:"summary"`
}

type SectorReport struct {
	SectorID    string               `json:"sector_id" yaml:"sector_id"`
	Executed    map[string][]string  `json:"executed_rules,omitempty" yaml:"executed_rules,omitempty"`
	Records     []engine.ErrorRecord `json:"records,omitempty" yaml:"records,omitempty"`
	Commands    []string             `json:"commands,omitempty" yaml:"commands,omitempty"`
	Diagnostics []engine.Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	CommonRows  []engine.RowKey      `json:"common_rows,omitempty" yaml:"common_rows,omitempty"`

	Result *engine.SectorResult `json:"-" yaml:"-"`
}

type Summary struct {
	Sectors     int                      `json:"sectors" yaml:"sectors"`
	Skipped     int                      `json:"skipped" yaml:"skipped"`
	Records     int                      `json:"records" yaml:"records"`
	Commands    int                      `json:"commands" yaml:"commands"`
	Diagnostics int                      `json:"diagnostics" yaml:"diagnostics"`
	ByType      map[engine.ErrorType]int `json:"by_type,omitempty" yaml:"by_type,omitempty"`
}

// newReport concatenates sector results in input order. A nil result marks a filtered sector.
func newReport(runID string, started time.Time, sectors []*Sector, results []*engine.SectorResult) *Report {
	report := &Report{RunID: runID, StartedAt: started, Summary: Summary{ByType: map[engine.ErrorType]int{}}}
	for i, result := range results {
		if result == nil {
			report.Skipped = append(report.Skipped, sectors[i].ID)
			continue
		}
		sr := SectorReport{
			SectorID:    result.SectorID,
			Executed:    map[string][]string{},
			Records:     result.Errors(),
			Commands:    result.Commands(),
			Diagnostics: result.Diagnostics(),
			CommonRows:  engine.CommonRowKeys(sectors[i].Dataset()),
			Result:      result,
		}
		for _, mo := range result.MOs {
			if len(mo.Executed) > 0 {
				sr.Executed[mo.MOName] = mo.Executed
			}
		}
		for _, record := range sr.Records {
			report.Summary.ByType[record.Type]++
		}
		report.Summary.Records += len(sr.Records)
		report.Summary.Commands += len(sr.Commands)
		report.Summary.Diagnostics += len(sr.Diagnostics)
		report.Sectors = append(report.Sectors, sr)
	}
	report.Summary.Sectors = len(report.Sectors)
	report.Summary.Skipped = len(report.Skipped)
	return report
}

// Records returns every error record of the run.
func (r *Report) Records() []engine.ErrorRecord {
	var records []engine.ErrorRecord
	for _, s := range r.Sectors {
		records = append(records, s.Records...)
	}
	return records
}

// Write renders the report as "json", "yaml" or "text".
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return r.writeText(w)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func (r *Report) writeText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Audit %s\n", r.RunID)
	for _, s := range r.Sectors {
		fmt.Fprintf(&b, "\nSector %s: %d records, %d common cells\n", s.SectorID, len(s.Records), len(s.CommonRows))
		for _, rec := range s.Records {
			where := ""
			if rec.Row != nil {
				where = " " + rec.Row.String()
			}
			fmt.Fprintf(&b, "  [%s] %s %s%s: %s", rec.Type, rec.MOName, rec.RuleID, where, rec.Message)
			if rec.Type == engine.ErrorMisconfigured {
				fmt.Fprintf(&b, " (current %q, expected %q)", rec.CurrentValue, rec.ExpectedValue)
			}
			b.WriteString("\n")
			for _, m := range rec.Mismatches {
				if m.Description != "" {
					fmt.Fprintf(&b, "      %s: %s\n", m.Switch, m.Description)
				}
			}
			for _, line := range strings.Split(rec.Command, "\n") {
				if line != "" {
					fmt.Fprintf(&b, "      %s\n", line)
				}
			}
		}
		for _, d := range s.Diagnostics {
			fmt.Fprintf(&b, "  ! %s\n", d)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped: %s\n", strings.Join(r.Skipped, ", "))
	}
	fmt.Fprintf(&b, "\n%d sectors, %d records, %d commands, %d diagnostics\n",
		r.Summary.Sectors, r.Summary.Records, r.Summary.Commands, r.Summary.Diagnostics)
	_, err := io.WriteString(w, b.String())
	return err
}
