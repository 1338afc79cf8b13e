package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"paramcheck/internal/engine"
	"paramcheck/internal/instrument"
	"paramcheck/internal/metadata"
)

type Options struct {
	Workers      int
	SectorFilter string
	Metrics      *Metrics
}

// Runner evaluates sectors concurrently against one shared Registry.
type Runner struct {
	registry  *metadata.Registry
	evaluator *engine.Evaluator
	workers   int
	filter    *SectorFilter
	metrics   *Metrics
}

func NewRunner(reg *metadata.Registry, opts Options) (*Runner, error) {
	filter, err := NewSectorFilter(opts.SectorFilter)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		registry:  reg,
		evaluator: engine.NewEvaluator(reg),
		workers:   workers,
		filter:    filter,
		metrics:   opts.Metrics,
	}, nil
}

// Run audits every sector that passes the filter. Sectors are evaluated in
// parallel and reported in input order. Cancellation is checked before each
// sector starts.
func (r *Runner) Run(ctx context.Context, sectors []*Sector) (*Report, error) {
	runID := uuid.New().String()
	started := time.Now()
	ctx = instrument.WithTraceID(ctx, runID)
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "audit", "runner", "audit.run")
	defer span.End()
	span.SetMetadata("sectors", len(sectors))

	results := make([]*engine.SectorResult, len(sectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, sector := range sectors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matched, err := r.filter.Match(sector)
			if err != nil {
				return fmt.Errorf("sector %s: %w", sector.ID, err)
			}
			if !matched {
				r.metrics.observeSkipped()
				return nil
			}
			results[i] = r.evaluate(gctx, sector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus("error")
		return nil, err
	}

	report := newReport(runID, started, sectors, results)
	r.metrics.observeRun(time.Now())
	instrument.GetInstrumenter(ctx).EmitEvent(ctx, "audit.completed", "", map[string]any{
		"sectors": report.Summary.Sectors,
		"skipped": report.Summary.Skipped,
		"records": report.Summary.Records,
	})
	span.SetStatus("ok")
	log.Printf("Audit %s: %d sectors, %d skipped, %d records, %d diagnostics",
		runID, report.Summary.Sectors, report.Summary.Skipped, report.Summary.Records, report.Summary.Diagnostics)
	return report, nil
}

// evaluate runs the sector one MO at a time so that every MO gets its own
// span, carrying the MO name into the event log.
func (r *Runner) evaluate(ctx context.Context, sector *Sector) *engine.SectorResult {
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "audit", "engine", "sector.evaluate")
	defer span.End()
	span.SetSector(sector.ID, "")

	start := time.Now()
	data := sector.Dataset()
	result := &engine.SectorResult{SectorID: sector.ID}
	for _, moName := range r.registry.MONames() {
		rows, present := data[moName]
		result.MOs = append(result.MOs, r.evaluateMO(ctx, sector.ID, moName, rows, present))
	}
	r.metrics.observeSector(result, time.Since(start))

	span.SetMetadata("records", len(result.Errors()))
	span.SetMetadata("diagnostics", len(result.Diagnostics()))
	span.SetStatus("ok")
	return result
}

func (r *Runner) evaluateMO(ctx context.Context, sectorID, moName string, rows []engine.Row, present bool) *engine.MOResult {
	_, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "audit", "engine", "mo.evaluate")
	defer span.End()
	span.SetSector(sectorID, moName)

	result := r.evaluator.EvaluateMO(sectorID, moName, rows, present)
	span.SetMetadata("rows", len(rows))
	span.SetMetadata("executed_rules", result.Executed)
	span.SetMetadata("records", len(result.Errors))
	if len(result.Diagnostics) > 0 {
		span.SetMetadata("diagnostics", len(result.Diagnostics))
		span.SetStatus("warning")
	} else {
		span.SetStatus("ok")
	}
	return result
}
