package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"paramcheck/internal/audit"
	"paramcheck/internal/instrument"
)

func auditCmd(flags *globalFlags) *cobra.Command {
	var (
		output string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "audit [sector.json|-]",
		Short: "Audit one sector's configuration against the knowledge base",
		Long: `Reads one sector object as JSON, from a file or stdin, evaluates every
rule of the knowledge base and writes the report to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if cmd.Flags().Changed("output") {
				app.cfg.Audit.Output = output
			}
			if cmd.Flags().Changed("filter") {
				app.cfg.Audit.SectorFilter = filter
			}

			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			sector, err := readSector(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			var metrics *audit.Metrics
			if app.cfg.Audit.MetricsFile != "" {
				metrics = audit.NewMetrics(prometheus.NewRegistry())
			}
			runner, err := audit.NewRunner(app.registry, audit.Options{
				SectorFilter: app.cfg.Audit.SectorFilter,
				Metrics:      metrics,
			})
			if err != nil {
				return err
			}

			if app.instrumenter != nil {
				ctx = instrument.WithInstrumenter(ctx, app.instrumenter)
			}
			report, err := runner.Run(ctx, []*audit.Sector{sector})
			if err != nil {
				return fmt.Errorf("audit: %w", err)
			}
			if err := report.Write(cmd.OutOrStdout(), app.cfg.Audit.Output); err != nil {
				return err
			}
			if err := metrics.WriteTextfile(app.cfg.Audit.MetricsFile); err != nil {
				log.Printf("WARN: Failed to write metrics file: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Report format (json, yaml, text)")
	cmd.Flags().StringVar(&filter, "filter", "", "Sector filter expression, e.g. sector_id startsWith \"S1\"")
	return cmd
}

func readSector(stdin io.Reader, input string) (*audit.Sector, error) {
	if input == "-" {
		return audit.DecodeSector(stdin)
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open sector: %w", err)
	}
	defer f.Close()
	return audit.DecodeSector(f)
}
