package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"paramcheck/internal/metadata"
	"paramcheck/internal/store"
)

func kbCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the knowledge base",
	}
	cmd.AddCommand(kbValidateCmd(flags))
	cmd.AddCommand(kbSampleCmd(flags))
	cmd.AddCommand(kbImportCmd(flags))
	return cmd
}

func kbValidateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configured knowledge base and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			for _, mo := range app.registry.MONames() {
				rules := app.registry.RulesForMO(mo)
				fmt.Fprintf(out, "%s: %d rules\n", mo, len(rules.Rules))
				if rules.ChainErr != nil {
					fmt.Fprintf(out, "  ! %v\n", rules.ChainErr)
				}
			}
			warnings := app.registry.Warnings()
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %v\n", w)
			}
			fmt.Fprintf(out, "%d parameters, %d rules, %d warnings\n",
				len(app.registry.Parameters()), len(app.registry.Rules()), len(warnings))
			return nil
		},
	}
}

func kbSampleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sample <workbook.xlsx>",
		Short: "Write the sample knowledge base as a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(flags); err != nil {
				return err
			}
			if err := metadata.WriteSampleWorkbook(args[0]); err != nil {
				return fmt.Errorf("write sample workbook: %w", err)
			}
			log.Printf("Sample knowledge base written to %s", args[0])
			return nil
		},
	}
}

func kbImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [workbook.xlsx]",
		Short: "Replace the database knowledge base with the contents of a workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app := &application{cfg: cfg}
			if err := app.connect(ctx); err != nil {
				return err
			}
			defer app.Close()

			path := cfg.Knowledge.Workbook
			if len(args) == 1 {
				path = args[0]
			}
			params, rules, err := metadata.ReadWorkbook(path, app.workbookOptions())
			if err != nil {
				return err
			}
			// Refuse to store a knowledge base that would not load.
			if _, err := metadata.NewRegistry(params, rules); err != nil {
				return err
			}
			if err := store.SaveKnowledgeBase(ctx, app.db, params, rules); err != nil {
				return fmt.Errorf("import knowledge base: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d parameters and %d rules from %s\n", len(params), len(rules), path)
			return nil
		},
	}
}
