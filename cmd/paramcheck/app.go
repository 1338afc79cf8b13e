package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"paramcheck/internal/config"
	"paramcheck/internal/instrument"
	"paramcheck/internal/metadata"
	"paramcheck/internal/store"
)

// application holds what a command needs once config and the knowledge
// base are loaded.
type application struct {
	cfg          *config.Config
	db           *store.Store
	registry     *metadata.Registry
	instrumenter instrument.Instrumenter
	buffer       *instrument.EventBuffer
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.quiet {
		log.SetOutput(io.Discard)
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func setup(ctx context.Context, flags *globalFlags) (*application, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	app := &application{cfg: cfg}

	if cfg.UsesDatabase() {
		if err := app.connect(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Instrumentation.Enabled {
		instrument.CleanupOldEvents(ctx, app.db.DB, app.db.Dialect, cfg.Instrumentation.RetentionDays)
		app.buffer = instrument.NewEventBuffer(app.db, cfg.Instrumentation.BufferSize, cfg.Instrumentation.FlushIntervalMs)
		app.instrumenter = instrument.NewInstrumenter(app.buffer)
		log.Println("Instrumentation enabled")
	}

	app.registry, err = app.loadKnowledgeBase(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	for _, w := range app.registry.Warnings() {
		log.Printf("WARN: %v", w)
	}
	log.Printf("Knowledge base loaded (%d parameters, %d rules, %d MOs)",
		len(app.registry.Parameters()), len(app.registry.Rules()), len(app.registry.MONames()))
	return app, nil
}

func (a *application) connect(ctx context.Context) error {
	db, err := store.New(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Bootstrap(ctx); err != nil {
		db.Close()
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	a.db = db
	log.Printf("Database connected (%s)", db.Dialect.Name())
	return nil
}

func (a *application) loadKnowledgeBase(ctx context.Context) (*metadata.Registry, error) {
	if a.cfg.Knowledge.Source == "database" {
		reg, err := store.LoadKnowledgeBase(ctx, a.db)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base from database: %w", err)
		}
		return reg, nil
	}
	reg, err := metadata.LoadWorkbook(a.cfg.Knowledge.Workbook, a.workbookOptions())
	if err != nil {
		return nil, fmt.Errorf("load knowledge base from %s: %w", a.cfg.Knowledge.Workbook, err)
	}
	return reg, nil
}

func (a *application) workbookOptions() metadata.WorkbookOptions {
	return metadata.WorkbookOptions{
		ParameterSheet: a.cfg.Knowledge.ParameterSheet,
		RuleSheet:      a.cfg.Knowledge.RuleSheet,
	}
}

// Close flushes pending events before closing the database.
func (a *application) Close() {
	if a.buffer != nil {
		a.buffer.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}
