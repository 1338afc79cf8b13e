package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?1",
		tableName,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLiteDialect) IntervalDeleteExpr(createdAtCol string, pb ParamBuilder, days string) string {
	ph := pb.Add(days)
	return fmt.Sprintf("%s < datetime('now', '-' || %s || ' days')", createdAtCol, ph)
}

func (d *SQLiteDialect) SyncCommitOff() string { return "" }

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- SQLite DDL ---

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _mo_parameters (
    mo_name           TEXT NOT NULL,
    parameter_name    TEXT NOT NULL,
    mo_description    TEXT NOT NULL DEFAULT '',
    scenario          TEXT NOT NULL DEFAULT '',
    parameter_id      TEXT NOT NULL DEFAULT '',
    parameter_type    TEXT NOT NULL,
    parameter_meaning TEXT NOT NULL DEFAULT '',
    value_description TEXT NOT NULL DEFAULT '',
    position          INTEGER NOT NULL,
    created_at        TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (mo_name, parameter_name)
);

CREATE TABLE IF NOT EXISTS _validation_rules (
    rule_id               TEXT PRIMARY KEY,
    mo_name               TEXT NOT NULL,
    validation_type       TEXT NOT NULL,
    parameter_combination TEXT NOT NULL DEFAULT '',
    expected_value        TEXT NOT NULL DEFAULT '',
    filter_condition      TEXT NOT NULL DEFAULT '',
    logic_relation        TEXT NOT NULL DEFAULT '',
    execution_order       INTEGER NOT NULL DEFAULT 1,
    next_rule             TEXT NOT NULL DEFAULT '',
    description           TEXT NOT NULL DEFAULT '',
    position              INTEGER NOT NULL,
    created_at            TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_validation_rules_mo ON _validation_rules (mo_name, execution_order);

CREATE TABLE IF NOT EXISTS _events (
    id              TEXT PRIMARY KEY,
    trace_id        TEXT NOT NULL,
    span_id         TEXT NOT NULL,
    parent_span_id  TEXT,
    event_type      TEXT NOT NULL,
    source          TEXT NOT NULL,
    component       TEXT NOT NULL,
    action          TEXT NOT NULL,
    sector_id       TEXT,
    mo_name         TEXT,
    duration_ms     REAL,
    status          TEXT,
    metadata        TEXT,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_events_trace ON _events (trace_id);
CREATE INDEX IF NOT EXISTS idx_events_sector_created ON _events (sector_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_created ON _events (created_at DESC);
`
