package store

import (
	"context"
	"fmt"
	"log"
)

// Bootstrap creates the knowledge-base and event tables if they do not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return fmt.Errorf("create system tables: %w", err)
	}
	log.Printf("System tables ready (%s)", s.Dialect.Name())
	return nil
}
