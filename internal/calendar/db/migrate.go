package db

import (
	"context"
	"fmt"

	"ms-calendar/internal/models"

	"github.com/uptrace/bun"
)

const referenceIndex = "events_type_reference_uniq"

// CreateSchema creates the events table and its indexes if they are missing.
// Postgres deployments use the SQL migrations instead; this path serves
// SQLite and tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Event)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	// one live mirrored event per (event_type, reference_id)
	_, err = db.NewCreateIndex().
		Model((*models.Event)(nil)).
		Index(referenceIndex).
		Unique().
		IfNotExists().
		Column("event_type", "reference_id").
		Where("reference_id IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create reference index: %w", err)
	}

	for name, column := range map[string]string{
		"events_created_by_idx": "created_by",
		"events_start_at_idx":   "start_at",
	} {
		_, err = db.NewCreateIndex().
			Model((*models.Event)(nil)).
			Index(name).
			IfNotExists().
			Column(column).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}
