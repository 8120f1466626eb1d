package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// CreateEvent → insert a fully populated event
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", event.ID, err)
	}
	return nil
}

// GetEventByID → fetch one event by its ID
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// UpdateEvent → overwrite every mutable column; id and created_at never change
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "start_at", "end_at", "all_day", "description", "created_by",
			"event_type", "reference_id", "status", "priority").
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update event %s: %w", event.ID, err)
	}
	return requireAffected(res)
}

// DeleteEvent → physically remove an event
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return requireAffected(res)
}

// ListEvents → every event, oldest first
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ---------------- REFERENCES ----------------

// GetEventByReference → first event mirrored under referenceID, any kind
func (d *DB) GetEventByReference(ctx context.Context, referenceID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// GetEventByTypeAndReference → the mirrored event for one external entity
func (d *DB) GetEventByTypeAndReference(ctx context.Context, eventType models.EventType, referenceID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("event_type = ?", eventType).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return calendar.ErrNotFound
	}
	return nil
}
