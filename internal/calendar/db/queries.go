package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-calendar/internal/models"
)

// ListEventsByCreator → exact match on created_by
func (d *DB) ListEventsByCreator(ctx context.Context, createdBy string) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("created_by = ?", createdBy).
		Order("start_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events by creator: %w", err)
	}
	return events, nil
}

// ListEventsInRange → events lying entirely inside [from, to]
func (d *DB) ListEventsInRange(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("start_at >= ?", from).
		Where("end_at <= ?", to).
		Order("start_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events in range: %w", err)
	}
	return events, nil
}

// ListUpcomingEvents → events starting at or after from, soonest first.
// An empty createdBy matches every creator.
func (d *DB) ListUpcomingEvents(ctx context.Context, from time.Time, createdBy string) ([]models.Event, error) {
	events := []models.Event{}
	q := d.Bun.NewSelect().
		Model(&events).
		Where("start_at >= ?", from)
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}
	err := q.Order("start_at ASC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// SearchEventsByTitle → case-insensitive substring match on title.
// The query is matched literally; LIKE wildcards in it are escaped.
func (d *DB) SearchEventsByTitle(ctx context.Context, query, createdBy string) ([]models.Event, error) {
	events := []models.Event{}
	q := d.Bun.NewSelect().
		Model(&events).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(query))+"%")
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}
	err := q.Order("start_at ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// ListEventsByType → exact match on event_type
func (d *DB) ListEventsByType(ctx context.Context, eventType models.EventType) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("event_type = ?", eventType).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events by type: %w", err)
	}
	return events, nil
}

// ListCreators → distinct created_by values, sorted
func (d *DB) ListCreators(ctx context.Context) ([]string, error) {
	creators := []string{}
	err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("DISTINCT created_by").
		Where("created_by IS NOT NULL").
		OrderExpr("created_by ASC").
		Scan(ctx, &creators)
	if err != nil {
		return nil, fmt.Errorf("list creators: %w", err)
	}
	return creators, nil
}

// CountEventsPerCreator → event count per created_by, largest first.
// Ties are ordered by creator name.
func (d *DB) CountEventsPerCreator(ctx context.Context) ([]models.CreatorCount, error) {
	counts := []models.CreatorCount{}
	err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("created_by").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("created_by").
		OrderExpr("count DESC, created_by ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("count events per creator: %w", err)
	}
	return counts, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
