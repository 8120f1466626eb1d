package events

import (
	"context"
	"fmt"
	"strings"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
)

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListEvents(ctx)
}

// ListByCreator returns ErrNotFound when the creator has no events.
func (s *EventService) ListByCreator(ctx context.Context, createdBy string) ([]models.Event, error) {
	events, err := s.DB.ListEventsByCreator(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found for %s: %w", createdBy, calendar.ErrNotFound)
	}
	return events, nil
}

// ListInRange returns events lying entirely within [start, end].
func (s *EventService) ListInRange(ctx context.Context, start, end string) ([]models.Event, error) {
	from, err := parseRequired("start", start)
	if err != nil {
		return nil, err
	}
	to, err := parseRequired("end", end)
	if err != nil {
		return nil, err
	}
	return s.DB.ListEventsInRange(ctx, from, to)
}

// ListUpcoming returns events starting now or later, soonest first. An
// empty createdBy lists every creator.
func (s *EventService) ListUpcoming(ctx context.Context, createdBy string) ([]models.Event, error) {
	return s.DB.ListUpcomingEvents(ctx, s.now(), createdBy)
}

func (s *EventService) Search(ctx context.Context, query, createdBy string) ([]models.Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, calendar.Invalid("query", "is required")
	}
	return s.DB.SearchEventsByTitle(ctx, query, createdBy)
}

func (s *EventService) ListByType(ctx context.Context, eventType models.EventType) ([]models.Event, error) {
	if !eventType.Valid() {
		return nil, calendar.Invalid("eventType", fmt.Sprintf("unknown type %q", eventType))
	}
	return s.DB.ListEventsByType(ctx, eventType)
}

func (s *EventService) ListCreators(ctx context.Context) ([]string, error) {
	return s.DB.ListCreators(ctx)
}

// CountPerCreator orders by count descending, then by creator name.
func (s *EventService) CountPerCreator(ctx context.Context) ([]models.CreatorCount, error) {
	return s.DB.CountEventsPerCreator(ctx)
}
