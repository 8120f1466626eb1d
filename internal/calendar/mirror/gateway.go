package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

// EventStore is the slice of the event service the gateway writes through.
type EventStore interface {
	StoreEvent(ctx context.Context, actor string, event *models.Event) (*models.Event, error)
	UpdateEvent(ctx context.Context, actor, id string, patch models.EventPatch) (*models.Event, error)
	FindMirrored(ctx context.Context, eventType models.EventType, referenceID string) (*models.Event, error)
	FindByReference(ctx context.Context, referenceID string) (*models.Event, error)
	UpdateByReference(ctx context.Context, actor, referenceID string, patch models.EventPatch) (*models.Event, error)
	DeleteByReference(ctx context.Context, actor, referenceID string) (*models.Event, error)
	ListByType(ctx context.Context, eventType models.EventType) ([]models.Event, error)
}

// Locker serializes mirror writes for one external reference.
type Locker interface {
	Acquire(ctx context.Context, kind models.EventType, referenceID string) (func(), error)
}

type Gateway struct {
	Events EventStore
	Lock   Locker
	Logger *logger.Logger
	Now    func() time.Time
}

func NewGateway(events EventStore, lock Locker, log *logger.Logger) *Gateway {
	return &Gateway{Events: events, Lock: lock, Logger: log, Now: time.Now}
}

func (g *Gateway) now() time.Time {
	if g.Now == nil {
		return utils.NormalizeTime(time.Now())
	}
	return utils.NormalizeTime(g.Now())
}

// Mirror creates the calendar event for an external record, or refreshes
// the one that already exists for the same kind and reference. created
// reports which of the two happened.
func (g *Gateway) Mirror(ctx context.Context, actor string, kindType models.EventType, payload models.MirrorPayload) (event *models.Event, created bool, err error) {
	kind, ok := KindFor(kindType)
	if !ok {
		return nil, false, calendar.Invalid("eventType", fmt.Sprintf("%q is not a mirrored type", kindType))
	}

	referenceID := strings.TrimSpace(payload.Reference(kind.Type))
	if referenceID == "" {
		return nil, false, calendar.Invalid(kind.RefField, "is required")
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		if kind.FallbackTitle == "" {
			return nil, false, calendar.Invalid("title", "is required")
		}
		title = kind.FallbackTitle
	}

	if g.Lock != nil {
		release, lockErr := g.Lock.Acquire(ctx, kind.Type, referenceID)
		if lockErr != nil {
			// the unique index still rejects a duplicate insert
			g.Logger.Warn("SYNC", fmt.Sprintf("Proceeding without lock for %s %s: %v", kind.Type, referenceID, lockErr))
		} else {
			defer release()
		}
	}

	existing, err := g.Events.FindMirrored(ctx, kind.Type, referenceID)
	if err == nil {
		event, err := g.refresh(ctx, actor, kind, existing, payload)
		return event, false, err
	}
	if !errors.Is(err, calendar.ErrNotFound) {
		return nil, false, err
	}

	start, end := g.window(kind, payload)
	event = &models.Event{
		Title:       kind.TitlePrefix + title,
		Start:       start,
		End:         end,
		Desc:        firstNonEmpty(payload.Description, DefaultDescription),
		CreatedBy:   firstNonEmpty(actor, payload.CreatedBy, kind.DefaultCreatedBy),
		EventType:   kind.Type,
		ReferenceID: referenceID,
		Status:      firstNonEmpty(payload.Status, kind.DefaultStatus),
	}

	stored, err := g.Events.StoreEvent(ctx, actor, event)
	if err != nil {
		// lost a race with a concurrent mirror of the same reference
		if winner, findErr := g.Events.FindMirrored(ctx, kind.Type, referenceID); findErr == nil {
			g.Logger.LogSync(string(kind.Type), referenceID, "Concurrent mirror detected, refreshing existing event")
			event, err := g.refresh(ctx, actor, kind, winner, payload)
			return event, false, err
		}
		return nil, false, err
	}

	g.Logger.LogSync(string(kind.Type), referenceID, fmt.Sprintf("Created calendar event %s", stored.ID))
	return stored, true, nil
}

// refresh copies the non-empty title, description and status of a retried
// payload onto the existing event.
func (g *Gateway) refresh(ctx context.Context, actor string, kind Kind, existing *models.Event, payload models.MirrorPayload) (*models.Event, error) {
	var patch models.EventPatch
	if title := strings.TrimSpace(payload.Title); title != "" && kind.TitlePrefix+title != existing.Title {
		full := kind.TitlePrefix + title
		patch.Title = &full
	}
	if payload.Description != "" && payload.Description != existing.Desc {
		patch.Desc = &payload.Description
	}
	if payload.Status != "" && payload.Status != existing.Status {
		patch.Status = &payload.Status
	}

	if patch.IsEmpty() {
		g.Logger.LogSync(string(kind.Type), existing.ReferenceID, "Already mirrored, nothing to refresh")
		return existing, nil
	}

	updated, err := g.Events.UpdateEvent(ctx, actor, existing.ID, patch)
	if err != nil {
		return nil, err
	}
	g.Logger.LogSync(string(kind.Type), existing.ReferenceID, fmt.Sprintf("Refreshed calendar event %s", existing.ID))
	return updated, nil
}

// window resolves start and end. Fixed-window kinds start now; forum
// topics use the caller's times with now and now+1d as fallbacks, and an
// end before the start becomes start+1d.
func (g *Gateway) window(kind Kind, payload models.MirrorPayload) (time.Time, time.Time) {
	now := g.now()
	if !kind.CallerScheduled {
		return now, now.Add(kind.Window)
	}

	start := parseOr(payload.Start, now)
	end := parseOr(payload.End, now.Add(kind.Window))
	if end.Before(start) {
		end = start.Add(kind.Window)
	}
	return start, end
}

func parseOr(value *string, fallback time.Time) time.Time {
	if value == nil {
		return fallback
	}
	t, err := utils.ParseTime(*value)
	if err != nil {
		return fallback
	}
	return t
}

func (g *Gateway) FindByReference(ctx context.Context, referenceID string) (*models.Event, error) {
	return g.Events.FindByReference(ctx, referenceID)
}

func (g *Gateway) UpdateByReference(ctx context.Context, actor, referenceID string, patch models.EventPatch) (*models.Event, error) {
	event, err := g.Events.UpdateByReference(ctx, actor, referenceID, patch)
	if err != nil {
		return nil, err
	}
	g.Logger.LogSync(string(event.EventType), referenceID, "Updated by reference")
	return event, nil
}

func (g *Gateway) DeleteByReference(ctx context.Context, actor, referenceID string) (*models.Event, error) {
	event, err := g.Events.DeleteByReference(ctx, actor, referenceID)
	if err != nil {
		return nil, err
	}
	g.Logger.LogSync(string(event.EventType), referenceID, "Deleted by reference")
	return event, nil
}

// ListByType lists the events mirrored from one kind of external service.
func (g *Gateway) ListByType(ctx context.Context, kindType models.EventType) ([]models.Event, error) {
	if _, ok := KindFor(kindType); !ok {
		return nil, calendar.Invalid("eventType", fmt.Sprintf("%q is not a mirrored type", kindType))
	}
	return g.Events.ListByType(ctx, kindType)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
