package events

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

	"github.com/google/uuid"
)

// AnonymousActor is recorded as createdBy when a direct write names nobody.
const AnonymousActor = "Anonymous"

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByCreator(ctx context.Context, createdBy string) ([]models.Event, error)
	ListEventsInRange(ctx context.Context, from, to time.Time) ([]models.Event, error)
	ListUpcomingEvents(ctx context.Context, from time.Time, createdBy string) ([]models.Event, error)
	SearchEventsByTitle(ctx context.Context, query, createdBy string) ([]models.Event, error)
	ListEventsByType(ctx context.Context, eventType models.EventType) ([]models.Event, error)
	ListCreators(ctx context.Context) ([]string, error)
	CountEventsPerCreator(ctx context.Context) ([]models.CreatorCount, error)
	GetEventByReference(ctx context.Context, referenceID string) (*models.Event, error)
	GetEventByTypeAndReference(ctx context.Context, eventType models.EventType, referenceID string) (*models.Event, error)
}

// ChangePublisher receives a notification after every successful write.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change models.EventChange) error
}

// Publishers fans a change out to several publishers.
type Publishers []ChangePublisher

func (p Publishers) PublishChange(ctx context.Context, change models.EventChange) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.PublishChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type EventService struct {
	DB        EventDBLayer
	Publisher ChangePublisher
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEventService(db EventDBLayer, publisher ChangePublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Publisher: publisher, Logger: log, Now: time.Now}
}

func (s *EventService) now() time.Time {
	if s.Now == nil {
		return utils.NormalizeTime(time.Now())
	}
	return utils.NormalizeTime(s.Now())
}

// CreateEvent builds an event from a direct write. createdBy is the actor if
// one is known, else the body's createdBy, else AnonymousActor.
func (s *EventService) CreateEvent(ctx context.Context, actor string, in models.EventInput) (*models.Event, error) {
	event := &models.Event{
		Title:       in.Title,
		AllDay:      in.AllDay,
		Desc:        in.Desc,
		CreatedBy:   firstNonEmpty(actor, in.CreatedBy, AnonymousActor),
		EventType:   in.EventType,
		ReferenceID: strings.TrimSpace(in.ReferenceID),
		Status:      in.Status,
		Priority:    in.Priority,
	}

	var err error
	if event.Start, err = parseRequired("start", in.Start); err != nil {
		return nil, err
	}
	if event.End, err = parseRequired("end", in.End); err != nil {
		return nil, err
	}

	return s.StoreEvent(ctx, actor, event)
}

// StoreEvent validates a new event, assigns its id and createdAt, applies
// defaults and inserts it.
func (s *EventService) StoreEvent(ctx context.Context, actor string, event *models.Event) (*models.Event, error) {
	applyDefaults(event)
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.checkReference(ctx, event); err != nil {
		return nil, err
	}

	event.ID = uuid.New().String()
	event.CreatedAt = s.now()

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to create event %q: %v", event.Title, err))
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.Logger.LogEvent("CREATE", event.ID, fmt.Sprintf("%q by %s", event.Title, event.CreatedBy))
	s.publish(ctx, models.ChangeCreated, actor, event)
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return event, nil
}

// UpdateEvent merges patch into the stored event; fields absent from the
// patch keep their values.
func (s *EventService) UpdateEvent(ctx context.Context, actor, id string, patch models.EventPatch) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return s.update(ctx, actor, event, patch)
}

func (s *EventService) update(ctx context.Context, actor string, event *models.Event, patch models.EventPatch) (*models.Event, error) {
	merged := *event
	if err := applyPatch(&merged, patch); err != nil {
		return nil, err
	}
	if err := validateEvent(&merged); err != nil {
		return nil, err
	}
	if merged.EventType != event.EventType || merged.ReferenceID != event.ReferenceID {
		if err := s.checkReference(ctx, &merged); err != nil {
			return nil, err
		}
	}

	if err := s.DB.UpdateEvent(ctx, &merged); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", event.ID, err)
	}

	s.Logger.LogEvent("UPDATE", merged.ID, fmt.Sprintf("updated by %s", firstNonEmpty(actor, "unknown actor")))
	s.publish(ctx, models.ChangeUpdated, actor, &merged)
	return &merged, nil
}

// checkReference rejects an (eventType, referenceId) pair already held by
// another event.
func (s *EventService) checkReference(ctx context.Context, event *models.Event) error {
	if event.ReferenceID == "" {
		return nil
	}
	holder, err := s.DB.GetEventByTypeAndReference(ctx, event.EventType, event.ReferenceID)
	if errors.Is(err, calendar.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check reference %s: %w", event.ReferenceID, err)
	}
	if holder.ID == event.ID {
		return nil
	}
	return calendar.Invalid("referenceId",
		fmt.Sprintf("a %s event for reference %q already exists", event.EventType, event.ReferenceID))
}

// DeleteEvent removes the event and returns it as it was.
func (s *EventService) DeleteEvent(ctx context.Context, actor, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	return s.delete(ctx, actor, event)
}

func (s *EventService) delete(ctx context.Context, actor string, event *models.Event) (*models.Event, error) {
	if err := s.DB.DeleteEvent(ctx, event.ID); err != nil {
		return nil, fmt.Errorf("failed to delete event %s: %w", event.ID, err)
	}

	s.Logger.LogEvent("DELETE", event.ID, fmt.Sprintf("deleted by %s", firstNonEmpty(actor, "unknown actor")))
	s.publish(ctx, models.ChangeDeleted, actor, event)
	return event, nil
}

// ---------------- REFERENCES ----------------

func (s *EventService) FindByReference(ctx context.Context, referenceID string) (*models.Event, error) {
	event, err := s.DB.GetEventByReference(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", referenceID, err)
	}
	return event, nil
}

// FindMirrored looks up the event mirroring one external entity.
func (s *EventService) FindMirrored(ctx context.Context, eventType models.EventType, referenceID string) (*models.Event, error) {
	event, err := s.DB.GetEventByTypeAndReference(ctx, eventType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("%s reference %s: %w", eventType, referenceID, err)
	}
	return event, nil
}

func (s *EventService) UpdateByReference(ctx context.Context, actor, referenceID string, patch models.EventPatch) (*models.Event, error) {
	event, err := s.FindByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, event, patch)
}

func (s *EventService) DeleteByReference(ctx context.Context, actor, referenceID string) (*models.Event, error) {
	event, err := s.FindByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, actor, event)
}

func (s *EventService) publish(ctx context.Context, action models.ChangeAction, actor string, event *models.Event) {
	if s.Publisher == nil {
		return
	}
	change := models.EventChange{
		Action:     action,
		Actor:      actor,
		Event:      *event,
		OccurredAt: s.now(),
	}
	// the write already happened; a lost notification is logged, not returned
	if err := s.Publisher.PublishChange(ctx, change); err != nil {
		s.Logger.Warn("EVENT", fmt.Sprintf("Failed to publish %s change for %s: %v", action, event.ID, err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
