package events_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/calendar/db"
	events "ms-calendar/internal/calendar/service"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

// recordingPublisher keeps every change it is handed.
type recordingPublisher struct {
	changes []models.EventChange
	err     error
}

func (p *recordingPublisher) PublishChange(_ context.Context, change models.EventChange) error {
	p.changes = append(p.changes, change)
	return p.err
}

func newService(t *testing.T) (*events.EventService, *recordingPublisher) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, db.CreateSchema(context.Background(), bunDB))

	pub := &recordingPublisher{}
	svc := events.NewEventService(&db.DB{Bun: bunDB}, pub, logger.NewLoggerTo(io.Discard))
	svc.Now = func() time.Time { return now }
	return svc, pub
}

func input(title, start, end string) models.EventInput {
	return models.EventInput{Title: title, Start: start, End: end}
}

func strPtr(s string) *string { return &s }

func TestCreateEventAppliesDefaults(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, "", input("Team Meeting", "2025-04-10T10:00:00Z", "2025-04-10T11:00:00Z"))
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, events.AnonymousActor, event.CreatedBy)
	assert.Equal(t, models.EventTypeGeneral, event.EventType)
	assert.Equal(t, models.PriorityMedium, event.Priority)
	assert.Equal(t, "", event.Desc)
	assert.False(t, event.AllDay)
	assert.True(t, event.CreatedAt.Equal(now))

	stored, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team Meeting", stored.Title)

	require.Len(t, pub.changes, 1)
	assert.Equal(t, models.ChangeCreated, pub.changes[0].Action)
	assert.Equal(t, event.ID, pub.changes[0].Event.ID)
}

func TestCreateEventActorPrecedence(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := input("Lunch", "2025-04-10T12:00:00Z", "2025-04-10T13:00:00Z")
	in.CreatedBy = "body-user"

	fromBody, err := svc.CreateEvent(ctx, "", in)
	require.NoError(t, err)
	assert.Equal(t, "body-user", fromBody.CreatedBy)

	fromActor, err := svc.CreateEvent(ctx, "header-user", in)
	require.NoError(t, err)
	assert.Equal(t, "header-user", fromActor.CreatedBy)
}

func TestCreateEventValidation(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    models.EventInput
		field string
	}{
		{"missing title", input("  ", "2025-04-10T10:00:00Z", "2025-04-10T11:00:00Z"), "title"},
		{"missing start", input("x", "", "2025-04-10T11:00:00Z"), "start"},
		{"bad end", input("x", "2025-04-10T10:00:00Z", "tomorrow"), "end"},
		{"end before start", input("x", "2025-04-10T10:00:00Z", "2025-04-10T09:00:00Z"), "end"},
		{"unknown type", models.EventInput{Title: "x", Start: "2025-04-10", End: "2025-04-10", EventType: "meeting"}, "eventType"},
		{"unknown priority", models.EventInput{Title: "x", Start: "2025-04-10", End: "2025-04-10", Priority: "urgent"}, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEvent(ctx, "", tt.in)
			var verr *calendar.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	all, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, pub.changes)
}

func TestCreateEventAllowsZeroLength(t *testing.T) {
	svc, _ := newService(t)

	event, err := svc.CreateEvent(context.Background(), "", input("Deadline", "2025-04-11T17:00:00Z", "2025-04-11T17:00:00Z"))
	require.NoError(t, err)
	assert.True(t, event.Start.Equal(event.End))
}

func TestUpdateEventMergesFields(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	in := input("Planning", "2025-04-10T10:00:00Z", "2025-04-10T11:00:00Z")
	in.Desc = "Q2"
	in.CreatedBy = "ana"
	created, err := svc.CreateEvent(ctx, "", in)
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, "ana", created.ID, models.EventPatch{Title: strPtr("Planning v2")})
	require.NoError(t, err)
	assert.Equal(t, "Planning v2", updated.Title)
	assert.Equal(t, "Q2", updated.Desc)
	assert.Equal(t, "ana", updated.CreatedBy)
	assert.True(t, updated.Start.Equal(created.Start))
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	stored, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Planning v2", stored.Title)
	assert.Equal(t, "Q2", stored.Desc)

	require.Len(t, pub.changes, 2)
	assert.Equal(t, models.ChangeUpdated, pub.changes[1].Action)
	assert.Equal(t, "ana", pub.changes[1].Actor)
}

func TestUpdateEventRejectsInvertedRange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, "", input("Sprint", "2025-04-10T10:00:00Z", "2025-04-10T11:00:00Z"))
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, "", created.ID, models.EventPatch{End: strPtr("2025-04-09T10:00:00Z")})
	assert.True(t, calendar.IsValidation(err))

	stored, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.End.Equal(created.End))
}

func TestUpdateAndDeleteMissingEvent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpdateEvent(ctx, "", "nope", models.EventPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, calendar.ErrNotFound)

	_, err = svc.DeleteEvent(ctx, "", "nope")
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestDeleteEventReturnsRemovedRecord(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, "", input("Retro", "2025-04-10T15:00:00Z", "2025-04-10T16:00:00Z"))
	require.NoError(t, err)

	deleted, err := svc.DeleteEvent(ctx, "bo", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Retro", deleted.Title)

	_, err = svc.GetEvent(ctx, created.ID)
	assert.ErrorIs(t, err, calendar.ErrNotFound)

	require.Len(t, pub.changes, 2)
	assert.Equal(t, models.ChangeDeleted, pub.changes[1].Action)
}

func TestDirectCreateRejectsDuplicateReference(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := input("Bug: Crash", "2025-04-10T10:00:00Z", "2025-04-13T10:00:00Z")
	in.EventType = models.EventTypeBug
	in.ReferenceID = "B7"

	_, err := svc.CreateEvent(ctx, "", in)
	require.NoError(t, err)

	_, err = svc.CreateEvent(ctx, "", in)
	var verr *calendar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "referenceId", verr.Field)
}

func TestUpdateRejectsReferenceHeldByAnotherEvent(t *testing.T) {
	svc, pub := newService(t)
	ctx := context.Background()

	bug := func(ref string) models.EventInput {
		in := input("Bug: "+ref, "2025-04-10T10:00:00Z", "2025-04-13T10:00:00Z")
		in.EventType = models.EventTypeBug
		in.ReferenceID = ref
		return in
	}
	first, err := svc.CreateEvent(ctx, "system", bug("B1"))
	require.NoError(t, err)
	second, err := svc.CreateEvent(ctx, "system", bug("B2"))
	require.NoError(t, err)

	_, err = svc.UpdateByReference(ctx, "tracker", "B2", models.EventPatch{ReferenceID: strPtr("B1")})
	var verr *calendar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "referenceId", verr.Field)

	_, err = svc.UpdateEvent(ctx, "tracker", second.ID, models.EventPatch{ReferenceID: strPtr(" B1 ")})
	require.ErrorAs(t, err, &verr)

	stored, err := svc.GetEvent(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "B2", stored.ReferenceID)

	// re-sending its own reference, or moving to a different type, is fine
	updated, err := svc.UpdateEvent(ctx, "tracker", first.ID, models.EventPatch{ReferenceID: strPtr("B1"), Status: strPtr("Fixed")})
	require.NoError(t, err)
	assert.Equal(t, "Fixed", updated.Status)

	review := models.EventTypeCodeReview
	moved, err := svc.UpdateEvent(ctx, "tracker", second.ID, models.EventPatch{EventType: &review, ReferenceID: strPtr("B1")})
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeCodeReview, moved.EventType)
	assert.Len(t, pub.changes, 4)
}

func TestUpdateReferenceCheckStorageError(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := events.NewEventService(mockDB, nil, logger.NewLoggerTo(io.Discard))
	ctx := context.Background()

	stored := &models.Event{
		ID: "1", Title: "Bug: x", EventType: models.EventTypeBug, ReferenceID: "B1",
		Start: now, End: now.Add(time.Hour), Priority: models.PriorityMedium,
	}
	mockDB.On("GetEventByID", ctx, "1").Return(stored, nil)
	mockDB.On("GetEventByTypeAndReference", ctx, models.EventTypeBug, "B9").Return(nil, errors.New("connection reset"))

	_, err := svc.UpdateEvent(ctx, "", "1", models.EventPatch{ReferenceID: strPtr("B9")})
	require.Error(t, err)
	assert.False(t, calendar.IsValidation(err))
	mockDB.AssertNotCalled(t, "UpdateEvent", mock.Anything, mock.Anything)
}

func TestReferenceOperations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := input("Review: API", "2025-04-10T10:00:00Z", "2025-04-12T10:00:00Z")
	in.EventType = models.EventTypeCodeReview
	in.ReferenceID = "R1"
	in.Status = "Pending"
	_, err := svc.CreateEvent(ctx, "system", in)
	require.NoError(t, err)

	found, err := svc.FindByReference(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "Review: API", found.Title)

	mirrored, err := svc.FindMirrored(ctx, models.EventTypeCodeReview, "R1")
	require.NoError(t, err)
	assert.Equal(t, found.ID, mirrored.ID)

	updated, err := svc.UpdateByReference(ctx, "reviewer", "R1", models.EventPatch{Status: strPtr("Approved")})
	require.NoError(t, err)
	assert.Equal(t, "Approved", updated.Status)
	assert.Equal(t, "Review: API", updated.Title)

	deleted, err := svc.DeleteByReference(ctx, "reviewer", "R1")
	require.NoError(t, err)
	assert.Equal(t, found.ID, deleted.ID)

	_, err = svc.FindByReference(ctx, "R1")
	assert.ErrorIs(t, err, calendar.ErrNotFound)

	_, err = svc.DeleteByReference(ctx, "reviewer", "R1")
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := newService(t)
	pub.err = errors.New("broker down")

	event, err := svc.CreateEvent(context.Background(), "", input("Offsite", "2025-05-01", "2025-05-02"))
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Len(t, pub.changes, 1)
}

func TestPublishersFanOut(t *testing.T) {
	first := &recordingPublisher{err: errors.New("first failed")}
	second := &recordingPublisher{}

	err := events.Publishers{first, nil, second}.PublishChange(context.Background(), models.EventChange{Action: models.ChangeCreated})
	assert.ErrorContains(t, err, "first failed")
	assert.Len(t, first.changes, 1)
	assert.Len(t, second.changes, 1)
}

// MockEventDBLayer covers the storage failure paths.
type MockEventDBLayer struct {
	mock.Mock
	events.EventDBLayer
}

func (m *MockEventDBLayer) CreateEvent(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventDBLayer) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) GetEventByTypeAndReference(ctx context.Context, eventType models.EventType, referenceID string) (*models.Event, error) {
	args := m.Called(ctx, eventType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) ListEventsByCreator(ctx context.Context, createdBy string) ([]models.Event, error) {
	args := m.Called(ctx, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func TestCreateEventStorageFailure(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	pub := &recordingPublisher{}
	svc := events.NewEventService(mockDB, pub, logger.NewLoggerTo(io.Discard))

	mockDB.On("CreateEvent", mock.Anything, mock.AnythingOfType("*models.Event")).Return(errors.New("disk full"))

	event, err := svc.CreateEvent(context.Background(), "ana", input("Demo", "2025-04-10", "2025-04-10"))
	assert.Nil(t, event)
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, calendar.IsValidation(err))
	assert.Empty(t, pub.changes)
	mockDB.AssertExpectations(t)
}

func TestListByCreator(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := events.NewEventService(mockDB, nil, nil)
	ctx := context.Background()

	mockDB.On("ListEventsByCreator", ctx, "ghost").Return([]models.Event{}, nil)
	mockDB.On("ListEventsByCreator", ctx, "ana").Return([]models.Event{{ID: "1", CreatedBy: "ana"}}, nil)
	mockDB.On("ListEventsByCreator", ctx, "broken").Return(nil, errors.New("connection reset"))

	_, err := svc.ListByCreator(ctx, "ghost")
	assert.ErrorIs(t, err, calendar.ErrNotFound)

	list, err := svc.ListByCreator(ctx, "ana")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListByCreator(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, calendar.ErrNotFound)
}
