package events_test

import (
	"context"
	"testing"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventTitles(list []models.Event) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Title)
	}
	return out
}

func TestListInRange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, "ana", input("Workshop", "2025-04-10T10:00:00Z", "2025-04-10T12:00:00Z"))
	require.NoError(t, err)

	list, err := svc.ListInRange(ctx, "2025-04-10T09:00:00Z", "2025-04-10T13:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, []string{"Workshop"}, eventTitles(list))

	list, err = svc.ListInRange(ctx, "2025-04-10T09:00:00Z", "2025-04-10T11:30:00Z")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ListInRange(ctx, "", "2025-04-10T13:00:00Z")
	assert.True(t, calendar.IsValidation(err))

	_, err = svc.ListInRange(ctx, "2025-04-10T09:00:00Z", "soon")
	assert.True(t, calendar.IsValidation(err))
}

func TestListUpcomingUsesClock(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, in := range []struct{ title, start, end, by string }{
		{"Past", "2025-04-09T10:00:00Z", "2025-04-09T11:00:00Z", "ana"},
		{"Later", "2025-04-12T10:00:00Z", "2025-04-12T11:00:00Z", "ana"},
		{"Sooner", "2025-04-11T10:00:00Z", "2025-04-11T11:00:00Z", "bo"},
	} {
		_, err := svc.CreateEvent(ctx, in.by, input(in.title, in.start, in.end))
		require.NoError(t, err)
	}

	list, err := svc.ListUpcoming(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sooner", "Later"}, eventTitles(list))

	list, err = svc.ListUpcoming(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"Later"}, eventTitles(list))
}

func TestSearchAndTypeQueries(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, "ana", input("Design review", "2025-04-11T10:00:00Z", "2025-04-11T11:00:00Z"))
	require.NoError(t, err)

	bug := input("Bug: Login fails", "2025-04-10T12:00:00Z", "2025-04-13T12:00:00Z")
	bug.EventType = models.EventTypeBug
	bug.ReferenceID = "B1"
	_, err = svc.CreateEvent(ctx, "system", bug)
	require.NoError(t, err)

	list, err := svc.Search(ctx, "REVIEW", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Design review"}, eventTitles(list))

	list, err = svc.Search(ctx, "review", "system")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Search(ctx, " ", "")
	assert.True(t, calendar.IsValidation(err))

	list, err = svc.ListByType(ctx, models.EventTypeBug)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bug: Login fails"}, eventTitles(list))

	_, err = svc.ListByType(ctx, "meeting")
	assert.True(t, calendar.IsValidation(err))

	creators, err := svc.ListCreators(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "system"}, creators)

	counts, err := svc.CountPerCreator(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CreatorCount{{CreatedBy: "ana", Count: 1}, {CreatedBy: "system", Count: 1}}, counts)
}
