package calendar_api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"ms-calendar/internal/models"

	"github.com/emersion/go-ical"
)

var icalPriority = map[models.Priority]string{
	models.PriorityHigh:   "1",
	models.PriorityMedium: "5",
	models.PriorityLow:    "9",
}

// CalendarFeed serves the calendar as text/calendar, optionally for one
// creator. An empty calendar is a 404; VCALENDAR needs at least one child.
func (h *Handler) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	createdBy := r.URL.Query().Get("createdBy")

	var (
		list []models.Event
		err  error
	)
	if createdBy != "" {
		list, err = h.EventService.ListByCreator(ctx, createdBy)
	} else {
		list, err = h.EventService.ListEvents(ctx)
	}
	if err != nil {
		h.sendError(w, "CalendarFeed", err)
		return
	}
	if len(list) == 0 {
		h.sendMessage(w, http.StatusNotFound, "No events to export")
		return
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(h.toCalendar(list)); err != nil {
		h.sendError(w, "CalendarFeed", fmt.Errorf("encode calendar: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) toCalendar(list []models.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, h.ICSProductID)

	stamp := time.Now().UTC()
	for i := range list {
		cal.Children = append(cal.Children, toVEvent(&list[i], stamp))
	}
	return cal
}

// toVEvent converts an event to a VEVENT. All-day events use DATE values
// with an exclusive end.
func toVEvent(event *models.Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	// go-ical writes UTC with a Z suffix and any other location as a TZID
	// this feed never defines.
	start, end := event.Start.UTC(), event.End.UTC()
	if event.AllDay {
		if !end.After(start) || sameDay(start, end) {
			end = start.AddDate(0, 0, 1)
		}
		ve.Props.SetDate(ical.PropDateTimeStart, start)
		ve.Props.SetDate(ical.PropDateTimeEnd, end)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, start)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, end)
	}

	if event.Desc != "" {
		ve.Props.SetText(ical.PropDescription, event.Desc)
	}
	ve.Props.SetText(ical.PropCategories, string(event.EventType))
	if p, ok := icalPriority[event.Priority]; ok {
		// PRIORITY is an INTEGER; SetText would tag it VALUE=TEXT
		prop := ical.NewProp(ical.PropPriority)
		prop.Value = p
		ve.Props.Set(prop)
	}
	return ve
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
