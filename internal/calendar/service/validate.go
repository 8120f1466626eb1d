package events

import (
	"strings"
	"time"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

func applyDefaults(event *models.Event) {
	if event.EventType == "" {
		event.EventType = models.EventTypeGeneral
	}
	if event.Priority == "" {
		event.Priority = models.PriorityMedium
	}
	event.Start = utils.NormalizeTime(event.Start)
	event.End = utils.NormalizeTime(event.End)
}

// validateEvent checks the invariants every stored event satisfies.
// An end before the start is rejected; equal instants are allowed.
func validateEvent(event *models.Event) error {
	if strings.TrimSpace(event.Title) == "" {
		return calendar.Invalid("title", "is required")
	}
	if event.Start.IsZero() {
		return calendar.Invalid("start", "is required")
	}
	if event.End.IsZero() {
		return calendar.Invalid("end", "is required")
	}
	if event.End.Before(event.Start) {
		return calendar.Invalid("end", "must not be before start")
	}
	if !event.EventType.Valid() {
		return calendar.Invalid("eventType", "must be one of general, bug, code_review, forum_topic")
	}
	if !event.Priority.Valid() {
		return calendar.Invalid("priority", "must be one of low, medium, high")
	}
	return nil
}

func parseRequired(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, calendar.Invalid(field, "is required")
	}
	parsed, err := utils.ParseTime(value)
	if err != nil {
		return time.Time{}, calendar.Invalid(field, err.Error())
	}
	return utils.NormalizeTime(parsed), nil
}

func applyPatch(event *models.Event, patch models.EventPatch) error {
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Start != nil {
		start, err := parseRequired("start", *patch.Start)
		if err != nil {
			return err
		}
		event.Start = start
	}
	if patch.End != nil {
		end, err := parseRequired("end", *patch.End)
		if err != nil {
			return err
		}
		event.End = end
	}
	if patch.AllDay != nil {
		event.AllDay = *patch.AllDay
	}
	if patch.Desc != nil {
		event.Desc = *patch.Desc
	}
	if patch.CreatedBy != nil {
		event.CreatedBy = *patch.CreatedBy
	}
	if patch.EventType != nil {
		event.EventType = *patch.EventType
	}
	if patch.ReferenceID != nil {
		event.ReferenceID = strings.TrimSpace(*patch.ReferenceID)
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	if patch.Priority != nil {
		event.Priority = *patch.Priority
	}
	return nil
}
