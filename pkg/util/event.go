package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "notion_task_id"

const timedEventDuration = 30 * time.Minute

// ConvertTaskToCalendarEvent builds the calendar event mirroring task.
// Plain due dates become all-day events, date-times become short timed events.
func ConvertTaskToCalendarEvent(task *model.Task, now time.Time, loc *time.Location) (*calendar.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}

	due, plain, err := ParseDate(task.DueDate, loc)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}

	prefix := ""
	if task.Done {
		prefix = "✓"
	} else if (plain && LocalDate(now, loc) > task.DueDate) || (!plain && due.Before(now)) {
		prefix = "!"
	}
	summary := task.Task
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, task.Task)
	}

	var desc strings.Builder
	status := "open"
	if task.Done {
		status = "done"
	}
	desc.WriteString(fmt.Sprintf("Status: %s\n", status))
	desc.WriteString(fmt.Sprintf("Due: %s\n", task.DueDate))
	if task.DoneAt != nil {
		desc.WriteString(fmt.Sprintf("Done at: %s\n", *task.DoneAt))
	}
	desc.WriteString(fmt.Sprintf("ID: %s\n", task.ID))

	event := &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}
	if plain {
		event.Start = &calendar.EventDateTime{Date: task.DueDate}
		event.End = &calendar.EventDateTime{Date: due.AddDate(0, 0, 1).Format(PlainDateLayout)}
	} else {
		event.Start = &calendar.EventDateTime{DateTime: due.UTC().Format(time.RFC3339)}
		event.End = &calendar.EventDateTime{DateTime: due.Add(timedEventDuration).UTC().Format(time.RFC3339)}
	}
	return event, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is already current.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}

	sameStart, err := sameEventTime(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameEventTime(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameEventTime(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	if a.Date != "" || b.Date != "" {
		return a.Date == b.Date, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}
