package util

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/adranna/tasknotes/pkg/model"
	"google.golang.org/api/calendar/v3"
)

func TestParseDate(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	cases := []struct {
		in    string
		plain bool
		want  time.Time
	}{
		{"2024-03-15", true, time.Date(2024, 3, 15, 0, 0, 0, 0, zurich)},
		{"2024-03-15T09:00:00Z", false, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"2024-03-15T09:00:00.000+01:00", false, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)},
		{"2024-03-15T09:30", false, time.Date(2024, 3, 15, 9, 30, 0, 0, zurich)},
	}
	for _, c := range cases {
		got, plain, err := ParseDate(c.in, zurich)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", c.in, err)
			continue
		}
		if plain != c.plain {
			t.Errorf("ParseDate(%q): expected plain=%v, got %v", c.in, c.plain, plain)
		}
		if !got.Equal(c.want) {
			t.Errorf("ParseDate(%q): expected %v, got %v", c.in, c.want, got)
		}
	}

	for _, bad := range []string{"not-a-date", "", "2024-13-45", "15.03.2024"} {
		if _, _, err := ParseDate(bad, zurich); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q): expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 4, 5, 123456789, time.FixedZone("CET", 3600))
	if got := FormatTimestamp(ts); got != "2024-03-15T09:04:05.123Z" {
		t.Errorf("Expected 2024-03-15T09:04:05.123Z, got %s", got)
	}
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	task := &model.Task{ID: "page-1", Task: "Laundry", DueDate: "2024-03-15"}

	event, err := ConvertTaskToCalendarEvent(task, now, time.UTC)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}
	if event.ExtendedProperties == nil || event.ExtendedProperties.Private[TaskIDProperty] != "page-1" {
		t.Errorf("Expected %s page-1, got %+v", TaskIDProperty, event.ExtendedProperties)
	}
	if event.Summary != "Laundry" {
		t.Errorf("Expected summary 'Laundry', got '%s'", event.Summary)
	}
	if event.Start.Date != "2024-03-15" || event.End.Date != "2024-03-16" {
		t.Errorf("Expected all-day event on 2024-03-15, got %s..%s", event.Start.Date, event.End.Date)
	}
	if !strings.Contains(event.Description, "Status: open") {
		t.Errorf("Expected description to contain status, got: %s", event.Description)
	}

	overdue := &model.Task{ID: "page-2", Task: "Taxes", DueDate: "2024-03-15T09:00:00Z"}
	event, err = ConvertTaskToCalendarEvent(overdue, now, time.UTC)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}
	if event.Summary != "! Taxes" {
		t.Errorf("Expected summary '! Taxes', got '%s'", event.Summary)
	}
	if event.Start.DateTime != "2024-03-15T09:00:00Z" || event.End.DateTime != "2024-03-15T09:30:00Z" {
		t.Errorf("Unexpected timed event %s..%s", event.Start.DateTime, event.End.DateTime)
	}

	if _, err := ConvertTaskToCalendarEvent(&model.Task{ID: "x", DueDate: "soon"}, now, time.UTC); err == nil {
		t.Error("Expected error for unparsable due date")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	existing := &calendar.Event{
		Summary: "Laundry",
		Start:   &calendar.EventDateTime{Date: "2024-03-15"},
		End:     &calendar.EventDateTime{Date: "2024-03-16"},
	}
	same := &calendar.Event{
		Summary: "Laundry",
		Start:   &calendar.EventDateTime{Date: "2024-03-15"},
		End:     &calendar.EventDateTime{Date: "2024-03-16"},
	}
	patch, err := EventNeedsUpdate(existing, same)
	if err != nil {
		t.Fatalf("EventNeedsUpdate failed: %v", err)
	}
	if patch != nil {
		t.Errorf("Expected no patch, got %+v", patch)
	}

	moved := &calendar.Event{
		Summary: "✓ Laundry",
		Start:   &calendar.EventDateTime{Date: "2024-03-16"},
		End:     &calendar.EventDateTime{Date: "2024-03-17"},
	}
	patch, err = EventNeedsUpdate(existing, moved)
	if err != nil {
		t.Fatalf("EventNeedsUpdate failed: %v", err)
	}
	if patch == nil || patch.Summary != "✓ Laundry" || patch.Start.Date != "2024-03-16" {
		t.Errorf("Expected summary and date patch, got %+v", patch)
	}
}
