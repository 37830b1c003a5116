package google

import (
	"context"
	"fmt"
	"time"

	"github.com/adranna/tasknotes/pkg/index"
	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/util"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
)

// CalendarClient mirrors tasks into one Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	loc        *time.Location
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewCalendarClient wraps an existing calendar service.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, loc *time.Location, log logrus.FieldLogger) *CalendarClient {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, loc: loc, now: time.Now, log: log}
}

// SyncTask creates the event for task or patches the existing one.
func (c *CalendarClient) SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error) {
	target, err := util.ConvertTaskToCalendarEvent(&task, c.now(), c.loc)
	if err != nil {
		return nil, err
	}

	var existing *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(task.ID); eventID != "" {
			existing, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil {
				// stale index entry, fall back to search
				existing = nil
			}
		}
	}
	if existing == nil {
		existing, err = c.GetEventByTaskID(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing != nil {
		patch, err := util.EventNeedsUpdate(existing, target)
		if err != nil {
			c.log.WithError(err).WithField("task_id", task.ID).Warn("could not compare task with its calendar event")
			return nil, err
		}
		if patch == nil {
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err == nil && c.index != nil {
			c.index.Set(task.ID, updated.Id)
		}
		return updated, err
	}

	created, err := c.srv.Events.Insert(c.calendarID, target).Context(ctx).Do()
	if err == nil && c.index != nil {
		c.index.Set(task.ID, created.Id)
	}
	return created, err
}

// DeleteTask removes the event mirroring taskID, if any.
func (c *CalendarClient) DeleteTask(ctx context.Context, taskID string) error {
	event, err := c.GetEventByTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	if event != nil {
		if err := c.srv.Events.Delete(c.calendarID, event.Id).Context(ctx).Do(); err != nil {
			return err
		}
	}
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return nil
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// GetEventByTaskID finds the event tagged with the task id, or nil.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// MirroredTaskIDs returns the task ids recorded in the event index.
func (c *CalendarClient) MirroredTaskIDs() []string {
	if c.index == nil {
		return nil
	}
	return c.index.TaskIDs()
}

// SaveIndex persists the task to event mapping.
func (c *CalendarClient) SaveIndex() error {
	if c.index == nil {
		return nil
	}
	return c.index.Save()
}
