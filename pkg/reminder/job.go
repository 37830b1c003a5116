package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/ntfy"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
)

// TaskSource lists the open tasks.
type TaskSource interface {
	OpenTasks(ctx context.Context, direction notion.SortDirection) ([]model.Task, error)
}

// Notifier delivers one push notification.
type Notifier interface {
	Publish(ctx context.Context, msg ntfy.Message) error
}

// Mirror copies due tasks somewhere else, e.g. a calendar.
type Mirror interface {
	SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error)
	DeleteTask(ctx context.Context, taskID string) error
	// MirroredTaskIDs lists the tasks that currently have a mirror entry.
	MirroredTaskIDs() []string
	SaveIndex() error
}

// Summary reports what one run did.
type Summary struct {
	Skipped   bool
	Date      string
	Notified  int
	DueToday  int
	OpenTotal int
}

// Job sends one notification per open task, marking those due today.
type Job struct {
	Tasks    TaskSource
	Notifier Notifier
	Topic    string
	Location *time.Location
	Now      func() time.Time
	Log      logrus.FieldLogger

	// NewMirror is optional. It is called only once the run is inside the
	// window, and may return a nil Mirror to skip mirroring.
	NewMirror func(ctx context.Context) (Mirror, error)
}

// Run performs one reminder pass. Outside the hour window it returns
// without touching the record store or the notifier.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	log := j.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	loc := j.Location
	if loc == nil {
		var err error
		if loc, err = Location(); err != nil {
			return Summary{}, err
		}
	}

	current := now()
	local := current.In(loc)
	date := local.Format("2006-01-02")
	summary := Summary{Date: date}

	if !InWindow(current, loc) {
		log.Infof("Skipping reminders outside window (%d:00 %s)", local.Hour(), loc)
		summary.Skipped = true
		return summary, nil
	}

	allOpen, err := j.Tasks.OpenTasks(ctx, notion.Ascending)
	if err != nil {
		return summary, fmt.Errorf("failed to query open tasks: %w", err)
	}
	dueToday, err := FilterDueOn(allOpen, date, loc)
	if err != nil {
		return summary, err
	}
	entries := Merge(allOpen, dueToday)
	summary.OpenTotal = len(allOpen)
	summary.DueToday = len(dueToday)

	if len(entries) == 0 {
		err := j.Notifier.Publish(ctx, ntfy.Message{
			Topic: j.Topic,
			Title: "All clear",
			Tags:  []string{"warning"},
			Body:  fmt.Sprintf("No open tasks found for %s.", date),
		})
		if err != nil {
			return summary, err
		}
		summary.Notified = 1
		log.Info("Sent all-clear notification")
	} else {
		for _, entry := range entries {
			if err := j.Notifier.Publish(ctx, reminderMessage(j.Topic, entry)); err != nil {
				return summary, err
			}
			summary.Notified++
		}
		log.WithFields(logrus.Fields{"topic": j.Topic, "date": date}).Infof(
			"Sent %d reminder notification(s) (%d due today, %d open total)",
			summary.Notified, summary.DueToday, summary.OpenTotal)
	}

	if j.NewMirror != nil {
		mirror, err := j.NewMirror(ctx)
		switch {
		case err != nil:
			log.WithError(err).Warn("calendar mirror disabled")
		case mirror != nil:
			syncMirror(ctx, mirror, allOpen, dueToday, log)
		}
	}
	return summary, nil
}

// syncMirror upserts the tasks due today and revisits every other mirrored
// task: still open ones are resynced, the rest (done or gone) are removed.
func syncMirror(ctx context.Context, mirror Mirror, allOpen, dueToday []model.Task, log logrus.FieldLogger) {
	synced := make(map[string]bool, len(dueToday))
	for _, task := range dueToday {
		synced[task.ID] = true
		if _, err := mirror.SyncTask(ctx, task); err != nil {
			log.WithError(err).WithField("task_id", task.ID).Warn("could not mirror task to calendar")
		}
	}

	open := make(map[string]model.Task, len(allOpen))
	for _, task := range allOpen {
		open[task.ID] = task
	}
	for _, id := range mirror.MirroredTaskIDs() {
		if synced[id] {
			continue
		}
		if task, ok := open[id]; ok {
			if _, err := mirror.SyncTask(ctx, task); err != nil {
				log.WithError(err).WithField("task_id", id).Warn("could not mirror task to calendar")
			}
			continue
		}
		if err := mirror.DeleteTask(ctx, id); err != nil {
			log.WithError(err).WithField("task_id", id).Warn("could not remove calendar event")
		}
	}

	if err := mirror.SaveIndex(); err != nil {
		log.WithError(err).Warn("could not save event index")
	}
}

func reminderMessage(topic string, entry model.ReminderEntry) ntfy.Message {
	source := "all"
	if entry.IsDueToday {
		source = "today+all"
	}
	return ntfy.Message{
		Topic: topic,
		Title: "Task still open",
		Tags:  []string{"warning"},
		Body:  fmt.Sprintf("Task: %s\nDue: %s\nSource: %s", entry.Task.Task, entry.DueDate, source),
	}
}
