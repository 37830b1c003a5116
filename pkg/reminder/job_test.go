package reminder

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/ntfy"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
)

type fakeTasks struct {
	tasks []model.Task
	err   error
	calls int
}

func (f *fakeTasks) OpenTasks(context.Context, notion.SortDirection) ([]model.Task, error) {
	f.calls++
	return f.tasks, f.err
}

type fakeNotifier struct {
	sent []ntfy.Message
	err  error
}

func (f *fakeNotifier) Publish(_ context.Context, msg ntfy.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeMirror struct {
	mirrored []string
	synced   []string
	deleted  []string
	saved    bool
}

func (f *fakeMirror) SyncTask(_ context.Context, task model.Task) (*calendar.Event, error) {
	f.synced = append(f.synced, task.ID)
	return &calendar.Event{}, nil
}

func (f *fakeMirror) DeleteTask(_ context.Context, taskID string) error {
	f.deleted = append(f.deleted, taskID)
	return nil
}

func (f *fakeMirror) MirroredTaskIDs() []string { return f.mirrored }

func (f *fakeMirror) SaveIndex() error {
	f.saved = true
	return nil
}

func mirrorFactory(m *fakeMirror, calls *int) func(context.Context) (Mirror, error) {
	return func(context.Context) (Mirror, error) {
		*calls++
		return m, nil
	}
}

func newJob(t *testing.T, tasks *fakeTasks, notifier *fakeNotifier, hour int) *Job {
	loc := zurich(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Job{
		Tasks:    tasks,
		Notifier: notifier,
		Topic:    "reminders",
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 3, 15, hour, 0, 0, 0, loc) },
		Log:      log,
	}
}

func TestRunSkipsOutsideWindow(t *testing.T) {
	tasks := &fakeTasks{}
	notifier := &fakeNotifier{}
	job := newJob(t, tasks, notifier, 8)
	var factoryCalls int
	job.NewMirror = mirrorFactory(&fakeMirror{}, &factoryCalls)

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Skipped || tasks.calls != 0 || len(notifier.sent) != 0 {
		t.Errorf("Expected skipped run without calls, got %+v, %d queries, %d sent", summary, tasks.calls, len(notifier.sent))
	}
	if factoryCalls != 0 {
		t.Errorf("Expected no mirror setup outside the window, got %d calls", factoryCalls)
	}
}

func TestRunNotifiesEveryOpenTask(t *testing.T) {
	tasks := &fakeTasks{tasks: []model.Task{
		{ID: "A", Task: "Taxes", DueDate: "2024-03-10"},
		{ID: "B", Task: "Laundry", DueDate: "2024-03-15"},
	}}
	notifier := &fakeNotifier{}
	mirror := &fakeMirror{}
	job := newJob(t, tasks, notifier, 12)
	var factoryCalls int
	job.NewMirror = mirrorFactory(mirror, &factoryCalls)

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Notified != 2 || summary.DueToday != 1 || summary.OpenTotal != 2 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(notifier.sent))
	}
	first := notifier.sent[0]
	if first.Title != "Task still open" || first.Topic != "reminders" || first.Tags[0] != "warning" {
		t.Errorf("Unexpected message %+v", first)
	}
	if first.Body != "Task: Taxes\nDue: 2024-03-10\nSource: all" {
		t.Errorf("Unexpected body %q", first.Body)
	}
	if notifier.sent[1].Body != "Task: Laundry\nDue: 2024-03-15\nSource: today+all" {
		t.Errorf("Unexpected body %q", notifier.sent[1].Body)
	}
	if len(mirror.synced) != 1 || mirror.synced[0] != "B" || !mirror.saved {
		t.Errorf("Expected only B mirrored, got %v (saved=%v)", mirror.synced, mirror.saved)
	}
}

func TestRunAllClear(t *testing.T) {
	notifier := &fakeNotifier{}
	summary, err := newJob(t, &fakeTasks{}, notifier, 22).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(notifier.sent) != 1 || summary.Notified != 1 {
		t.Fatalf("Expected one all-clear message, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.Title != "All clear" || msg.Body != "No open tasks found for 2024-03-15." {
		t.Errorf("Unexpected all-clear %+v", msg)
	}
}

func TestRunFailsOnBadDueDate(t *testing.T) {
	tasks := &fakeTasks{tasks: []model.Task{{ID: "A", Task: "Taxes", DueDate: "soon"}}}
	notifier := &fakeNotifier{}
	if _, err := newJob(t, tasks, notifier, 15).Run(context.Background()); err == nil {
		t.Error("Expected error for unparsable due date")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("Expected no notifications, got %d", len(notifier.sent))
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := newJob(t, &fakeTasks{err: boom}, &fakeNotifier{}, 15).Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected query error, got %v", err)
	}

	ntfyErr := &ntfy.Error{Status: 500, Body: "down"}
	tasks := &fakeTasks{tasks: []model.Task{{ID: "A", Task: "Taxes", DueDate: "2024-03-15"}}}
	_, err := newJob(t, tasks, &fakeNotifier{err: ntfyErr}, 15).Run(context.Background())
	var got *ntfy.Error
	if !errors.As(err, &got) {
		t.Errorf("Expected ntfy error, got %v", err)
	}
}

func TestRunMirrorRevisitsMirroredTasks(t *testing.T) {
	tasks := &fakeTasks{tasks: []model.Task{
		{ID: "A", Task: "Taxes", DueDate: "2024-03-10"},
		{ID: "B", Task: "Laundry", DueDate: "2024-03-15"},
	}}
	// A is still open but overdue, B is due today and already mirrored,
	// C was done or deleted since the last run.
	mirror := &fakeMirror{mirrored: []string{"A", "B", "C"}}
	job := newJob(t, tasks, &fakeNotifier{}, 14)
	var factoryCalls int
	job.NewMirror = mirrorFactory(mirror, &factoryCalls)

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if factoryCalls != 1 {
		t.Errorf("Expected one mirror setup, got %d", factoryCalls)
	}
	if len(mirror.synced) != 2 || mirror.synced[0] != "B" || mirror.synced[1] != "A" {
		t.Errorf("Expected B then A synced, got %v", mirror.synced)
	}
	if len(mirror.deleted) != 1 || mirror.deleted[0] != "C" {
		t.Errorf("Expected only C removed, got %v", mirror.deleted)
	}
	if !mirror.saved {
		t.Error("Expected index saved")
	}
}

func TestRunAllClearRemovesMirroredTasks(t *testing.T) {
	mirror := &fakeMirror{mirrored: []string{"A"}}
	job := newJob(t, &fakeTasks{}, &fakeNotifier{}, 14)
	var factoryCalls int
	job.NewMirror = mirrorFactory(mirror, &factoryCalls)

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mirror.deleted) != 1 || mirror.deleted[0] != "A" || len(mirror.synced) != 0 {
		t.Errorf("Expected A removed and nothing synced, got deleted=%v synced=%v", mirror.deleted, mirror.synced)
	}
}

func TestRunMirrorSetupFailureIsLogged(t *testing.T) {
	notifier := &fakeNotifier{}
	tasks := &fakeTasks{tasks: []model.Task{{ID: "B", Task: "Laundry", DueDate: "2024-03-15"}}}
	job := newJob(t, tasks, notifier, 14)
	job.NewMirror = func(context.Context) (Mirror, error) { return nil, errors.New("no token") }

	summary, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected mirror failure to be ignored, got %v", err)
	}
	if summary.Notified != 1 || len(notifier.sent) != 1 {
		t.Errorf("Expected the notification sent anyway, got %+v", summary)
	}
}
