// Package tasksync keeps a client-side task list in step with the record
// store. Completion edits are applied locally first, rolled back when the
// remote write fails, and always followed by a fresh load.
package tasksync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/util"
	"github.com/sirupsen/logrus"
)

// UpdateFailedNotice is shown after a rolled back edit.
const UpdateFailedNotice = "Unable to update task."

var (
	ErrInFlight    = errors.New("task update already in flight")
	ErrUnknownTask = errors.New("task not in cache")
)

// Remote is the authoritative source the controller reconciles against.
type Remote interface {
	LoadTasks(ctx context.Context) ([]model.Task, error)
	MarkTaskDone(ctx context.Context, taskID string, done bool, doneAt *time.Time) error
}

// State is a copy of what the UI renders.
type State struct {
	Tasks      []model.Task
	Loaded     bool
	LoadFailed bool
	Notice     string
	InFlight   []string
}

// Controller owns the cached task list.
type Controller struct {
	remote Remote
	log    logrus.FieldLogger
	now    func() time.Time

	mu         sync.Mutex
	tasks      []model.Task
	loaded     bool
	loadFailed bool
	notice     string
	inFlight   map[string]struct{}
	onChange   func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

// WithClock replaces time.Now for optimistic completion stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// OnChange registers fn to receive the state after every change. fn runs
// without the controller lock held.
func OnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a Controller with an empty cache.
func New(remote Remote, opts ...Option) *Controller {
	c := &Controller{
		remote:   remote,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh replaces the cache with a fresh load. On failure the last good
// list stays in place and LoadFailed is set.
func (c *Controller) Refresh(ctx context.Context) error {
	tasks, err := c.remote.LoadTasks(ctx)

	c.mu.Lock()
	if err != nil {
		c.loadFailed = true
	} else {
		c.tasks = tasks
		c.loaded = true
		c.loadFailed = false
	}
	state := c.stateLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Warn("could not load tasks")
	}
	c.emit(state)
	return err
}

// SetDone changes the completion state of one cached task. The cache shows
// the new state at once; if the remote write fails it is restored to the
// exact list seen before the edit and the failure notice is set. Starting
// an edit clears any earlier notice. A refresh always follows. A second edit
// of the same task while one is outstanding returns ErrInFlight.
func (c *Controller) SetDone(ctx context.Context, taskID string, done bool) error {
	var doneAt *time.Time
	if done {
		at := c.now()
		doneAt = &at
	}

	c.mu.Lock()
	if _, busy := c.inFlight[taskID]; busy {
		c.mu.Unlock()
		return ErrInFlight
	}
	pos := -1
	for i, task := range c.tasks {
		if task.ID == taskID {
			pos = i
			break
		}
	}
	if pos < 0 {
		c.mu.Unlock()
		return ErrUnknownTask
	}

	snapshot := c.tasks
	patched := make([]model.Task, len(snapshot))
	copy(patched, snapshot)
	var stamp *string
	if doneAt != nil {
		s := util.FormatTimestamp(*doneAt)
		stamp = &s
	}
	patched[pos] = snapshot[pos].WithDone(done, stamp)
	c.tasks = patched
	c.inFlight[taskID] = struct{}{}
	// a new edit replaces the notice of an earlier failure
	c.notice = ""
	state := c.stateLocked()
	c.mu.Unlock()
	c.emit(state)

	defer c.finish(taskID)

	err := c.remote.MarkTaskDone(ctx, taskID, done, doneAt)
	if err != nil {
		c.mu.Lock()
		c.tasks = snapshot
		c.notice = UpdateFailedNotice
		state := c.stateLocked()
		c.mu.Unlock()
		c.log.WithError(err).WithField("task_id", taskID).Warn("task update failed, rolled back")
		c.emit(state)
	}

	refreshErr := c.Refresh(ctx)
	if err != nil {
		return err
	}
	return refreshErr
}

func (c *Controller) finish(taskID string) {
	c.mu.Lock()
	delete(c.inFlight, taskID)
	state := c.stateLocked()
	c.mu.Unlock()
	c.emit(state)
}

// Tasks returns a copy of the cached list.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// IsInFlight reports whether an edit of taskID is outstanding.
func (c *Controller) IsInFlight(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[taskID]
	return busy
}

// Notice returns the current user-visible failure notice, if any.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// State returns a copy of the whole controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	tasks := make([]model.Task, len(c.tasks))
	copy(tasks, c.tasks)
	inFlight := make([]string, 0, len(c.inFlight))
	for id := range c.inFlight {
		inFlight = append(inFlight, id)
	}
	return State{
		Tasks:      tasks,
		Loaded:     c.loaded,
		LoadFailed: c.loadFailed,
		Notice:     c.notice,
		InFlight:   inFlight,
	}
}

func (c *Controller) emit(state State) {
	if c.onChange != nil {
		c.onChange(state)
	}
}
