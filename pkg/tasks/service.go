package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/util"
	"github.com/sirupsen/logrus"
)

// Store is the subset of the record store API the service needs.
type Store interface {
	QueryDataSource(ctx context.Context, dataSourceID string, req notion.QueryRequest) (*notion.QueryResponse, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]notion.PropertyValue) error
}

// QueryOptions selects and orders tasks. A nil Filter returns every record.
type QueryOptions struct {
	Filter    *notion.Filter
	Direction notion.SortDirection
}

// Service reads and writes tasks in one data source.
type Service struct {
	store        Store
	dataSourceID string
	names        PropertyNames
	log          logrus.FieldLogger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPropertyNames overrides DefaultPropertyNames.
func WithPropertyNames(names PropertyNames) Option {
	return func(s *Service) { s.names = names }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock replaces time.Now for completion stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service for the given data source.
func NewService(store Store, dataSourceID string, opts ...Option) *Service {
	s := &Service{
		store:        store,
		dataSourceID: dataSourceID,
		names:        DefaultPropertyNames(),
		log:          logrus.StandardLogger(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PropertyNames returns the schema mapping in use.
func (s *Service) PropertyNames() PropertyNames {
	return s.names
}

// Query walks every result page in order and maps it. Pages are fetched one
// after another since each request needs the previous cursor. The first
// fetch or mapping error aborts the walk.
func (s *Service) Query(ctx context.Context, opts QueryOptions) ([]model.Task, error) {
	direction := opts.Direction
	if direction == "" {
		direction = notion.Ascending
	}
	req := notion.QueryRequest{
		Filter:   opts.Filter,
		Sorts:    []notion.Sort{{Property: s.names.DueDate, Direction: direction}},
		PageSize: notion.MaxPageSize,
	}

	var all []model.Task
	pages := 0
	for {
		resp, err := s.store.QueryDataSource(ctx, s.dataSourceID, req)
		if err != nil {
			return nil, err
		}
		pages++

		mapped, err := MapTasks(resp.Results, s.names)
		if err != nil {
			return nil, err
		}
		all = append(all, mapped...)

		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		req.StartCursor = *resp.NextCursor
	}

	s.log.WithFields(logrus.Fields{"pages": pages, "tasks": len(all)}).Debug("queried tasks")
	if all == nil {
		all = []model.Task{}
	}
	return all, nil
}

// OpenTasks returns every task not yet done.
func (s *Service) OpenTasks(ctx context.Context, direction notion.SortDirection) ([]model.Task, error) {
	return s.Query(ctx, QueryOptions{
		Filter:    notion.CheckboxEquals(s.names.Done, false),
		Direction: direction,
	})
}

// AllTasks returns every task regardless of completion state.
func (s *Service) AllTasks(ctx context.Context, direction notion.SortDirection) ([]model.Task, error) {
	return s.Query(ctx, QueryOptions{Direction: direction})
}

// MarkDone sets the completion flag of one record. Marking done stamps
// doneAt, or the current time when doneAt is nil. Marking undone clears
// the stored stamp.
func (s *Service) MarkDone(ctx context.Context, taskID string, done bool, doneAt *time.Time) error {
	props := map[string]notion.PropertyValue{
		s.names.Done: notion.CheckboxValue(done),
	}
	if s.names.DoneAt != "" {
		switch {
		case !done:
			props[s.names.DoneAt] = notion.ClearDate()
		case doneAt != nil:
			props[s.names.DoneAt] = notion.DateStart(doneAt.Format(time.RFC3339Nano))
		default:
			props[s.names.DoneAt] = notion.DateStart(util.FormatTimestamp(s.now()))
		}
	}

	if err := s.store.UpdatePage(ctx, taskID, props); err != nil {
		return fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	s.log.WithFields(logrus.Fields{"task_id": taskID, "done": done}).Info("updated task completion")
	return nil
}

// LoadTasks returns every task in ascending due order.
func (s *Service) LoadTasks(ctx context.Context) ([]model.Task, error) {
	return s.AllTasks(ctx, notion.Ascending)
}

// MarkTaskDone is MarkDone under the name the sync controller expects.
func (s *Service) MarkTaskDone(ctx context.Context, taskID string, done bool, doneAt *time.Time) error {
	return s.MarkDone(ctx, taskID, done, doneAt)
}
