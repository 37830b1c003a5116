package tasks

import (
	"errors"
	"fmt"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/util"
)

var (
	ErrNotPage        = errors.New("unexpected notion response: expected page object")
	ErrUnexpectedType = errors.New("unexpected property type")
	ErrMissingValue   = errors.New("missing property value")
	ErrInvalidDate    = errors.New("invalid date value")
)

// PropertyNames maps the task fields onto data source property names.
// An empty DoneAt disables completion-timestamp support.
type PropertyNames struct {
	Task    string
	Done    string
	DueDate string
	DoneAt  string
}

// DefaultPropertyNames matches the task database schema.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Task:    "Task",
		Done:    "done",
		DueDate: "due date",
		DoneAt:  "done at",
	}
}

// PropertyError describes why one property of one record was rejected.
type PropertyError struct {
	PageID   string
	Property string
	Reason   string
	Kind     error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("invalid notion property '%s' on page '%s': %s", e.Property, e.PageID, e.Reason)
}

func (e *PropertyError) Unwrap() error { return e.Kind }

// MapTask converts one record into a Task. Checks run in a fixed order so
// the first failing field is always the one reported.
func MapTask(page notion.Page, names PropertyNames) (model.Task, error) {
	if page.Properties == nil {
		return model.Task{}, ErrNotPage
	}
	fail := func(property, reason string, kind error) (model.Task, error) {
		return model.Task{}, &PropertyError{PageID: page.ID, Property: property, Reason: reason, Kind: kind}
	}

	opt, ok := page.Properties[names.Task].AsSelect()
	if !ok {
		return fail(names.Task, "expected select", ErrUnexpectedType)
	}
	if opt == nil || opt.Name == "" {
		return fail(names.Task, "missing selected value", ErrMissingValue)
	}

	done, ok := page.Properties[names.Done].AsCheckbox()
	if !ok {
		return fail(names.Done, "expected checkbox", ErrUnexpectedType)
	}

	due, ok := page.Properties[names.DueDate].AsDate()
	if !ok {
		return fail(names.DueDate, "expected date", ErrUnexpectedType)
	}
	if due == nil || due.Start == "" {
		return fail(names.DueDate, "missing date", ErrMissingValue)
	}
	if !validDate(due.Start) {
		return fail(names.DueDate, fmt.Sprintf("invalid date '%s'", due.Start), ErrInvalidDate)
	}

	task := model.Task{
		ID:      page.ID,
		Task:    opt.Name,
		Done:    done,
		DueDate: due.Start,
	}

	if names.DoneAt == "" {
		return task, nil
	}
	prop, present := page.Properties[names.DoneAt]
	if !present {
		return task, nil
	}
	doneAt, ok := prop.AsDate()
	if !ok {
		return fail(names.DoneAt, "expected date", ErrUnexpectedType)
	}
	if doneAt != nil && doneAt.Start != "" {
		if _, _, err := util.ParseDate(doneAt.Start, nil); err != nil {
			return fail(names.DoneAt, fmt.Sprintf("invalid date '%s'", doneAt.Start), ErrInvalidDate)
		}
		start := doneAt.Start
		task.DoneAt = &start
	}
	return task, nil
}

// MapTasks maps every record or returns the first error. It never returns
// a partial list.
func MapTasks(pages []notion.Page, names PropertyNames) ([]model.Task, error) {
	out := make([]model.Task, 0, len(pages))
	for _, page := range pages {
		task, err := MapTask(page, names)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func validDate(s string) bool {
	if util.IsPlainDate(s) {
		return true
	}
	_, _, err := util.ParseDate(s, nil)
	return err == nil
}
