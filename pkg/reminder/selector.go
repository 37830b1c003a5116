package reminder

import (
	"time"
	_ "time/tzdata"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/util"
)

const (
	// TimeZone is the zone reminder days and hours are computed in.
	TimeZone = "Europe/Zurich"
	// StartHour and EndHour bound the local hours (inclusive) a run may notify in.
	StartHour = 12
	EndHour   = 22
)

// Location loads TimeZone. The zone database is embedded, so this only
// fails on a bad zone name.
func Location() (*time.Location, error) {
	return time.LoadLocation(TimeZone)
}

// InWindow reports whether now falls inside [StartHour, EndHour] in loc.
func InWindow(now time.Time, loc *time.Location) bool {
	hour := now.In(loc).Hour()
	return hour >= StartHour && hour <= EndHour
}

// IsDueOnDate reports whether due falls on the calendar date (YYYY-MM-DD)
// in loc. Plain dates compare literally; date-times are converted into loc
// first. An unparsable due value is an error, never false.
func IsDueOnDate(due, date string, loc *time.Location) (bool, error) {
	if util.IsPlainDate(due) {
		return due == date, nil
	}
	t, _, err := util.ParseDate(due, loc)
	if err != nil {
		return false, err
	}
	return util.LocalDate(t, loc) == date, nil
}

// FilterDueOn keeps the tasks due on date, in input order.
func FilterDueOn(tasks []model.Task, date string, loc *time.Location) ([]model.Task, error) {
	var out []model.Task
	for _, task := range tasks {
		due, err := IsDueOnDate(task.DueDate, date, loc)
		if err != nil {
			return nil, err
		}
		if due {
			out = append(out, task)
		}
	}
	return out, nil
}

// Merge unions allOpen and dueToday by id. Every id appears once, in the
// order of allOpen followed by ids only present in dueToday, and is tagged
// with whether it is in dueToday.
func Merge(allOpen, dueToday []model.Task) []model.ReminderEntry {
	byID := make(map[string]int, len(allOpen)+len(dueToday))
	entries := make([]model.ReminderEntry, 0, len(allOpen)+len(dueToday))

	for _, task := range allOpen {
		if i, seen := byID[task.ID]; seen {
			entries[i].Task = task
			continue
		}
		byID[task.ID] = len(entries)
		entries = append(entries, model.ReminderEntry{Task: task})
	}
	for _, task := range dueToday {
		if i, seen := byID[task.ID]; seen {
			entries[i].IsDueToday = true
			continue
		}
		byID[task.ID] = len(entries)
		entries = append(entries, model.ReminderEntry{Task: task, IsDueToday: true})
	}
	return entries
}
