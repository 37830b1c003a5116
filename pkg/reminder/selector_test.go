package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/util"
)

func zurich(t *testing.T) *time.Location {
	t.Helper()
	loc, err := Location()
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	return loc
}

func TestIsDueOnDate(t *testing.T) {
	loc := zurich(t)
	cases := []struct {
		due  string
		want bool
	}{
		{"2024-03-15", true},
		{"2024-03-14", false},
		{"2024-03-15T09:00:00Z", true},
		{"2024-03-14T23:30:00Z", true},  // 00:30 in Zurich
		{"2024-03-15T23:30:00Z", false}, // already the 16th in Zurich
		{"2024-03-15T09:00:00.000+01:00", true},
	}
	for _, c := range cases {
		got, err := IsDueOnDate(c.due, "2024-03-15", loc)
		if err != nil {
			t.Errorf("IsDueOnDate(%q) failed: %v", c.due, err)
			continue
		}
		if got != c.want {
			t.Errorf("IsDueOnDate(%q): expected %v, got %v", c.due, c.want, got)
		}
	}
}

func TestIsDueOnDateRejectsGarbage(t *testing.T) {
	due, err := IsDueOnDate("not-a-date", "2024-03-15", zurich(t))
	if !errors.Is(err, util.ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
	if due {
		t.Error("Expected false alongside the error")
	}
}

func TestFilterDueOn(t *testing.T) {
	tasks := []model.Task{
		{ID: "A", DueDate: "2024-03-14"},
		{ID: "B", DueDate: "2024-03-15"},
		{ID: "C", DueDate: "2024-03-15T10:00:00Z"},
	}
	got, err := FilterDueOn(tasks, "2024-03-15", zurich(t))
	if err != nil {
		t.Fatalf("FilterDueOn failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "B" || got[1].ID != "C" {
		t.Errorf("Expected [B C], got %+v", got)
	}

	tasks = append(tasks, model.Task{ID: "D", DueDate: "whenever"})
	if _, err := FilterDueOn(tasks, "2024-03-15", zurich(t)); err == nil {
		t.Error("Expected the whole filter to fail on a bad due date")
	}
}

func TestMerge(t *testing.T) {
	allOpen := []model.Task{{ID: "A"}, {ID: "B"}}
	dueToday := []model.Task{{ID: "B"}}

	got := Merge(allOpen, dueToday)
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "A" || got[0].IsDueToday {
		t.Errorf("Expected A not due today, got %+v", got[0])
	}
	if got[1].ID != "B" || !got[1].IsDueToday {
		t.Errorf("Expected B due today, got %+v", got[1])
	}
}

func TestMergeAddsDueOnlyTasks(t *testing.T) {
	got := Merge([]model.Task{{ID: "A"}}, []model.Task{{ID: "C"}, {ID: "A"}})
	if len(got) != 2 || got[0].ID != "A" || !got[0].IsDueToday || got[1].ID != "C" || !got[1].IsDueToday {
		t.Errorf("Expected [A* C*], got %+v", got)
	}
}

func TestInWindow(t *testing.T) {
	loc := zurich(t)
	cases := []struct {
		hour int
		want bool
	}{
		{11, false},
		{12, true},
		{22, true},
		{23, false},
	}
	for _, c := range cases {
		now := time.Date(2024, 3, 15, c.hour, 30, 0, 0, loc)
		if got := InWindow(now, loc); got != c.want {
			t.Errorf("InWindow(%d:30): expected %v, got %v", c.hour, c.want, got)
		}
	}
}
