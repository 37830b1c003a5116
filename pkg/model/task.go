package model

// Task is the read projection of one record in the task data source.
type Task struct {
	ID      string `json:"id"`
	Task    string `json:"task"`
	Done    bool   `json:"done"`
	DueDate string `json:"dueDate"`
	// DoneAt is only set when the data source tracks completion time and
	// the record carries a value. It can be nil even when Done is true.
	DoneAt *string `json:"doneAt,omitempty"`
}

// WithDone returns a copy of t with the completion state replaced.
// Marking a task undone clears DoneAt.
func (t Task) WithDone(done bool, doneAt *string) Task {
	t.Done = done
	if done {
		t.DoneAt = doneAt
	} else {
		t.DoneAt = nil
	}
	return t
}

// ReminderEntry is a task tagged with whether it is due on the reminder day.
type ReminderEntry struct {
	Task
	IsDueToday bool `json:"isDueToday"`
}
