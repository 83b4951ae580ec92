package trace

import (
	"time"

	"github.com/rs/xid"
)

// Task kinds emitted by the engine.
const (
	KindRequest = "req"
	KindStop    = "stop"
)

// Task is one traced unit of work.
type Task struct {
	ID       string
	ParentID string
	Kind     string
	What     string
	Where    string
	Start    time.Time
	End      time.Time
	Bytes    int
	Error    string
}

// Duration returns the time between start and end.
func (t Task) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Failed reports whether the task recorded an error.
func (t Task) Failed() bool {
	return t.Error != ""
}

// NewTaskID returns a globally unique, sortable task ID.
func NewTaskID() string {
	return xid.New().String()
}

// TaskFilter selects interesting tasks. It returns true to keep a task.
type TaskFilter func(t Task) bool

// KindFilter keeps tasks of the given kinds.
func KindFilter(kinds ...string) TaskFilter {
	return func(t Task) bool {
		for _, k := range kinds {
			if t.Kind == k {
				return true
			}
		}
		return false
	}
}
