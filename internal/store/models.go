package store

import "time"

type ExperimentState string

const (
	StateRunning   ExperimentState = "running"
	StatePaused    ExperimentState = "paused"
	StateCompleted ExperimentState = "completed"
)

type Experiment struct {
	ID          int64
	Name        string
	Groups      []string // Decoded from JSON
	Baseline    string   // One of Groups; comparisons run against it
	Description string
	State       ExperimentState
	WinnerGroup *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasGroup reports whether name is one of the experiment's groups.
func (e *Experiment) HasGroup(name string) bool {
	for _, g := range e.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// GroupTotals are the per-group sums the dashboard list page needs,
// computed in SQL so it never loads full observation sets.
type GroupTotals struct {
	Group        string
	Observations int
	Visitors     int
	Conversions  int
	Retained     int
	Revenue      float64
}
