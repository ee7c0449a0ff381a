package progress

import "time"

// Category identifies the kind of work a task tracks.
type Category int

const (
	CategoryAPIFetching Category = iota
	CategoryDownload
	CategoryVerification
	CategoryIconExtraction
	CategoryInstallation
	CategoryUpdate
)

// Prefix returns the short namespace used in generated task IDs.
func (c Category) Prefix() string {
	switch c {
	case CategoryAPIFetching:
		return "api"
	case CategoryDownload:
		return "dl"
	case CategoryVerification:
		return "vf"
	case CategoryIconExtraction:
		return "ic"
	case CategoryInstallation:
		return "in"
	case CategoryUpdate:
		return "up"
	default:
		return "task"
	}
}

// Verb is the label shown in front of a task name in the processing section.
func (c Category) Verb() string {
	switch c {
	case CategoryVerification:
		return "Verifying"
	case CategoryInstallation:
		return "Installing"
	case CategoryUpdate:
		return "Updating"
	default:
		return "Processing"
	}
}

func (c Category) String() string {
	switch c {
	case CategoryAPIFetching:
		return "api_fetching"
	case CategoryDownload:
		return "download"
	case CategoryVerification:
		return "verification"
	case CategoryIconExtraction:
		return "icon_extraction"
	case CategoryInstallation:
		return "installation"
	case CategoryUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Outcome is the tri-state result of a task. It stays OutcomeUnset until
// the task is finished.
type Outcome int

const (
	OutcomeUnset Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// Task is one unit of tracked work.
type Task struct {
	ID           string
	NamespacedID string
	Name         string
	Category     Category

	// Total of 0 means unknown. Completed is never clamped to Total.
	Total     float64
	Completed float64

	Speed                float64
	CurrentSpeedEstimate float64
	SpeedHistory         []float64
	MaxSpeedHistory      int
	LastSpeedUpdate      time.Time

	Description  string
	Finished     bool
	Success      Outcome
	ErrorMessage string

	// ParentTaskID links a later workflow phase to an earlier one. It is
	// only ever looked up in the registry.
	ParentTaskID string
	Phase        int
	TotalPhases  int
}

// Succeeded reports whether the task finished successfully.
func (t Task) Succeeded() bool {
	return t.Finished && t.Success == OutcomeSucceeded
}

// Failed reports whether the task finished with an error.
func (t Task) Failed() bool {
	return t.Finished && t.Success == OutcomeFailed
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	c := t
	if t.SpeedHistory != nil {
		c.SpeedHistory = make([]float64, len(t.SpeedHistory))
		copy(c.SpeedHistory, t.SpeedHistory)
	}
	return c
}

// Update is a partial change to a task. Nil fields are left untouched.
type Update struct {
	Completed   *float64
	Speed       *float64
	Description *string
	Total       *float64
}

// Float is a helper for building Update values.
func Float(v float64) *float64 { return &v }

// String is a helper for building Update values.
func String(v string) *string { return &v }

// Info is the best-effort view of a task returned by TaskInfo.
type Info struct {
	Completed   float64
	Total       *float64
	Description string
}

// TaskOption customizes a task at registration time.
type TaskOption func(*Task)

// WithTotal sets the expected total amount of work.
func WithTotal(total float64) TaskOption {
	return func(t *Task) { t.Total = total }
}

// WithDescription sets the initial description.
func WithDescription(desc string) TaskOption {
	return func(t *Task) { t.Description = desc }
}

// WithPhase places the task in a multi-phase workflow.
func WithPhase(phase, totalPhases int) TaskOption {
	return func(t *Task) {
		t.Phase = phase
		t.TotalPhases = totalPhases
	}
}

// WithParent links the task to the previous phase of its workflow.
func WithParent(parentID string) TaskOption {
	return func(t *Task) { t.ParentTaskID = parentID }
}
