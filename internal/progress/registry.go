package progress

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is a point-in-time copy of the registry. It shares no state with
// the live tasks and may be read without holding any lock.
type Snapshot struct {
	Tasks map[string]Task
	Order []string
}

// Ordered returns the snapshot's tasks in insertion order.
func (s Snapshot) Ordered() []Task {
	out := make([]Task, 0, len(s.Order))
	for _, id := range s.Order {
		if t, ok := s.Tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Registry is the single shared store of live tasks.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string
	ids   *IDGenerator

	maxHistory int
	log        zerolog.Logger
}

// NewRegistry returns an empty registry. maxHistory bounds each task's
// speed history.
func NewRegistry(maxHistory int, log zerolog.Logger) *Registry {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxSpeedHistory
	}
	return &Registry{
		tasks:      make(map[string]*Task),
		ids:        NewIDGenerator(IDCacheLimit),
		maxHistory: maxHistory,
		log:        log,
	}
}

// Add registers a task and returns its ID. Registering the same
// (category, name) pair again within a session returns the same ID and
// replaces the earlier record in place.
func (r *Registry) Add(name string, category Category, now time.Time, opts ...TaskOption) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.ids.Generate(category, name)
	t := &Task{
		ID:              id,
		NamespacedID:    id,
		Name:            name,
		Category:        category,
		MaxSpeedHistory: r.maxHistory,
		LastSpeedUpdate: now,
		Phase:           1,
		TotalPhases:     1,
	}
	for _, o := range opts {
		o(t)
	}

	if _, exists := r.tasks[id]; !exists {
		r.order = append(r.order, id)
	}
	r.tasks[id] = t
	return id
}

// Get returns a copy of the task with the given ID.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.Clone(), true
}

// Update merges the supplied fields into the task. When Completed changes
// without an explicit Speed, the smoothed speed estimate is recomputed.
// Unknown IDs are logged and ignored.
func (r *Registry) Update(id string, u Update, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		r.log.Debug().Str("task", id).Msg("update for unknown task ignored")
		return
	}

	if u.Total != nil {
		t.Total = *u.Total
	}
	if u.Speed != nil {
		t.Speed = *u.Speed
		t.CurrentSpeedEstimate = *u.Speed
	}
	if u.Completed != nil {
		if u.Speed == nil {
			t.CurrentSpeedEstimate = EstimateSpeed(t, *u.Completed, now)
		}
		t.Completed = *u.Completed
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
}

// Finish marks a task done. Calling it again overwrites the outcome with
// the latest values. Unknown IDs are logged and ignored.
func (r *Registry) Finish(id string, success bool, description, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		r.log.Debug().Str("task", id).Msg("finish for unknown task ignored")
		return
	}

	t.Finished = true
	if success {
		t.Success = OutcomeSucceeded
		t.ErrorMessage = ""
	} else {
		t.Success = OutcomeFailed
		t.ErrorMessage = errMsg
	}
	t.Description = description
}

// Snapshot copies every task and the insertion order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Tasks: make(map[string]Task, len(r.tasks)),
		Order: make([]string, len(r.order)),
	}
	copy(s.Order, r.order)
	for id, t := range r.tasks {
		s.Tasks[id] = t.Clone()
	}
	return s
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Reset drops every task and clears the ID generator.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[string]*Task)
	r.order = nil
	r.ids.Clear()
}
