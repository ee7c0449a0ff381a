package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// ErrSessionNotActive is returned when a task is registered outside a
// session.
var ErrSessionNotActive = errors.New("progress session not active")

// Clock supplies the current time. Readings from time.Now carry a monotonic
// component, which is what speed estimation relies on.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Reporter is the boundary used by downloaders, verifiers, installers and
// updaters.
type Reporter interface {
	AddTask(name string, category Category, opts ...TaskOption) (string, error)
	UpdateTask(id string, u Update)
	UpdateTaskTotal(id string, total float64)
	FinishTask(id string, success bool, description string)
	TaskInfo(id string) Info
	TaskInfoFull(id string) (Task, bool)
	CreateAPIFetchingTask(name string) (string, error)
	CreateVerificationTask(name string) (string, error)
	CreateInstallationWorkflow(name string, withVerification bool) (verifyID, installID string, err error)
	IsActive() bool
}

var _ Reporter = (*Manager)(nil)

// Manager owns one reporting session at a time: the task registry, the
// background render loop and the output backend.
type Manager struct {
	registry *Registry
	renderer *Renderer
	backend  *Backend
	clock    Clock
	interval time.Duration
	log      zerolog.Logger

	// lifeMu serializes Start and Stop; mu guards the fields below and
	// makes the active check and task insertion in AddTask atomic.
	lifeMu    sync.Mutex
	mu        sync.Mutex
	active    bool
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}

	// renderMu serializes frames from the loop with the final flush.
	renderMu sync.Mutex
}

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	render     RenderOptions
	interval   time.Duration
	maxHistory int
	clock      Clock
	log        zerolog.Logger
}

// WithRenderOptions sets bar and column sizes and the spinner rate.
func WithRenderOptions(o RenderOptions) Option {
	return func(c *managerConfig) { c.render = o }
}

// WithRenderInterval overrides the time between frames. The default is one
// spinner frame.
func WithRenderInterval(d time.Duration) Option {
	return func(c *managerConfig) { c.interval = d }
}

// WithMaxSpeedHistory bounds the samples averaged into speed estimates.
func WithMaxSpeedHistory(n int) Option {
	return func(c *managerConfig) { c.maxHistory = n }
}

// WithClock injects the time source, mainly for tests.
func WithClock(clk Clock) Option {
	return func(c *managerConfig) { c.clock = clk }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *managerConfig) { c.log = l }
}

// NewManager returns an inactive manager rendering to sink.
func NewManager(sink Sink, opts ...Option) *Manager {
	cfg := managerConfig{
		clock: systemClock{},
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	cfg.render = cfg.render.withDefaults()
	if cfg.interval <= 0 {
		cfg.interval = time.Duration(float64(time.Second) / cfg.render.SpinnerFPS)
	}

	log := cfg.log.With().Str("component", "progress").Logger()
	return &Manager{
		registry: NewRegistry(cfg.maxHistory, log),
		renderer: NewRenderer(cfg.render),
		backend:  NewBackend(sink, log),
		clock:    cfg.clock,
		interval: cfg.interval,
		log:      log,
	}
}

// Start activates a session and launches the render loop. It is a no-op
// when a session is already active.
func (m *Manager) Start(ctx context.Context) {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.active = true
	m.cancel = cancel
	m.done = make(chan struct{})
	m.sessionID = ulid.Make().String()
	m.log.Debug().Str("session", m.sessionID).Bool("interactive", m.backend.Interactive()).Msg("progress session started")

	go m.loop(loopCtx, m.done)
}

// Stop ends the session: it stops the render loop, flushes one final frame
// with the summary, and clears all tasks and IDs. AddTask fails from the
// moment Stop begins; updates that arrive afterwards target unknown IDs and
// are ignored. Stop is a no-op when no session is active.
func (m *Manager) Stop() {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.mu.Lock()
	if !m.active || m.cancel == nil {
		m.mu.Unlock()
		return
	}
	cancel, done, sessionID := m.cancel, m.done, m.sessionID
	m.active = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done

	m.renderFrame(true)

	m.renderMu.Lock()
	m.backend.Reset()
	m.renderMu.Unlock()
	m.registry.Reset()

	m.mu.Lock()
	m.done = nil
	m.sessionID = ""
	m.mu.Unlock()

	m.log.Debug().Str("session", sessionID).Msg("progress session stopped")
}

// Session runs fn inside an active session and always stops it afterwards,
// including when fn panics.
func (m *Manager) Session(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Start(ctx)
	defer m.Stop()
	return fn(ctx)
}

// IsActive reports whether a session is running.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.renderFrame(false)
		}
	}
}

// renderFrame snapshots the registry and emits one report. A panic while
// rendering is logged and the frame dropped.
func (m *Manager) renderFrame(final bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("panic", fmt.Sprint(r)).Msg("progress frame failed")
		}
	}()

	snap := m.registry.Snapshot()

	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	report := m.renderer.Render(snap, Frame{
		Now:         m.clock.Now(),
		Width:       m.backend.Width(),
		Color:       m.backend.Interactive(),
		Interactive: m.backend.Interactive(),
		Final:       final,
	})
	m.backend.Emit(report)
}

// AddTask registers a task in the active session.
func (m *Manager) AddTask(name string, category Category, opts ...TaskOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return "", fmt.Errorf("add task %q: %w", name, ErrSessionNotActive)
	}
	return m.registry.Add(name, category, m.clock.Now(), opts...), nil
}

// UpdateTask merges u into the task. Unknown IDs are ignored.
func (m *Manager) UpdateTask(id string, u Update) {
	m.registry.Update(id, u, m.clock.Now())
}

// UpdateTaskTotal changes the expected total of a task.
func (m *Manager) UpdateTaskTotal(id string, total float64) {
	m.registry.Update(id, Update{Total: &total}, m.clock.Now())
}

// FinishTask marks the task done. On failure the description doubles as the
// error message.
func (m *Manager) FinishTask(id string, success bool, description string) {
	errMsg := ""
	if !success {
		errMsg = description
	}
	m.registry.Finish(id, success, description, errMsg)
}

// TaskInfo returns a best-effort view of the task; unknown IDs yield zero
// values.
func (m *Manager) TaskInfo(id string) Info {
	t, ok := m.registry.Get(id)
	if !ok {
		return Info{}
	}
	info := Info{Completed: t.Completed, Description: t.Description}
	if t.Total > 0 {
		total := t.Total
		info.Total = &total
	}
	return info
}

// TaskInfoFull returns a copy of the task.
func (m *Manager) TaskInfoFull(id string) (Task, bool) {
	return m.registry.Get(id)
}

// CreateAPIFetchingTask registers an API lookup for name.
func (m *Manager) CreateAPIFetchingTask(name string) (string, error) {
	return m.AddTask(name, CategoryAPIFetching)
}

// CreateVerificationTask registers a standalone verification for name.
func (m *Manager) CreateVerificationTask(name string) (string, error) {
	return m.AddTask(name, CategoryVerification)
}

// CreateInstallationWorkflow registers the tasks for installing name. With
// verification it creates verify (1/2) then install (2/2) linked to the
// verify task; otherwise a single install task (1/1) and an empty verifyID.
func (m *Manager) CreateInstallationWorkflow(name string, withVerification bool) (verifyID, installID string, err error) {
	if !withVerification {
		installID, err = m.AddTask(name, CategoryInstallation, WithPhase(1, 1))
		return "", installID, err
	}

	verifyID, err = m.AddTask(name, CategoryVerification, WithPhase(1, 2))
	if err != nil {
		return "", "", err
	}
	installID, err = m.AddTask(name, CategoryInstallation, WithPhase(2, 2), WithParent(verifyID))
	if err != nil {
		return "", "", err
	}
	return verifyID, installID, nil
}
