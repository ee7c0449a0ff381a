package progress

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// bufferSink records everything written to it.
type bufferSink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	tty     bool
	width   int
	fail    bool
	writes  int
	flushes int
}

func (s *bufferSink) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.fail {
		return errors.New("broken pipe")
	}
	s.buf.Write(p)
	return nil
}

func (s *bufferSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *bufferSink) IsTTY() bool { return s.tty }

func (s *bufferSink) Width() (int, error) {
	if s.width <= 0 {
		return 0, errors.New("no terminal")
	}
	return s.width, nil
}

func (s *bufferSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *bufferSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

func snapshotOf(tasks ...Task) Snapshot {
	s := Snapshot{Tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		if t.Phase == 0 {
			t.Phase, t.TotalPhases = 1, 1
		}
		s.Tasks[t.ID] = t
		s.Order = append(s.Order, t.ID)
	}
	return s
}
