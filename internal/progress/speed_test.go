package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateSpeed(t *testing.T) {
	base := time.Unix(100, 0)

	tests := []struct {
		name         string
		task         Task
		newCompleted float64
		now          time.Time
		want         float64
		wantHistory  int
	}{
		{
			name:         "positive delta over one second",
			task:         Task{LastSpeedUpdate: base},
			newCompleted: 50,
			now:          base.Add(time.Second),
			want:         50,
			wantHistory:  1,
		},
		{
			name:         "zero elapsed keeps estimate",
			task:         Task{LastSpeedUpdate: base, CurrentSpeedEstimate: 12},
			newCompleted: 50,
			now:          base,
			want:         12,
		},
		{
			name:         "negative elapsed keeps estimate",
			task:         Task{LastSpeedUpdate: base, CurrentSpeedEstimate: 12},
			newCompleted: 50,
			now:          base.Add(-time.Second),
			want:         12,
		},
		{
			name:         "zero delta keeps estimate",
			task:         Task{LastSpeedUpdate: base, Completed: 50, CurrentSpeedEstimate: 9},
			newCompleted: 50,
			now:          base.Add(time.Second),
			want:         9,
		},
		{
			name:         "averages with history",
			task:         Task{LastSpeedUpdate: base, Completed: 100, SpeedHistory: []float64{100}},
			newCompleted: 300,
			now:          base.Add(2 * time.Second),
			want:         100,
			wantHistory:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			got := EstimateSpeed(&task, tt.newCompleted, tt.now)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Len(t, task.SpeedHistory, tt.wantHistory)
		})
	}
}

func TestEstimateSpeed_HistoryIsBounded(t *testing.T) {
	base := time.Unix(100, 0)
	task := Task{LastSpeedUpdate: base, MaxSpeedHistory: 3}

	for i := 1; i <= 5; i++ {
		now := base.Add(time.Duration(i) * time.Second)
		task.CurrentSpeedEstimate = EstimateSpeed(&task, float64(i*i*10), now)
		task.Completed = float64(i * i * 10)
	}

	// Instantaneous rates were 10, 30, 50, 70, 90; the oldest two are gone.
	assert.Equal(t, []float64{50, 70, 90}, task.SpeedHistory)
	assert.InDelta(t, 70.0, task.CurrentSpeedEstimate, 1e-9)
}

func TestETA(t *testing.T) {
	tests := []struct {
		name                   string
		total, completed, rate float64
		want                   time.Duration
		wantOK                 bool
	}{
		{name: "half done", total: 1000, completed: 500, rate: 100, want: 5 * time.Second, wantOK: true},
		{name: "unknown total", total: 0, completed: 500, rate: 100},
		{name: "unknown speed", total: 1000, completed: 500, rate: 0},
		{name: "overshoot", total: 100, completed: 150, rate: 10, want: 0, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ETA(tt.total, tt.completed, tt.rate)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
