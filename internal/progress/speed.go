package progress

import (
	"math"
	"time"
)

// DefaultMaxSpeedHistory is the number of instantaneous samples averaged
// into a task's speed estimate.
const DefaultMaxSpeedHistory = 10

// EstimateSpeed records the instantaneous rate implied by moving t from
// t.Completed to newCompleted at now, and returns the smoothed rate in units
// per second. A non-positive elapsed time or a zero delta leaves the task
// untouched and returns the previous estimate.
func EstimateSpeed(t *Task, newCompleted float64, now time.Time) float64 {
	elapsed := now.Sub(t.LastSpeedUpdate).Seconds()
	delta := newCompleted - t.Completed
	if elapsed <= 0 || delta == 0 {
		return t.CurrentSpeedEstimate
	}

	limit := t.MaxSpeedHistory
	if limit <= 0 {
		limit = DefaultMaxSpeedHistory
	}
	if len(t.SpeedHistory) >= limit {
		t.SpeedHistory = append(t.SpeedHistory[:0], t.SpeedHistory[len(t.SpeedHistory)-limit+1:]...)
	}
	t.SpeedHistory = append(t.SpeedHistory, delta/elapsed)
	t.LastSpeedUpdate = now

	var sum float64
	for _, s := range t.SpeedHistory {
		sum += s
	}
	return sum / float64(len(t.SpeedHistory))
}

// ETA returns the remaining time at the given speed. ok is false when
// either the speed or the total is unknown.
func ETA(total, completed, speed float64) (eta time.Duration, ok bool) {
	if speed <= 0 || total <= 0 {
		return 0, false
	}
	remaining := total - completed
	if remaining <= 0 {
		return 0, true
	}
	secs := remaining / speed
	if secs > math.MaxInt64/float64(time.Second) {
		secs = math.MaxInt64 / float64(time.Second)
	}
	return time.Duration(secs * float64(time.Second)), true
}
