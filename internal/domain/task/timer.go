package task

import "time"

// Running reports whether the time tracker is active.
func (t Task) Running() bool {
	return !t.TimerStartedAt.IsZero()
}

// Elapsed returns the tracked time including a running timer. It is computed
// from wall-clock timestamps so it stays correct across suspend and resume.
func (t Task) Elapsed(now time.Time) time.Duration {
	total := time.Duration(t.TimeSpent) * time.Second
	if t.Running() && now.After(t.TimerStartedAt) {
		total += now.Sub(t.TimerStartedAt)
	}
	return total
}

// StartTimer returns the patch that starts the tracker at now.
func (t Task) StartTimer(now time.Time) (Patch, error) {
	if t.Running() {
		return Patch{}, ErrTimerRunning
	}
	return Patch{TimerStartedAt: &now}, nil
}

// StopTimer folds the running interval into TimeSpent and clears the start stamp.
func (t Task) StopTimer(now time.Time) (Patch, error) {
	if !t.Running() {
		return Patch{}, ErrTimerStopped
	}
	spent := int64(t.Elapsed(now) / time.Second)
	var zero time.Time
	return Patch{TimeSpent: &spent, TimerStartedAt: &zero}, nil
}
