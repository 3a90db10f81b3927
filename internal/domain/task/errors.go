package task

import "errors"

var (
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSubtaskNotFound indicates the subtask doesn't exist on its task.
	ErrSubtaskNotFound = errors.New("subtask not found")
	// ErrInvalidInput indicates invalid task input.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrTimerRunning indicates a timer start on a task that is already timing.
	ErrTimerRunning = errors.New("timer already running")
	// ErrTimerStopped indicates a timer stop on a task that is not timing.
	ErrTimerStopped = errors.New("timer not running")
)
