package project

import "math"

// TaskState is the slice of a task that progress needs.
type TaskState struct {
	ProjectID string
	Completed bool
}

// Progress returns round(100 * completed / total) over the tasks referencing
// projectID, or 0 when none do. It is derived on every read and never stored.
func Progress(projectID string, tasks []TaskState) int {
	total, done := 0, 0
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Completed {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
