package task

import "slices"

// UpsertSubtask inserts or replaces a subtask by id, keeping list order by
// Position. It reports whether the list changed.
func (t *Task) UpsertSubtask(sub Subtask) bool {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == sub.ID {
			if t.Subtasks[i] == sub {
				return false
			}
			t.Subtasks[i] = sub
			t.sortSubtasks()
			return true
		}
	}
	t.Subtasks = append(t.Subtasks, sub)
	t.sortSubtasks()
	return true
}

// RemoveSubtask splices a subtask out of the list.
func (t *Task) RemoveSubtask(id string) bool {
	idx := slices.IndexFunc(t.Subtasks, func(s Subtask) bool { return s.ID == id })
	if idx < 0 {
		return false
	}
	t.Subtasks = slices.Delete(t.Subtasks, idx, idx+1)
	return true
}

// Subtask returns the subtask with the given id.
func (t Task) Subtask(id string) (Subtask, bool) {
	for _, s := range t.Subtasks {
		if s.ID == id {
			return s, true
		}
	}
	return Subtask{}, false
}

// SubtaskProgress returns completed and total checklist counts.
func (t Task) SubtaskProgress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

func (t *Task) sortSubtasks() {
	slices.SortStableFunc(t.Subtasks, func(a, b Subtask) int { return a.Position - b.Position })
}
