package store

import (
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/view"
)

// Tasks returns a copy of the task collection in display order.
func (s *Store) Tasks() []task.Task {
	return s.tasks.all()
}

// Task looks up a task by id.
func (s *Store) Task(id string) (task.Task, bool) {
	return s.tasks.get(id)
}

// TasksForProject returns the tasks referencing projectID.
func (s *Store) TasksForProject(projectID string) []task.Task {
	var out []task.Task
	for _, t := range s.tasks.items {
		if t.ProjectID == projectID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// UpsertTask merges a patch into the task, creating it when absent. Fields
// absent from the patch, including hydrated subtasks, are preserved.
func (s *Store) UpsertTask(id string, p task.Patch) bool {
	if !s.tasks.upsert(id, p) {
		return false
	}
	s.markDirty(view.KindTasks)
	return true
}

// MergeTask merges a patch into an existing task only.
func (s *Store) MergeTask(id string, p task.Patch) (found, changed bool) {
	found, changed = s.tasks.merge(id, p)
	if changed {
		s.markDirty(view.KindTasks)
	}
	return found, changed
}

// InsertTask prepends t unless its id is present.
func (s *Store) InsertTask(t task.Task) bool {
	if !s.tasks.insert(t) {
		return false
	}
	s.markDirty(view.KindTasks)
	return true
}

// RestoreTask puts a removed task back at its former position.
func (s *Store) RestoreTask(r Removed[task.Task]) bool {
	if !s.tasks.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindTasks)
	return true
}

// RemoveTask deletes a task and prunes it from the selection.
func (s *Store) RemoveTask(id string) (Removed[task.Task], bool) {
	r, ok := s.tasks.remove(id)
	if ok {
		s.removed(view.KindTasks, id)
	}
	return r, ok
}

// ReplaceTasks swaps in a freshly loaded collection.
func (s *Store) ReplaceTasks(ts []task.Task) {
	s.tasks.replace(ts)
	s.pruneSelection(view.KindTasks, s.tasks.index)
	s.markDirty(view.KindTasks)
}

// RekeyTask replaces a tentative task with its confirmed record and points
// its subtasks at the confirmed id.
func (s *Store) RekeyTask(tentativeID string, confirmed task.Task) {
	confirmed = confirmed.Clone()
	for i := range confirmed.Subtasks {
		confirmed.Subtasks[i].TaskID = confirmed.ID
	}
	s.tasks.rekey(tentativeID, confirmed, rekeyPatch)
	s.selection.Rename(view.KindTasks, tentativeID, confirmed.ID)
	s.markDirty(view.KindTasks)
}

// rekeyPatch merges a confirmed create into a copy that realtime delivered
// first. Subtasks spliced in since then are kept.
func rekeyPatch(t task.Task) task.Patch {
	p := t.Full()
	p.Subtasks = nil
	return p
}

// UpsertSubtask splices a subtask into its owning task. It returns false
// when the owner is absent or nothing changed.
func (s *Store) UpsertSubtask(sub task.Subtask) bool {
	i := s.tasks.index(sub.TaskID)
	if i < 0 {
		return false
	}
	if !s.tasks.items[i].UpsertSubtask(sub) {
		return false
	}
	s.markDirty(view.KindTasks)
	return true
}

// RemoveSubtask splices a subtask out of its owning task.
func (s *Store) RemoveSubtask(taskID, subtaskID string) bool {
	i := s.tasks.index(taskID)
	if i < 0 {
		return false
	}
	if !s.tasks.items[i].RemoveSubtask(subtaskID) {
		return false
	}
	s.markDirty(view.KindTasks)
	return true
}

// FindSubtask locates a subtask when only its id is known.
func (s *Store) FindSubtask(subtaskID string) (task.Subtask, bool) {
	for _, t := range s.tasks.items {
		if sub, ok := t.Subtask(subtaskID); ok {
			return sub, true
		}
	}
	return task.Subtask{}, false
}

// Blocked reports whether a task waits on an unfinished blocker.
func (s *Store) Blocked(id string) bool {
	t, ok := s.tasks.get(id)
	return ok && t.Blocked(s.tasks.get)
}
