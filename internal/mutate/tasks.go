package mutate

import (
	"context"
	"fmt"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/view"
)

// CreateTask inserts t under a tentative id and confirms it remotely.
func (e *Engine) CreateTask(t task.Task) (*Pending, error) {
	const op = "create task"
	if t.Status == "" {
		t.Status = task.StatusToDo
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	validate := func() error {
		if err := task.Validate(t); err != nil {
			return err
		}
		return e.checkProject(t.ProjectID)
	}
	if err := e.begin("create:task", op, perm.CreateTask, validate); err != nil {
		return nil, err
	}
	s := e.store
	t.ID = e.newID()
	t.Subtasks = nil
	t.CreatedBy = s.CurrentUser().ID
	t.CreatedAt = s.Now()
	tentative := t.ID
	s.InsertTask(t)

	return e.pending(&Pending{
		key: "create:task",
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Insert(ctx, remote.TableTasks, remote.EncodeTask(t))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeTask(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			s.RekeyTask(tentative, confirmed)
			return activity.Activity{
				Kind: activity.KindCreated, EntityType: remote.TableTasks, EntityID: confirmed.ID,
				Summary: "Created task " + confirmed.Title,
			}, "Task created", nil
		},
		rollback: func() { s.RemoveTask(tentative) },
	}), nil
}

// UpdateTask merges patch locally and confirms it remotely.
func (e *Engine) UpdateTask(id string, p task.Patch) (*Pending, error) {
	return e.updateTask(id, p, "update task", activity.KindUpdated, nil)
}

func (e *Engine) updateTask(id string, p task.Patch, op string, kind activity.Kind, check func(task.Task) error) (*Pending, error) {
	key := "edit:task:" + id
	s := e.store
	prev, found := s.Task(id)
	err := e.begin(key, op, perm.EditTask, func() error {
		if err := task.ValidatePatch(p); err != nil {
			return err
		}
		if p.ProjectID != nil {
			if err := e.checkProject(*p.ProjectID); err != nil {
				return err
			}
		}
		if found && check != nil {
			return check(prev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, e.notFound(op, "task", id)
	}
	s.MergeTask(id, p)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Update(ctx, remote.TableTasks, id, remote.EncodeTaskPatch(p))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			s.MergeTask(id, remote.TaskPatch(row))
			current, _ := s.Task(id)
			return activity.Activity{
				Kind: kind, EntityType: remote.TableTasks, EntityID: id,
				Summary: taskSummary(kind, current, s.AssigneeName(current.AssigneeID)),
			}, "Task updated", nil
		},
		rollback: func() { s.MergeTask(id, revertTask(prev, p)) },
	}), nil
}

func taskSummary(kind activity.Kind, t task.Task, assignee string) string {
	switch kind {
	case activity.KindStatusChanged:
		return fmt.Sprintf("Moved %s to %s", t.Title, t.Status)
	case activity.KindAssigned:
		return fmt.Sprintf("Assigned %s to %s", t.Title, assignee)
	case activity.KindTimer:
		return "Tracked time on " + t.Title
	default:
		return "Updated task " + t.Title
	}
}

// SetTaskStatus moves a task through the workflow. A task cannot be
// completed while an unfinished blocker remains.
func (e *Engine) SetTaskStatus(id, status string) (*Pending, error) {
	st, ok := task.ParseStatus(status)
	if !ok {
		st = task.Status(status)
	}
	return e.updateTask(id, task.Patch{Status: &st}, "change task status", activity.KindStatusChanged, func(t task.Task) error {
		if st == task.StatusCompleted && t.Blocked(e.store.Task) {
			return fmt.Errorf("%w: %s is blocked by unfinished tasks", task.ErrInvalidInput, t.Title)
		}
		return nil
	})
}

// AssignTask sets the assignee. An empty memberID unassigns.
func (e *Engine) AssignTask(id, memberID string) (*Pending, error) {
	return e.updateTask(id, task.Patch{AssigneeID: &memberID}, "assign task", activity.KindAssigned, func(task.Task) error {
		if memberID == "" {
			return nil
		}
		if _, ok := e.store.Member(memberID); !ok {
			return fmt.Errorf("%w: unknown team member %s", task.ErrInvalidInput, memberID)
		}
		return nil
	})
}

// StartTimer starts time tracking on a task.
func (e *Engine) StartTimer(id string) (*Pending, error) {
	t, ok := e.store.Task(id)
	if !ok {
		return nil, e.notFound("start timer", "task", id)
	}
	p, err := t.StartTimer(e.store.Now())
	return e.timerUpdate(id, p, err, "start timer")
}

// StopTimer folds the running interval into the task's tracked time.
func (e *Engine) StopTimer(id string) (*Pending, error) {
	t, ok := e.store.Task(id)
	if !ok {
		return nil, e.notFound("stop timer", "task", id)
	}
	p, err := t.StopTimer(e.store.Now())
	return e.timerUpdate(id, p, err, "stop timer")
}

func (e *Engine) timerUpdate(id string, p task.Patch, timerErr error, op string) (*Pending, error) {
	return e.updateTask(id, p, op, activity.KindTimer, func(task.Task) error { return timerErr })
}

// AddBlocker records that blockerID must finish before id.
func (e *Engine) AddBlocker(id, blockerID string) (*Pending, error) {
	var blockers []string
	return e.updateTask(id, task.Patch{BlockedBy: &blockers}, "add dependency", activity.KindUpdated, func(t task.Task) error {
		list, err := t.AddBlocker(blockerID, e.store.Task)
		blockers = list
		return err
	})
}

// RemoveBlocker drops a dependency.
func (e *Engine) RemoveBlocker(id, blockerID string) (*Pending, error) {
	var blockers []string
	return e.updateTask(id, task.Patch{BlockedBy: &blockers}, "remove dependency", activity.KindUpdated, func(t task.Task) error {
		blockers = t.RemoveBlocker(blockerID)
		return nil
	})
}

// DeleteTask removes the task locally and remotely.
func (e *Engine) DeleteTask(id string) (*Pending, error) {
	const op = "delete task"
	key := "delete:task:" + id
	if err := e.begin(key, op, perm.DeleteTask, nil); err != nil {
		return nil, err
	}
	s := e.store
	selected := s.Selection().Has(view.KindTasks, id)
	removed, ok := s.RemoveTask(id)
	if !ok {
		return nil, e.notFound(op, "task", id)
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return nil, b.Delete(ctx, remote.TableTasks, id)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{
				Kind: activity.KindDeleted, EntityType: remote.TableTasks, EntityID: id,
				Summary: "Deleted task " + removed.Value.Title,
			}, "Task deleted", nil
		},
		rollback: func() {
			s.RestoreTask(removed)
			s.Selection().Set(view.KindTasks, id, selected)
		},
	}), nil
}

// checkProject requires a task's project to be present locally and
// confirmed, so the id sent to the backend is the one it will keep.
func (e *Engine) checkProject(id string) error {
	if IsTentative(id) {
		return fmt.Errorf("%w: %s", project.ErrProjectUnconfirmed, id)
	}
	if _, ok := e.store.Project(id); !ok {
		return fmt.Errorf("%w: %s", project.ErrProjectNotFound, id)
	}
	return nil
}

// revertTask restores the fields a patch touched to their previous values.
func revertTask(prev task.Task, p task.Patch) task.Patch {
	return task.Patch{
		Title:          pick(p.Title, prev.Title),
		Description:    pick(p.Description, prev.Description),
		ProjectID:      pick(p.ProjectID, prev.ProjectID),
		AssigneeID:     pick(p.AssigneeID, prev.AssigneeID),
		Priority:       pick(p.Priority, prev.Priority),
		Status:         pick(p.Status, prev.Status),
		DueDate:        pick(p.DueDate, prev.DueDate),
		TimeSpent:      pick(p.TimeSpent, prev.TimeSpent),
		TimerStartedAt: pick(p.TimerStartedAt, prev.TimerStartedAt),
		Subtasks:       pick(p.Subtasks, prev.Subtasks),
		BlockedBy:      pick(p.BlockedBy, prev.BlockedBy),
		CreatedBy:      pick(p.CreatedBy, prev.CreatedBy),
		CreatedAt:      pick(p.CreatedAt, prev.CreatedAt),
	}
}
