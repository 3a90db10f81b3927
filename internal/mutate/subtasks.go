package mutate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

// AddSubtask appends a checklist entry to a task.
func (e *Engine) AddSubtask(taskID, title string) (*Pending, error) {
	const op = "add subtask"
	key := "subtask:create:" + taskID
	err := e.begin(key, op, perm.EditTask, func() error {
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: subtask title is required", task.ErrInvalidInput)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s := e.store
	owner, ok := s.Task(taskID)
	if !ok {
		return nil, e.notFound(op, "task", taskID)
	}
	sub := task.Subtask{ID: e.newID(), TaskID: taskID, Title: strings.TrimSpace(title), Position: len(owner.Subtasks)}
	tentative := sub.ID
	s.UpsertSubtask(sub)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Insert(ctx, remote.TableSubtasks, remote.EncodeSubtask(sub))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeSubtask(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			if confirmed.TaskID == "" {
				confirmed.TaskID = taskID
			}
			s.RemoveSubtask(taskID, tentative)
			s.UpsertSubtask(confirmed)
			return activity.Activity{
				Kind: activity.KindUpdated, EntityType: remote.TableTasks, EntityID: taskID,
				Summary: fmt.Sprintf("Added subtask %q to %s", confirmed.Title, owner.Title),
			}, "", nil
		},
		rollback: func() { s.RemoveSubtask(taskID, tentative) },
	}), nil
}

// ToggleSubtask flips a subtask's completion flag.
func (e *Engine) ToggleSubtask(subtaskID string) (*Pending, error) {
	const op = "update subtask"
	key := "subtask:edit:" + subtaskID
	if err := e.begin(key, op, perm.EditTask, nil); err != nil {
		return nil, err
	}
	s := e.store
	prev, ok := s.FindSubtask(subtaskID)
	if !ok {
		return nil, e.notFound(op, "subtask", subtaskID)
	}
	next := prev
	next.Completed = !prev.Completed
	s.UpsertSubtask(next)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Update(ctx, remote.TableSubtasks, subtaskID, remote.Row{"completed": next.Completed})
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{}, "", nil
		},
		rollback: func() { s.UpsertSubtask(prev) },
	}), nil
}

// RemoveSubtask deletes a checklist entry.
func (e *Engine) RemoveSubtask(subtaskID string) (*Pending, error) {
	const op = "delete subtask"
	key := "subtask:delete:" + subtaskID
	if err := e.begin(key, op, perm.EditTask, nil); err != nil {
		return nil, err
	}
	s := e.store
	prev, ok := s.FindSubtask(subtaskID)
	if !ok {
		return nil, e.notFound(op, "subtask", subtaskID)
	}
	s.RemoveSubtask(prev.TaskID, subtaskID)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return nil, b.Delete(ctx, remote.TableSubtasks, subtaskID)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{}, "", nil
		},
		rollback: func() { s.UpsertSubtask(prev) },
	}), nil
}
