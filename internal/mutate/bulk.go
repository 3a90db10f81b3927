package mutate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

// ErrNothingSelected is returned by BulkDelete when the selection is empty.
var ErrNothingSelected = errors.New("nothing selected")

type bulkTarget struct {
	table  string
	noun   string
	action perm.Action
	remove func(s *store.Store, id string) (restore func(), ok bool)
}

var bulkTargets = map[view.Kind]bulkTarget{
	view.KindProjects: {
		table: remote.TableProjects, noun: "projects", action: perm.DeleteProject,
		remove: func(s *store.Store, id string) (func(), bool) {
			r, ok := s.RemoveProject(id)
			return func() { s.RestoreProject(r) }, ok
		},
	},
	view.KindTasks: {
		table: remote.TableTasks, noun: "tasks", action: perm.DeleteTask,
		remove: func(s *store.Store, id string) (func(), bool) {
			r, ok := s.RemoveTask(id)
			return func() { s.RestoreTask(r) }, ok
		},
	},
	view.KindClients: {
		table: remote.TableClients, noun: "clients", action: perm.DeleteClient,
		remove: func(s *store.Store, id string) (func(), bool) {
			r, ok := s.RemoveClient(id)
			return func() { s.RestoreClient(r) }, ok
		},
	},
}

// BulkDelete removes every selected entity of kind. Deletes are sent one by
// one; entities whose delete fails are put back and stay selected.
func (e *Engine) BulkDelete(kind view.Kind) (*Pending, error) {
	target, ok := bulkTargets[kind]
	if !ok {
		return nil, fmt.Errorf("bulk delete %s: %w", kind, errors.ErrUnsupported)
	}
	op := "delete selected " + target.noun
	key := "bulk:" + string(kind)
	if err := e.begin(key, op, target.action, nil); err != nil {
		return nil, err
	}
	s := e.store
	ids := s.Selection().IDs(kind)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingSelected)
	}

	type removal struct {
		id      string
		restore func()
	}
	var removed []removal
	for _, id := range ids {
		if restore, ok := target.remove(s, id); ok {
			removed = append(removed, removal{id: id, restore: restore})
		}
	}
	if len(removed) == 0 {
		return nil, e.notFound(op, string(kind), ids[0])
	}

	// failed is written by the remote call and read on settle.
	var (
		mu     sync.Mutex
		failed = make(map[string]error)
	)
	failures := func() map[string]error {
		mu.Lock()
		defer mu.Unlock()
		return failed
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			var errs []error
			for _, r := range removed {
				if err := b.Delete(ctx, target.table, r.id); err != nil {
					mu.Lock()
					failed[r.id] = err
					mu.Unlock()
					errs = append(errs, fmt.Errorf("%s: %w", r.id, err))
				}
			}
			return nil, errors.Join(errs...)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{
				Kind: activity.KindDeleted, EntityType: target.table,
				Summary: fmt.Sprintf("Deleted %d %s", len(removed), target.noun),
			}, fmt.Sprintf("Deleted %d %s", len(removed), target.noun), nil
		},
		rollback: func() {
			fails := failures()
			if len(fails) == 0 {
				for _, r := range removed {
					fails[r.id] = nil
				}
			}
			for _, r := range slices.Backward(removed) {
				if _, ok := fails[r.id]; ok {
					r.restore()
					s.Selection().Set(kind, r.id, true)
				}
			}
			if deleted := len(removed) - len(fails); deleted > 0 {
				s.LogActivity(activity.Activity{
					Kind: activity.KindDeleted, EntityType: target.table,
					Summary: fmt.Sprintf("Deleted %d %s", deleted, target.noun),
				})
			}
		},
	}), nil
}
