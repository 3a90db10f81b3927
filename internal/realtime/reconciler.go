package realtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/store"
)

// Outcome describes what applying one event did.
type Outcome struct {
	Table   string
	Type    remote.ChangeType
	ID      string
	Changed bool
	Err     error
}

// handler binds one table to the store.
type handler struct {
	noun   string
	insert func(remote.Row) (inserted bool, label string, err error)
	merge  func(id string, r remote.Row) (found, changed bool, err error)
	remove func(id string, old remote.Row) (bool, error)
}

// Reconciler applies change events to a store. It must run on the goroutine
// that owns the store. Applying is idempotent: duplicate inserts and repeated
// identical updates change nothing.
type Reconciler struct {
	store    *store.Store
	logger   *slog.Logger
	handlers map[string]handler
	notify   bool
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithoutNotifications suppresses the notification emitted for new rows.
func WithoutNotifications() ReconcilerOption {
	return func(r *Reconciler) { r.notify = false }
}

// NewReconciler creates a reconciler over s.
func NewReconciler(s *store.Store, logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{store: s, logger: logger, notify: true}
	r.handlers = map[string]handler{
		remote.TableProjects: r.projects(),
		remote.TableTasks:    r.tasks(),
		remote.TableSubtasks: r.subtasks(),
		remote.TableClients:  r.clients(),
		remote.TableProfiles: r.team(),
		remote.TableComments: r.comments(),
		remote.TableFiles:    r.files(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply merges one event into the store. Errors in the outcome are logged
// and never fatal; the event is dropped.
func (r *Reconciler) Apply(ev Event) Outcome {
	out := Outcome{Table: ev.Table, Type: ev.Type}
	h, ok := r.handlers[ev.Table]
	if !ok {
		out.Err = fmt.Errorf("%w: %s", ErrUnknownTable, ev.Table)
		r.logger.Debug("realtime event dropped", "table", ev.Table, "error", out.Err)
		return out
	}

	switch ev.Type {
	case Insert:
		out.ID = ev.New.ID()
		inserted, label, err := h.insert(ev.New)
		out.Changed, out.Err = inserted, err
		if inserted && r.notify && label != "" {
			r.store.Notify(activity.Notification{
				Title:   "New " + h.noun,
				Message: label,
				Level:   activity.LevelInfo,
			})
		}
	case Update:
		out.ID = ev.New.ID()
		found, changed, err := h.merge(out.ID, ev.New)
		out.Changed, out.Err = changed, err
		if err == nil && !found {
			out.Err = fmt.Errorf("%w: %s %s", ErrNotFoundLocally, ev.Table, out.ID)
		}
	case Delete:
		out.ID = ev.Old.ID()
		if out.ID == "" {
			out.ID = ev.New.ID()
		}
		out.Changed, out.Err = h.remove(out.ID, ev.Old)
	default:
		out.Err = fmt.Errorf("%w: %q", ErrUnknownType, ev.Type)
	}

	switch {
	case out.Err == nil:
		if out.Changed {
			r.logger.Debug("realtime event applied", "table", ev.Table, "type", ev.Type, "id", out.ID)
		}
	case errors.Is(out.Err, ErrNotFoundLocally):
		r.logger.Info("realtime update for unknown entity ignored", "table", ev.Table, "id", out.ID)
	default:
		r.logger.Debug("realtime event dropped", "table", ev.Table, "type", ev.Type, "id", out.ID, "error", out.Err)
	}
	return out
}

func (r *Reconciler) projects() handler {
	s := r.store
	return handler{
		noun: "project",
		insert: func(row remote.Row) (bool, string, error) {
			p, err := remote.DecodeProject(row)
			if err != nil {
				return false, "", err
			}
			return s.InsertProject(p), p.Name, nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			found, changed := s.MergeProject(id, remote.ProjectPatch(row))
			return found, changed, nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveProject(id)
			return ok, nil
		},
	}
}

func (r *Reconciler) tasks() handler {
	s := r.store
	return handler{
		noun: "task",
		insert: func(row remote.Row) (bool, string, error) {
			t, err := remote.DecodeTask(row)
			if err != nil {
				return false, "", err
			}
			return s.InsertTask(t), t.Title, nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			found, changed := s.MergeTask(id, remote.TaskPatch(row))
			return found, changed, nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveTask(id)
			return ok, nil
		},
	}
}

// subtasks splice into their owning task instead of living in a collection.
func (r *Reconciler) subtasks() handler {
	s := r.store
	upsert := func(id string, row remote.Row) (bool, bool, error) {
		if existing, ok := s.FindSubtask(id); ok {
			base := remote.EncodeSubtask(existing)
			base["id"] = existing.ID
			row = base.Merge(row)
		}
		sub, err := remote.DecodeSubtask(row)
		if err != nil {
			return false, false, err
		}
		if _, ok := s.Task(sub.TaskID); !ok {
			return false, false, fmt.Errorf("%w: subtask %s owner task %q absent", ErrReconciliationConflict, sub.ID, sub.TaskID)
		}
		return true, s.UpsertSubtask(sub), nil
	}
	return handler{
		noun: "subtask",
		insert: func(row remote.Row) (bool, string, error) {
			_, changed, err := upsert(row.ID(), row)
			return changed, "", err
		},
		merge: upsert,
		remove: func(id string, old remote.Row) (bool, error) {
			taskID := ""
			if old != nil {
				if sub, err := remote.DecodeSubtask(old); err == nil {
					taskID = sub.TaskID
				}
			}
			if taskID == "" {
				sub, ok := s.FindSubtask(id)
				if !ok {
					return false, nil
				}
				taskID = sub.TaskID
			}
			return s.RemoveSubtask(taskID, id), nil
		},
	}
}

func (r *Reconciler) clients() handler {
	s := r.store
	return handler{
		noun: "client",
		insert: func(row remote.Row) (bool, string, error) {
			c, err := remote.DecodeClient(row)
			if err != nil {
				return false, "", err
			}
			return s.InsertClient(c), c.Name, nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			found, changed := s.MergeClient(id, remote.ClientPatch(row))
			return found, changed, nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveClient(id)
			return ok, nil
		},
	}
}

func (r *Reconciler) team() handler {
	s := r.store
	return handler{
		noun: "team member",
		insert: func(row remote.Row) (bool, string, error) {
			m, err := remote.DecodeMember(row)
			if err != nil {
				return false, "", err
			}
			return s.InsertMember(m), m.Name, nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			found, changed := s.MergeMember(id, remote.MemberPatch(row))
			return found, changed, nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveMember(id)
			return ok, nil
		},
	}
}

func (r *Reconciler) comments() handler {
	s := r.store
	return handler{
		noun: "comment",
		insert: func(row remote.Row) (bool, string, error) {
			c, err := remote.DecodeComment(row)
			if err != nil {
				return false, "", err
			}
			return s.InsertComment(c), s.AssigneeName(c.AuthorID) + " commented on a " + string(c.EntityType), nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			found, changed := s.MergeComment(id, remote.CommentPatch(row))
			return found, changed, nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveComment(id)
			return ok, nil
		},
	}
}

func (r *Reconciler) files() handler {
	s := r.store
	return handler{
		noun: "file",
		insert: func(row remote.Row) (bool, string, error) {
			f, err := remote.DecodeFile(row)
			if err != nil {
				return false, "", err
			}
			if _, ok := s.File(f.ID); ok {
				return false, "", nil
			}
			return s.UpsertFile(f), f.Name, nil
		},
		merge: func(id string, row remote.Row) (bool, bool, error) {
			existing, ok := s.File(id)
			if !ok {
				return false, false, nil
			}
			f, err := remote.DecodeFile(remote.EncodeFile(existing).Merge(row))
			if err != nil {
				return true, false, err
			}
			return true, s.UpsertFile(f), nil
		},
		remove: func(id string, _ remote.Row) (bool, error) {
			_, ok := s.RemoveFile(id)
			return ok, nil
		},
	}
}

