// Package store is the in-memory entity store of the client. A Store is
// owned by a single goroutine (see internal/loop) and is not safe for
// concurrent use. Mutations mark mounted views dirty but never render.
package store

import (
	"slices"
	"time"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/domain/task"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/view"
)

// Store holds every entity collection plus the UI state keyed by them.
type Store struct {
	projects collection[project.Project, project.Patch]
	tasks    collection[task.Task, task.Patch]
	team     collection[team.Member, team.Patch]
	clients  collection[client.Client, client.Patch]
	comments collection[comment.Comment, comment.Patch]
	files    collection[attachment.File, attachment.File]

	activities    *activity.Ring[activity.Activity]
	notifications *activity.Ring[activity.Notification]

	selection *view.Selection
	pages     map[view.Kind]*view.PageState
	mounted   map[view.Kind]bool
	dirty     map[view.Kind]bool

	me  team.Member
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp activity and notifications.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		projects: collection[project.Project, project.Patch]{
			id:    func(p project.Project) string { return p.ID },
			apply: (*project.Project).Apply,
			build: project.FromPatch,
		},
		tasks: collection[task.Task, task.Patch]{
			id:    func(t task.Task) string { return t.ID },
			apply: (*task.Task).Apply,
			build: task.FromPatch,
			clone: task.Task.Clone,
		},
		team: collection[team.Member, team.Patch]{
			id:    func(m team.Member) string { return m.ID },
			apply: (*team.Member).Apply,
			build: team.FromPatch,
		},
		clients: collection[client.Client, client.Patch]{
			id:    func(c client.Client) string { return c.ID },
			apply: (*client.Client).Apply,
			build: client.FromPatch,
		},
		comments: collection[comment.Comment, comment.Patch]{
			id:    func(c comment.Comment) string { return c.ID },
			apply: (*comment.Comment).Apply,
			build: func(id string, p comment.Patch) comment.Comment {
				c := comment.Comment{ID: id}
				c.Apply(p)
				return c
			},
		},
		files: collection[attachment.File, attachment.File]{
			id:    func(f attachment.File) string { return f.ID },
			apply: replaceFile,
			build: func(id string, f attachment.File) attachment.File {
				f.ID = id
				return f
			},
		},
		activities:    activity.NewRing[activity.Activity](activity.DefaultCapacity),
		notifications: activity.NewRing[activity.Notification](activity.DefaultCapacity),
		selection:     view.NewSelection(),
		pages:         make(map[view.Kind]*view.PageState),
		mounted:       make(map[view.Kind]bool),
		dirty:         make(map[view.Kind]bool),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func replaceFile(dst *attachment.File, src attachment.File) bool {
	src.ID = dst.ID
	if *dst == src {
		return false
	}
	*dst = src
	return true
}

// dependents lists views that display data derived from another kind.
var dependents = map[view.Kind][]view.Kind{
	view.KindTasks:    {view.KindProjects},
	view.KindProjects: {view.KindTasks},
	view.KindTeam:     {view.KindTasks},
	view.KindClients:  {view.KindProjects},
}

// markDirty flags kind and the views derived from it, but only those mounted.
func (s *Store) markDirty(kind view.Kind) {
	for _, k := range append([]view.Kind{kind}, dependents[kind]...) {
		if s.mounted[k] {
			s.dirty[k] = true
		}
	}
}

// Mount registers a view of kind as displayed. It starts dirty.
func (s *Store) Mount(kind view.Kind) {
	s.mounted[kind] = true
	s.dirty[kind] = true
}

// Unmount stops tracking changes for kind.
func (s *Store) Unmount(kind view.Kind) {
	delete(s.mounted, kind)
	delete(s.dirty, kind)
}

// Mounted reports whether a view of kind is displayed.
func (s *Store) Mounted(kind view.Kind) bool {
	return s.mounted[kind]
}

// TakeDirty returns the dirty kinds in name order and clears the marks.
func (s *Store) TakeDirty() []view.Kind {
	out := make([]view.Kind, 0, len(s.dirty))
	for k := range s.dirty {
		out = append(out, k)
	}
	clear(s.dirty)
	slices.Sort(out)
	return out
}

// Selection returns the bulk-action selection sets.
func (s *Store) Selection() *view.Selection {
	return s.selection
}

// Page returns the pagination state of kind, creating it on first use.
func (s *Store) Page(kind view.Kind) *view.PageState {
	p, ok := s.pages[kind]
	if !ok {
		p = view.NewPageState()
		s.pages[kind] = p
	}
	return p
}

// SetCurrentUser records the signed-in member.
func (s *Store) SetCurrentUser(m team.Member) {
	s.me = m
}

// CurrentUser returns the signed-in member. The zero value means signed out.
func (s *Store) CurrentUser() team.Member {
	return s.me
}

// Now returns the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) removed(kind view.Kind, id string) {
	s.selection.Prune(kind, id)
	s.markDirty(kind)
}
