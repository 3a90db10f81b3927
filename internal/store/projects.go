package store

import (
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/view"
)

// Projects returns a copy of the project collection in display order.
func (s *Store) Projects() []project.Project {
	return s.projects.all()
}

// Project looks up a project by id.
func (s *Store) Project(id string) (project.Project, bool) {
	return s.projects.get(id)
}

// UpsertProject merges a patch into the project, creating it when absent.
// It reports whether anything changed.
func (s *Store) UpsertProject(id string, p project.Patch) bool {
	if !s.projects.upsert(id, p) {
		return false
	}
	s.markDirty(view.KindProjects)
	return true
}

// MergeProject merges a patch into an existing project only.
func (s *Store) MergeProject(id string, p project.Patch) (found, changed bool) {
	found, changed = s.projects.merge(id, p)
	if changed {
		s.markDirty(view.KindProjects)
	}
	return found, changed
}

// InsertProject prepends p unless its id is present.
func (s *Store) InsertProject(p project.Project) bool {
	if !s.projects.insert(p) {
		return false
	}
	s.markDirty(view.KindProjects)
	return true
}

// RestoreProject puts a removed project back at its former position.
func (s *Store) RestoreProject(r Removed[project.Project]) bool {
	if !s.projects.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindProjects)
	return true
}

// RemoveProject deletes a project and prunes it from the selection. Tasks
// that referenced it keep the dangling id.
func (s *Store) RemoveProject(id string) (Removed[project.Project], bool) {
	r, ok := s.projects.remove(id)
	if ok {
		s.removed(view.KindProjects, id)
	}
	return r, ok
}

// ReplaceProjects swaps in a freshly loaded collection.
func (s *Store) ReplaceProjects(ps []project.Project) {
	s.projects.replace(ps)
	s.pruneSelection(view.KindProjects, s.projects.index)
	s.markDirty(view.KindProjects)
}

// RekeyProject replaces a tentative project with its confirmed record.
func (s *Store) RekeyProject(tentativeID string, confirmed project.Project) {
	s.projects.rekey(tentativeID, confirmed, project.Project.Full)
	s.selection.Rename(view.KindProjects, tentativeID, confirmed.ID)
	s.markDirty(view.KindProjects)
}

func (s *Store) pruneSelection(kind view.Kind, index func(string) int) {
	for _, id := range s.selection.IDs(kind) {
		if index(id) < 0 {
			s.selection.Prune(kind, id)
		}
	}
}
