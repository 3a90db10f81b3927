package store

import (
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/view"
)

// Members returns a copy of the team in display order.
func (s *Store) Members() []team.Member {
	return s.team.all()
}

// Member looks up a team member by id.
func (s *Store) Member(id string) (team.Member, bool) {
	return s.team.get(id)
}

// UpsertMember merges a patch into the member, creating it when absent.
func (s *Store) UpsertMember(id string, p team.Patch) bool {
	if !s.team.upsert(id, p) {
		return false
	}
	s.memberChanged(id)
	return true
}

// MergeMember merges a patch into an existing member only.
func (s *Store) MergeMember(id string, p team.Patch) (found, changed bool) {
	found, changed = s.team.merge(id, p)
	if changed {
		s.memberChanged(id)
	}
	return found, changed
}

// InsertMember prepends m unless its id is present.
func (s *Store) InsertMember(m team.Member) bool {
	if !s.team.insert(m) {
		return false
	}
	s.markDirty(view.KindTeam)
	return true
}

// RestoreMember puts a removed member back at its former position.
func (s *Store) RestoreMember(r Removed[team.Member]) bool {
	if !s.team.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindTeam)
	return true
}

// RemoveMember deletes a member and prunes it from the selection. Tasks
// assigned to the member render as unassigned.
func (s *Store) RemoveMember(id string) (Removed[team.Member], bool) {
	r, ok := s.team.remove(id)
	if ok {
		s.removed(view.KindTeam, id)
	}
	return r, ok
}

// ReplaceMembers swaps in a freshly loaded team.
func (s *Store) ReplaceMembers(ms []team.Member) {
	s.team.replace(ms)
	s.pruneSelection(view.KindTeam, s.team.index)
	s.markDirty(view.KindTeam)
	if m, ok := s.team.get(s.me.ID); ok {
		s.me = m
	}
}

func (s *Store) memberChanged(id string) {
	if id == s.me.ID {
		s.me, _ = s.team.get(id)
	}
	s.markDirty(view.KindTeam)
}
