package store

import (
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/comment"
	"github.com/rpggio/syncteam/internal/view"
)

// Comments returns every comment, newest first.
func (s *Store) Comments() []comment.Comment {
	return s.comments.all()
}

// Comment looks up a comment by id.
func (s *Store) Comment(id string) (comment.Comment, bool) {
	return s.comments.get(id)
}

// CommentsOn returns the comments targeting one entity.
func (s *Store) CommentsOn(kind comment.EntityType, id string) []comment.Comment {
	var out []comment.Comment
	for _, c := range s.comments.items {
		if c.On(kind, id) {
			out = append(out, c)
		}
	}
	return out
}

// InsertComment prepends c unless its id is present.
func (s *Store) InsertComment(c comment.Comment) bool {
	if !s.comments.insert(c) {
		return false
	}
	s.markDirty(view.KindComments)
	return true
}

// MergeComment merges an edit into an existing comment.
func (s *Store) MergeComment(id string, p comment.Patch) (found, changed bool) {
	found, changed = s.comments.merge(id, p)
	if changed {
		s.markDirty(view.KindComments)
	}
	return found, changed
}

// RestoreComment puts a removed comment back at its former position.
func (s *Store) RestoreComment(r Removed[comment.Comment]) bool {
	if !s.comments.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindComments)
	return true
}

// RemoveComment deletes a comment.
func (s *Store) RemoveComment(id string) (Removed[comment.Comment], bool) {
	r, ok := s.comments.remove(id)
	if ok {
		s.removed(view.KindComments, id)
	}
	return r, ok
}

// ReplaceComments swaps in a freshly loaded collection.
func (s *Store) ReplaceComments(cs []comment.Comment) {
	s.comments.replace(cs)
	s.markDirty(view.KindComments)
}

// RekeyComment replaces a tentative comment with its confirmed record.
func (s *Store) RekeyComment(tentativeID string, confirmed comment.Comment) {
	s.comments.rekey(tentativeID, confirmed, func(c comment.Comment) comment.Patch {
		return comment.Patch{Text: &c.Text}
	})
	s.markDirty(view.KindComments)
}

// Files returns every attachment record, newest first.
func (s *Store) Files() []attachment.File {
	return s.files.all()
}

// File looks up an attachment record by id.
func (s *Store) File(id string) (attachment.File, bool) {
	return s.files.get(id)
}

// FilesOn returns the attachments of one entity.
func (s *Store) FilesOn(kind comment.EntityType, id string) []attachment.File {
	var out []attachment.File
	for _, f := range s.files.items {
		if f.EntityType == kind && f.EntityID == id {
			out = append(out, f)
		}
	}
	return out
}

// UpsertFile stores an attachment record, replacing any with the same id.
func (s *Store) UpsertFile(f attachment.File) bool {
	if !s.files.upsert(f.ID, f) {
		return false
	}
	s.markDirty(view.KindFiles)
	return true
}

// RemoveFile deletes an attachment record.
func (s *Store) RemoveFile(id string) (Removed[attachment.File], bool) {
	r, ok := s.files.remove(id)
	if ok {
		s.removed(view.KindFiles, id)
	}
	return r, ok
}

// RestoreFile puts a removed attachment record back.
func (s *Store) RestoreFile(r Removed[attachment.File]) bool {
	if !s.files.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindFiles)
	return true
}

// ReplaceFiles swaps in a freshly loaded collection.
func (s *Store) ReplaceFiles(fs []attachment.File) {
	s.files.replace(fs)
	s.markDirty(view.KindFiles)
}

// RekeyFile replaces a tentative attachment with its confirmed record.
func (s *Store) RekeyFile(tentativeID string, confirmed attachment.File) {
	s.files.rekey(tentativeID, confirmed, func(f attachment.File) attachment.File { return f })
	s.markDirty(view.KindFiles)
}
