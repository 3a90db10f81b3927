package store

import (
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/view"
)

// Clients returns a copy of the client collection in display order.
func (s *Store) Clients() []client.Client {
	return s.clients.all()
}

// Client looks up a client by id.
func (s *Store) Client(id string) (client.Client, bool) {
	return s.clients.get(id)
}

// UpsertClient merges a patch into the client, creating it when absent.
func (s *Store) UpsertClient(id string, p client.Patch) bool {
	if !s.clients.upsert(id, p) {
		return false
	}
	s.markDirty(view.KindClients)
	return true
}

// MergeClient merges a patch into an existing client only.
func (s *Store) MergeClient(id string, p client.Patch) (found, changed bool) {
	found, changed = s.clients.merge(id, p)
	if changed {
		s.markDirty(view.KindClients)
	}
	return found, changed
}

// InsertClient prepends c unless its id is present.
func (s *Store) InsertClient(c client.Client) bool {
	if !s.clients.insert(c) {
		return false
	}
	s.markDirty(view.KindClients)
	return true
}

// RestoreClient puts a removed client back at its former position.
func (s *Store) RestoreClient(r Removed[client.Client]) bool {
	if !s.clients.insertAt(r.Index, r.Value) {
		return false
	}
	s.markDirty(view.KindClients)
	return true
}

// RemoveClient deletes a client and prunes it from the selection.
func (s *Store) RemoveClient(id string) (Removed[client.Client], bool) {
	r, ok := s.clients.remove(id)
	if ok {
		s.removed(view.KindClients, id)
	}
	return r, ok
}

// ReplaceClients swaps in a freshly loaded collection.
func (s *Store) ReplaceClients(cs []client.Client) {
	s.clients.replace(cs)
	s.pruneSelection(view.KindClients, s.clients.index)
	s.markDirty(view.KindClients)
}

// RekeyClient replaces a tentative client with its confirmed record.
func (s *Store) RekeyClient(tentativeID string, confirmed client.Client) {
	s.clients.rekey(tentativeID, confirmed, client.Client.Full)
	s.selection.Rename(view.KindClients, tentativeID, confirmed.ID)
	s.markDirty(view.KindClients)
}
