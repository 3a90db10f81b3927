package mutate

import (
	"context"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/client"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/view"
)

// CreateClient inserts c under a tentative id and confirms it remotely.
func (e *Engine) CreateClient(c client.Client) (*Pending, error) {
	const op = "create client"
	if err := e.begin("create:client", op, perm.CreateClient, func() error { return client.Validate(c) }); err != nil {
		return nil, err
	}
	s := e.store
	c.ID = e.newID()
	tentative := c.ID
	s.InsertClient(c)

	return e.pending(&Pending{
		key: "create:client",
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Insert(ctx, remote.TableClients, remote.EncodeClient(c))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeClient(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			s.RekeyClient(tentative, confirmed)
			return activity.Activity{
				Kind: activity.KindCreated, EntityType: remote.TableClients, EntityID: confirmed.ID,
				Summary: "Added client " + confirmed.Name,
			}, "Client added", nil
		},
		rollback: func() { s.RemoveClient(tentative) },
	}), nil
}

// UpdateClient merges patch locally and confirms it remotely.
func (e *Engine) UpdateClient(id string, p client.Patch) (*Pending, error) {
	const op = "update client"
	key := "edit:client:" + id
	if err := e.begin(key, op, perm.EditClient, func() error { return client.ValidatePatch(p) }); err != nil {
		return nil, err
	}
	s := e.store
	prev, ok := s.Client(id)
	if !ok {
		return nil, e.notFound(op, "client", id)
	}
	s.MergeClient(id, p)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Update(ctx, remote.TableClients, id, remote.EncodeClientPatch(p))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			s.MergeClient(id, remote.ClientPatch(row))
			current, _ := s.Client(id)
			return activity.Activity{
				Kind: activity.KindUpdated, EntityType: remote.TableClients, EntityID: id,
				Summary: "Updated client " + current.Name,
			}, "Client updated", nil
		},
		rollback: func() {
			s.MergeClient(id, client.Patch{
				Name:    pick(p.Name, prev.Name),
				Company: pick(p.Company, prev.Company),
				Email:   pick(p.Email, prev.Email),
				Phone:   pick(p.Phone, prev.Phone),
			})
		},
	}), nil
}

// DeleteClient removes the client. Projects keep their denormalised client name.
func (e *Engine) DeleteClient(id string) (*Pending, error) {
	const op = "delete client"
	key := "delete:client:" + id
	if err := e.begin(key, op, perm.DeleteClient, nil); err != nil {
		return nil, err
	}
	s := e.store
	selected := s.Selection().Has(view.KindClients, id)
	removed, ok := s.RemoveClient(id)
	if !ok {
		return nil, e.notFound(op, "client", id)
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return nil, b.Delete(ctx, remote.TableClients, id)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{
				Kind: activity.KindDeleted, EntityType: remote.TableClients, EntityID: id,
				Summary: "Removed client " + removed.Value.Name,
			}, "Client removed", nil
		},
		rollback: func() {
			s.RestoreClient(removed)
			s.Selection().Set(view.KindClients, id, selected)
		},
	}), nil
}
