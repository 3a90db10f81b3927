package mutate

import (
	"context"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/project"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
	"github.com/rpggio/syncteam/internal/view"
)

// CreateProject inserts p under a tentative id and confirms it remotely.
// New projects start Active.
func (e *Engine) CreateProject(p project.Project) (*Pending, error) {
	const op = "create project"
	if p.Status == "" {
		p.Status = project.StatusActive
	}
	if err := e.begin("create:project", op, perm.CreateProject, func() error { return project.Validate(p) }); err != nil {
		return nil, err
	}
	s := e.store
	if p.ClientName == "" && p.ClientID != "" {
		if c, ok := s.Client(p.ClientID); ok {
			p.ClientName = c.Name
		}
	}
	p.ID = e.newID()
	p.CreatedBy = s.CurrentUser().ID
	p.CreatedAt = s.Now()
	tentative := p.ID
	s.InsertProject(p)

	return e.pending(&Pending{
		key: "create:project",
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Insert(ctx, remote.TableProjects, remote.EncodeProject(p))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			confirmed, err := remote.DecodeProject(row)
			if err != nil {
				return activity.Activity{}, "", err
			}
			s.RekeyProject(tentative, confirmed)
			return activity.Activity{
				Kind: activity.KindCreated, EntityType: remote.TableProjects, EntityID: confirmed.ID,
				Summary: "Created project " + confirmed.Name,
			}, "Project created", nil
		},
		rollback: func() { s.RemoveProject(tentative) },
	}), nil
}

// UpdateProject merges patch locally and confirms it remotely.
func (e *Engine) UpdateProject(id string, patch project.Patch) (*Pending, error) {
	const op = "update project"
	key := "edit:project:" + id
	if err := e.begin(key, op, perm.EditProject, func() error { return project.ValidatePatch(patch) }); err != nil {
		return nil, err
	}
	s := e.store
	prev, ok := s.Project(id)
	if !ok {
		return nil, e.notFound(op, "project", id)
	}
	s.MergeProject(id, patch)

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Update(ctx, remote.TableProjects, id, remote.EncodeProjectPatch(patch))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			s.MergeProject(id, remote.ProjectPatch(row))
			kind := activity.KindUpdated
			if patch.Status != nil && *patch.Status != prev.Status {
				kind = activity.KindStatusChanged
			}
			return activity.Activity{
				Kind: kind, EntityType: remote.TableProjects, EntityID: id,
				Summary: "Updated project " + s.ProjectName(id),
			}, "Project updated", nil
		},
		rollback: func() { s.MergeProject(id, revertProject(prev, patch)) },
	}), nil
}

// DeleteProject removes the project locally and remotely. Its tasks keep
// their reference and render as belonging to a deleted project.
func (e *Engine) DeleteProject(id string) (*Pending, error) {
	const op = "delete project"
	key := "delete:project:" + id
	if err := e.begin(key, op, perm.DeleteProject, nil); err != nil {
		return nil, err
	}
	s := e.store
	selected := s.Selection().Has(view.KindProjects, id)
	removed, ok := s.RemoveProject(id)
	if !ok {
		return nil, e.notFound(op, "project", id)
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return nil, b.Delete(ctx, remote.TableProjects, id)
		},
		commit: func(remote.Row) (activity.Activity, string, error) {
			return activity.Activity{
				Kind: activity.KindDeleted, EntityType: remote.TableProjects, EntityID: id,
				Summary: "Deleted project " + removed.Value.Name,
			}, "Project deleted", nil
		},
		rollback: func() {
			s.RestoreProject(removed)
			s.Selection().Set(view.KindProjects, id, selected)
		},
	}), nil
}

// revertProject restores the fields a patch touched to their previous values.
func revertProject(prev project.Project, p project.Patch) project.Patch {
	return project.Patch{
		Name:        pick(p.Name, prev.Name),
		ClientID:    pick(p.ClientID, prev.ClientID),
		ClientName:  pick(p.ClientName, prev.ClientName),
		Description: pick(p.Description, prev.Description),
		Status:      pick(p.Status, prev.Status),
		StartDate:   pick(p.StartDate, prev.StartDate),
		EndDate:     pick(p.EndDate, prev.EndDate),
		Budget:      pick(p.Budget, prev.Budget),
		CreatedBy:   pick(p.CreatedBy, prev.CreatedBy),
		CreatedAt:   pick(p.CreatedAt, prev.CreatedAt),
	}
}
