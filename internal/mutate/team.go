package mutate

import (
	"context"

	"github.com/rpggio/syncteam/internal/domain/activity"
	"github.com/rpggio/syncteam/internal/domain/team"
	"github.com/rpggio/syncteam/internal/perm"
	"github.com/rpggio/syncteam/internal/remote"
)

// UpdateMember edits a team member's profile or role. Members may edit
// their own profile; changing roles or other people needs manage:team.
func (e *Engine) UpdateMember(id string, p team.Patch) (*Pending, error) {
	const op = "update team member"
	key := "edit:profile:" + id
	s := e.store
	action := perm.ManageTeam
	if id == s.CurrentUser().ID && p.Role == nil {
		action = ""
	}
	if err := e.begin(key, op, action, func() error { return team.ValidatePatch(p) }); err != nil {
		return nil, err
	}
	prev, ok := s.Member(id)
	if !ok {
		return nil, e.notFound(op, "member", id)
	}
	s.MergeMember(id, p)
	if id == s.CurrentUser().ID {
		me := prev
		me.Apply(p)
		s.SetCurrentUser(me)
	}
	revert := team.Patch{
		Name:      pick(p.Name, prev.Name),
		Email:     pick(p.Email, prev.Email),
		Role:      pick(p.Role, prev.Role),
		Bio:       pick(p.Bio, prev.Bio),
		AvatarURL: pick(p.AvatarURL, prev.AvatarURL),
	}

	return e.pending(&Pending{
		key: key,
		op:  op,
		call: func(ctx context.Context, b remote.Backend) (remote.Row, error) {
			return b.Update(ctx, remote.TableProfiles, id, remote.EncodeMemberPatch(p))
		},
		commit: func(row remote.Row) (activity.Activity, string, error) {
			s.MergeMember(id, remote.MemberPatch(row))
			current, _ := s.Member(id)
			if id == s.CurrentUser().ID {
				s.SetCurrentUser(current)
			}
			return activity.Activity{
				Kind: activity.KindUpdated, EntityType: remote.TableProfiles, EntityID: id,
				Summary: "Updated profile of " + current.Name,
			}, "Profile updated", nil
		},
		rollback: func() {
			s.MergeMember(id, revert)
			if id == s.CurrentUser().ID {
				s.SetCurrentUser(prev)
			}
		},
	}), nil
}
