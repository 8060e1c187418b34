package usecase

import (
	"context"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/invitation"
	"github.com/laminotes/laminotes/internal/model"
)

type Invitation struct {
	env *Env
}

func NewInvitation(env *Env) *Invitation {
	return &Invitation{env: env}
}

// Create invites email into the team. Only an active owner may invite.
func (u *Invitation) Create(ctx context.Context, actorID, teamID, email string, role model.TeamRole) (model.TeamInvitation, error) {
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return model.TeamInvitation{}, err
	}
	member, err := u.env.teams.Membership(ctx, teamID, actorID)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	if !u.env.Access.CanInvite(member) {
		return model.TeamInvitation{}, apperrors.WithMetadata(apperrors.CodePermissionDenied,
			actorID+" may not invite to team "+teamID,
			map[string]string{"action": "invite"})
	}

	inv, err := u.env.invitations.Create(ctx, invitation.CreateInput{
		TeamID:       teamID,
		InvitedEmail: email,
		InvitedBy:    actorID,
		Role:         role,
	})
	if err != nil {
		return model.TeamInvitation{}, err
	}
	u.env.recordTransition(inv)
	return inv, nil
}

// Accept joins the actor to the invitation's team.
func (u *Invitation) Accept(ctx context.Context, actorID, invitationID string) (model.TeamInvitation, model.TeamMember, error) {
	acceptor, err := u.env.users.Get(ctx, actorID)
	if err != nil {
		return model.TeamInvitation{}, model.TeamMember{}, err
	}
	return u.env.invitations.Accept(ctx, invitationID, acceptor)
}

// Decline refuses an invitation addressed to the actor.
func (u *Invitation) Decline(ctx context.Context, actorID, invitationID string) (model.TeamInvitation, error) {
	actor, err := u.env.users.Get(ctx, actorID)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	inv, err := u.env.invitations.Get(ctx, invitationID)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	if invitation.NormalizeEmail(actor.Email) != inv.InvitedEmail {
		return model.TeamInvitation{}, apperrors.Newf(apperrors.CodePermissionDenied,
			"invitation %s was sent to a different address", inv.ID)
	}
	return u.env.invitations.Decline(ctx, invitationID)
}

// Get returns an invitation visible to the actor: its recipient or an
// owner of the team.
func (u *Invitation) Get(ctx context.Context, actorID, invitationID string) (model.TeamInvitation, error) {
	inv, err := u.env.invitations.Get(ctx, invitationID)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	if actor, err := u.env.users.Get(ctx, actorID); err == nil && invitation.NormalizeEmail(actor.Email) == inv.InvitedEmail {
		return inv, nil
	}
	member, err := u.env.teams.Membership(ctx, inv.TeamID, actorID)
	if err != nil {
		return model.TeamInvitation{}, err
	}
	if !u.env.Access.CanInvite(member) {
		return model.TeamInvitation{}, apperrors.Newf(apperrors.CodePermissionDenied,
			"%s may not view invitation %s", actorID, invitationID)
	}
	return inv, nil
}

// ListForTeam returns every invitation of a team to one of its owners.
func (u *Invitation) ListForTeam(ctx context.Context, actorID, teamID string) ([]model.TeamInvitation, error) {
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return nil, err
	}
	member, err := u.env.teams.Membership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if !u.env.Access.CanInvite(member) {
		return nil, apperrors.Newf(apperrors.CodePermissionDenied,
			"%s may not list invitations of team %s", actorID, teamID)
	}
	return u.env.invitations.ListByTeam(ctx, teamID)
}

// Inbox returns the invitations addressed to the actor.
func (u *Invitation) Inbox(ctx context.Context, actorID string) ([]model.TeamInvitation, error) {
	actor, err := u.env.users.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return u.env.invitations.ListByEmail(ctx, actor.Email)
}
