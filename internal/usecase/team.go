package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/git"
	"github.com/laminotes/laminotes/internal/model"
)

type Team struct {
	env *Env
}

func NewTeam(env *Env) *Team {
	return &Team{env: env}
}

// CreateTeamInput describes a new team. An empty LocalDirectory defaults to
// the root of the git repository containing WorkingDir, if any.
type CreateTeamInput struct {
	ActorID        string
	Name           string
	LocalDirectory string
	WorkingDir     string
}

// Create stores a team owned by the actor.
func (u *Team) Create(ctx context.Context, input CreateTeamInput) (model.Team, error) {
	if _, err := u.env.users.Get(ctx, input.ActorID); err != nil {
		return model.Team{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return model.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	team := model.Team{
		ID:        id.String(),
		Name:      strings.TrimSpace(input.Name),
		OwnerID:   input.ActorID,
		CreatedAt: u.env.now(),
	}
	dir := input.LocalDirectory
	if dir == "" {
		dir = git.DefaultLocalDirectory(input.WorkingDir)
	}
	if dir != "" {
		team.LocalDirectory = model.Some(dir)
	}

	if err := u.env.teams.Create(ctx, team); err != nil {
		return model.Team{}, err
	}
	u.env.Logger.Info("team created", "team_id", team.ID, "owner_id", team.OwnerID)
	return team, nil
}

// Show returns a team the actor may view.
func (u *Team) Show(ctx context.Context, actorID, teamID string) (model.Team, error) {
	team, err := u.env.teams.Get(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionView); err != nil {
		return model.Team{}, err
	}
	return team, nil
}

// List returns the teams the actor belongs to.
func (u *Team) List(ctx context.Context, actorID string) ([]model.Team, error) {
	return u.env.teams.ListForUser(ctx, actorID)
}

// Members returns the roster of a team the actor may view.
func (u *Team) Members(ctx context.Context, actorID, teamID string) ([]model.TeamMember, error) {
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return nil, err
	}
	if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionView); err != nil {
		return nil, err
	}
	return u.env.teams.Members(ctx, teamID)
}

// RemoveMember removes userID from the team. Owners may remove anyone but
// themselves; any member may leave.
func (u *Team) RemoveMember(ctx context.Context, actorID, teamID, userID string) error {
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return err
	}
	if actorID != userID {
		if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionManageTeam); err != nil {
			return err
		}
	}
	if err := u.env.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	u.env.Logger.Info("member removed", "team_id", teamID, "user_id", userID, "by", actorID)
	return nil
}

// SetRoleInput changes the role of a member and, optionally, when their
// access ends.
type SetRoleInput struct {
	ActorID       string
	TeamID        string
	UserID        string
	Role          model.TeamRole
	AccessExpires model.Optional[time.Time]
}

func (u *Team) SetRole(ctx context.Context, input SetRoleInput) (model.TeamMember, error) {
	if !input.Role.Valid() {
		return model.TeamMember{}, apperrors.Malformed("role", fmt.Sprintf("has unknown value %d", int(input.Role)))
	}
	if _, err := u.env.teams.Get(ctx, input.TeamID); err != nil {
		return model.TeamMember{}, err
	}
	if _, err := u.env.authorize(ctx, input.TeamID, input.ActorID, access.ActionManageTeam); err != nil {
		return model.TeamMember{}, err
	}
	member := model.TeamMember{
		UserID:        input.UserID,
		TeamID:        input.TeamID,
		Role:          input.Role,
		AccessExpires: input.AccessExpires,
	}
	if expires, ok := member.AccessExpires.Get(); ok {
		member.AccessExpires = model.Some(model.Timestamp(expires))
	}
	if err := u.env.teams.UpdateMember(ctx, member); err != nil {
		return model.TeamMember{}, err
	}
	u.env.Logger.Info("member role changed",
		"team_id", input.TeamID,
		"user_id", input.UserID,
		"role", input.Role.String())
	return member, nil
}
