package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/model"
)

// TeamService stores teams and their rosters. Every roster change is
// validated as a whole before it commits.
type TeamService struct {
	txRunner
}

func NewTeamService(ctx *database.Context) *TeamService {
	return &TeamService{txRunner{name: "team service", ctx: ctx}}
}

// Create stores the team together with the owner's membership row.
func (s *TeamService) Create(ctx context.Context, team model.Team) error {
	if team.ID == "" {
		return apperrors.Malformed("id", "must not be empty")
	}
	if team.Name == "" {
		return apperrors.Malformed("name", "must not be empty")
	}
	owner := model.TeamMember{UserID: team.OwnerID, TeamID: team.ID, Role: model.RoleOwner}
	if err := access.ValidateRoster(team, []model.TeamMember{owner}); err != nil {
		return err
	}

	return s.withTx(ctx, func(repos *database.Repositories) error {
		user, err := repos.Users.FindByID(ctx, team.OwnerID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.Newf(apperrors.CodeNotFound, "user %s not found", team.OwnerID)
		}
		if err := repos.Teams.Create(ctx, team); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return apperrors.Wrap(apperrors.CodeMalformedInput, "team id already in use", err)
			}
			return err
		}
		return repos.Members.Create(ctx, owner)
	})
}

// Get returns the team or a NotFound error.
func (s *TeamService) Get(ctx context.Context, teamID string) (model.Team, error) {
	repos, err := s.repos()
	if err != nil {
		return model.Team{}, err
	}
	return getTeam(ctx, repos, teamID)
}

func (s *TeamService) ListForUser(ctx context.Context, userID string) ([]model.Team, error) {
	repos, err := s.repos()
	if err != nil {
		return nil, err
	}
	return repos.Teams.ListForUser(ctx, userID)
}

func (s *TeamService) Members(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	repos, err := s.repos()
	if err != nil {
		return nil, err
	}
	if _, err := getTeam(ctx, repos, teamID); err != nil {
		return nil, err
	}
	return repos.Members.ListByTeam(ctx, teamID)
}

// Membership returns the user's membership row, which may be absent.
func (s *TeamService) Membership(ctx context.Context, teamID, userID string) (model.Optional[model.TeamMember], error) {
	repos, err := s.repos()
	if err != nil {
		return model.None[model.TeamMember](), err
	}
	member, err := repos.Members.Find(ctx, teamID, userID)
	if err != nil || member == nil {
		return model.None[model.TeamMember](), err
	}
	return model.Some(*member), nil
}

// UpdateMember rewrites role and access expiry of an existing member.
func (s *TeamService) UpdateMember(ctx context.Context, member model.TeamMember) error {
	return s.withTx(ctx, func(repos *database.Repositories) error {
		team, members, err := loadRoster(ctx, repos, member.TeamID)
		if err != nil {
			return err
		}
		idx := indexOf(members, member.UserID)
		if idx < 0 {
			return apperrors.Newf(apperrors.CodeNotFound, "user %s is not a member of team %s", member.UserID, member.TeamID)
		}
		members[idx] = member
		if err := access.ValidateRoster(team, members); err != nil {
			return err
		}
		_, err = repos.Members.Update(ctx, member)
		return err
	})
}

// RemoveMember deletes a membership. The owner's row cannot be removed.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	return s.withTx(ctx, func(repos *database.Repositories) error {
		team, members, err := loadRoster(ctx, repos, teamID)
		if err != nil {
			return err
		}
		idx := indexOf(members, userID)
		if idx < 0 {
			return apperrors.Newf(apperrors.CodeNotFound, "user %s is not a member of team %s", userID, teamID)
		}
		remaining := append(members[:idx:idx], members[idx+1:]...)
		if err := access.ValidateRoster(team, remaining); err != nil {
			return err
		}
		_, err = repos.Members.Delete(ctx, teamID, userID)
		return err
	})
}

func getTeam(ctx context.Context, repos *database.Repositories, teamID string) (model.Team, error) {
	team, err := repos.Teams.FindByID(ctx, teamID)
	if err != nil {
		return model.Team{}, err
	}
	if team == nil {
		return model.Team{}, apperrors.Newf(apperrors.CodeNotFound, "team %s not found", teamID)
	}
	return *team, nil
}

func loadRoster(ctx context.Context, repos *database.Repositories, teamID string) (model.Team, []model.TeamMember, error) {
	team, err := getTeam(ctx, repos, teamID)
	if err != nil {
		return model.Team{}, nil, err
	}
	members, err := repos.Members.ListByTeam(ctx, teamID)
	if err != nil {
		return model.Team{}, nil, fmt.Errorf("list members of %s: %w", teamID, err)
	}
	return team, members, nil
}

func addMember(ctx context.Context, repos *database.Repositories, member model.TeamMember) error {
	team, members, err := loadRoster(ctx, repos, member.TeamID)
	if err != nil {
		return err
	}
	if err := access.ValidateRoster(team, append(members, member)); err != nil {
		return err
	}
	if err := repos.Members.Create(ctx, member); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperrors.Wrap(apperrors.CodeAlreadyMember,
				fmt.Sprintf("user %s is already a member of team %s", member.UserID, member.TeamID), err)
		}
		return err
	}
	return nil
}

func indexOf(members []model.TeamMember, userID string) int {
	for i, m := range members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}
