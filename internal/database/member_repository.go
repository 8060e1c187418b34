package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

type MemberRepository struct {
	ctx *Context
}

func NewMemberRepository(dbCtx *Context) *MemberRepository {
	return &MemberRepository{ctx: dbCtx}
}

// Create inserts a membership row. A second row for the same user and team
// fails with ErrDuplicate.
func (r *MemberRepository) Create(ctx context.Context, member model.TeamMember) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("member repository: missing database context")
	}

	err := queries.InsertTeamMember(ctx, sqldb.InsertTeamMemberParams{
		UserID:        member.UserID,
		TeamID:        member.TeamID,
		Role:          int64(member.Role),
		AccessExpires: nullTime(member.AccessExpires),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("member %s of team %s: %w", member.UserID, member.TeamID, ErrDuplicate)
	}
	return err
}

func (r *MemberRepository) Find(ctx context.Context, teamID, userID string) (*model.TeamMember, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("member repository: missing database context")
	}

	row, err := queries.GetTeamMember(ctx, sqldb.GetTeamMemberParams{UserID: userID, TeamID: teamID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapMemberRow(row)
}

func (r *MemberRepository) ListByTeam(ctx context.Context, teamID string) ([]model.TeamMember, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("member repository: missing database context")
	}

	rows, err := queries.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	result := make([]model.TeamMember, 0, len(rows))
	for _, row := range rows {
		member, err := mapMemberRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *member)
	}
	return result, nil
}

// Update rewrites role and access expiry of an existing membership.
func (r *MemberRepository) Update(ctx context.Context, member model.TeamMember) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("member repository: missing database context")
	}

	affected, err := queries.UpdateTeamMember(ctx, sqldb.UpdateTeamMemberParams{
		Role:          int64(member.Role),
		AccessExpires: nullTime(member.AccessExpires),
		UserID:        member.UserID,
		TeamID:        member.TeamID,
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MemberRepository) Delete(ctx context.Context, teamID, userID string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("member repository: missing database context")
	}

	affected, err := queries.DeleteTeamMember(ctx, sqldb.DeleteTeamMemberParams{UserID: userID, TeamID: teamID})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func mapMemberRow(row sqldb.TeamMember) (*model.TeamMember, error) {
	expires, err := optionalTime(row.AccessExpires)
	if err != nil {
		return nil, fmt.Errorf("member %s access_expires: %w", row.UserID, err)
	}
	return &model.TeamMember{
		UserID:        row.UserID,
		TeamID:        row.TeamID,
		Role:          model.TeamRole(row.Role),
		AccessExpires: expires,
	}, nil
}
