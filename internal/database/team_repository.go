package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

type TeamRepository struct {
	ctx *Context
}

func NewTeamRepository(dbCtx *Context) *TeamRepository {
	return &TeamRepository{ctx: dbCtx}
}

func (r *TeamRepository) Create(ctx context.Context, team model.Team) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("team repository: missing database context")
	}

	err := queries.InsertTeam(ctx, sqldb.InsertTeamParams{
		ID:             team.ID,
		Name:           team.Name,
		OwnerID:        team.OwnerID,
		CreatedAt:      formatTime(team.CreatedAt),
		LocalDirectory: nullString(team.LocalDirectory),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("team %s: %w", team.ID, ErrDuplicate)
	}
	return err
}

func (r *TeamRepository) FindByID(ctx context.Context, id string) (*model.Team, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("team repository: missing database context")
	}

	row, err := queries.GetTeam(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapTeamRow(row)
}

// ListForUser returns the teams userID holds a membership in, expired or not.
func (r *TeamRepository) ListForUser(ctx context.Context, userID string) ([]model.Team, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("team repository: missing database context")
	}

	rows, err := queries.ListTeamsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]model.Team, 0, len(rows))
	for _, row := range rows {
		team, err := mapTeamRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, nil
}

// Delete removes the team. Memberships, invitations and documents go with it.
func (r *TeamRepository) Delete(ctx context.Context, id string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("team repository: missing database context")
	}

	affected, err := queries.DeleteTeam(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func mapTeamRow(row sqldb.Team) (*model.Team, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("team %s created_at: %w", row.ID, err)
	}
	return &model.Team{
		ID:             row.ID,
		Name:           row.Name,
		OwnerID:        row.OwnerID,
		CreatedAt:      createdAt,
		LocalDirectory: optionalString(row.LocalDirectory),
	}, nil
}
