package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

type InvitationRepository struct {
	ctx *Context
}

func NewInvitationRepository(dbCtx *Context) *InvitationRepository {
	return &InvitationRepository{ctx: dbCtx}
}

func (r *InvitationRepository) Create(ctx context.Context, inv model.TeamInvitation) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("invitation repository: missing database context")
	}

	err := queries.InsertInvitation(ctx, sqldb.InsertInvitationParams{
		ID:           inv.ID,
		TeamID:       inv.TeamID,
		InvitedEmail: inv.InvitedEmail,
		InvitedBy:    inv.InvitedBy,
		Role:         int64(inv.Role),
		CreatedAt:    formatTime(inv.CreatedAt),
		ExpiresAt:    formatTime(inv.ExpiresAt),
		Status:       string(inv.Status),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("invitation %s: %w", inv.ID, ErrDuplicate)
	}
	return err
}

func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*model.TeamInvitation, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("invitation repository: missing database context")
	}

	row, err := queries.GetInvitation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapInvitationRow(row)
}

func (r *InvitationRepository) ListByTeam(ctx context.Context, teamID string) ([]model.TeamInvitation, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("invitation repository: missing database context")
	}

	rows, err := queries.ListInvitationsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return mapInvitationRows(rows)
}

func (r *InvitationRepository) ListByEmail(ctx context.Context, email string) ([]model.TeamInvitation, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("invitation repository: missing database context")
	}

	rows, err := queries.ListInvitationsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return mapInvitationRows(rows)
}

// Transition moves the invitation from one status to another. It reports
// false when the stored status is no longer from, which makes repeated lazy
// expiry writes harmless.
func (r *InvitationRepository) Transition(ctx context.Context, id string, from, to model.InvitationStatus) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("invitation repository: missing database context")
	}

	affected, err := queries.TransitionInvitation(ctx, sqldb.TransitionInvitationParams{
		Status:     string(to),
		ID:         id,
		FromStatus: string(from),
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func mapInvitationRows(rows []sqldb.Invitation) ([]model.TeamInvitation, error) {
	result := make([]model.TeamInvitation, 0, len(rows))
	for _, row := range rows {
		inv, err := mapInvitationRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, nil
}

func mapInvitationRow(row sqldb.Invitation) (*model.TeamInvitation, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invitation %s created_at: %w", row.ID, err)
	}
	expiresAt, err := parseTime(row.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("invitation %s expires_at: %w", row.ID, err)
	}
	return &model.TeamInvitation{
		ID:           row.ID,
		TeamID:       row.TeamID,
		InvitedEmail: row.InvitedEmail,
		InvitedBy:    row.InvitedBy,
		Role:         model.TeamRole(row.Role),
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		Status:       model.InvitationStatus(row.Status),
	}, nil
}
