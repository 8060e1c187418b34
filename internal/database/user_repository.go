package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

type UserRepository struct {
	ctx *Context
}

func NewUserRepository(dbCtx *Context) *UserRepository {
	return &UserRepository{ctx: dbCtx}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("user repository: missing database context")
	}

	err := queries.InsertUser(ctx, sqldb.InsertUserParams{
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: nullTime(user.CreatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.UserID, ErrDuplicate)
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("user repository: missing database context")
	}

	row, err := queries.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapUserRow(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("user repository: missing database context")
	}

	row, err := queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapUserRow(row)
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("user repository: missing database context")
	}

	rows, err := queries.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.User, 0, len(rows))
	for _, row := range rows {
		user, err := mapUserRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, nil
}

func mapUserRow(row sqldb.User) (*model.User, error) {
	createdAt, err := optionalTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user %s created_at: %w", row.UserID, err)
	}
	return &model.User{
		UserID:    row.UserID,
		Email:     row.Email,
		CreatedAt: createdAt,
	}, nil
}
