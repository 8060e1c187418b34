package services

import (
	"context"
	"errors"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/invitation"
	"github.com/laminotes/laminotes/internal/model"
)

type UserService struct {
	txRunner
}

func NewUserService(ctx *database.Context) *UserService {
	return &UserService{txRunner{name: "user service", ctx: ctx}}
}

// Register stores a new account. Email addresses are kept lowercase so
// invitations can be matched against them.
func (s *UserService) Register(ctx context.Context, user model.User) error {
	user.Email = invitation.NormalizeEmail(user.Email)
	if user.UserID == "" {
		return apperrors.Malformed("user_id", "must not be empty")
	}
	if user.Email == "" {
		return apperrors.Malformed("email", "must not be empty")
	}

	repos, err := s.repos()
	if err != nil {
		return err
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperrors.Wrap(apperrors.CodeMalformedInput, "user id or email already registered", err)
		}
		return err
	}
	return nil
}

// Get returns the user or a NotFound error.
func (s *UserService) Get(ctx context.Context, userID string) (model.User, error) {
	repos, err := s.repos()
	if err != nil {
		return model.User{}, err
	}
	user, err := repos.Users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if user == nil {
		return model.User{}, apperrors.Newf(apperrors.CodeNotFound, "user %s not found", userID)
	}
	return *user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	repos, err := s.repos()
	if err != nil {
		return nil, err
	}
	return repos.Users.List(ctx)
}
