package usecase

import (
	"context"

	"github.com/laminotes/laminotes/internal/model"
)

type User struct {
	env *Env
}

func NewUser(env *Env) *User {
	return &User{env: env}
}

// Add registers an account stamped with the current time.
func (u *User) Add(ctx context.Context, userID, email string) (model.User, error) {
	user := model.User{UserID: userID, Email: email, CreatedAt: model.Some(u.env.now())}
	if err := u.env.users.Register(ctx, user); err != nil {
		return model.User{}, err
	}
	u.env.Logger.Info("user registered", "user_id", userID)
	return u.env.users.Get(ctx, userID)
}

func (u *User) Get(ctx context.Context, userID string) (model.User, error) {
	return u.env.users.Get(ctx, userID)
}

func (u *User) List(ctx context.Context) ([]model.User, error) {
	return u.env.users.List(ctx)
}
