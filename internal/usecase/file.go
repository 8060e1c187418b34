package usecase

import (
	"context"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/database"
)

type File struct {
	env *Env
}

func NewFile(env *Env) *File {
	return &File{env: env}
}

// List returns the file stamps of one team, or of every team the actor
// belongs to when teamID is empty.
func (u *File) List(ctx context.Context, actorID, teamID string) ([]database.FileRecord, error) {
	if teamID != "" {
		if _, err := u.env.teams.Get(ctx, teamID); err != nil {
			return nil, err
		}
		if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionView); err != nil {
			return nil, err
		}
		return u.env.files.List(ctx, teamID)
	}

	teams, err := u.env.teams.ListForUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	var result []database.FileRecord
	for _, team := range teams {
		files, err := u.env.files.List(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, files...)
	}
	return result, nil
}
