package services

import (
	"context"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
)

type FileService struct {
	txRunner
}

func NewFileService(ctx *database.Context) *FileService {
	return &FileService{txRunner{name: "file service", ctx: ctx}}
}

// List returns file stamps, restricted to teamID when it is non-empty.
func (s *FileService) List(ctx context.Context, teamID string) ([]database.FileRecord, error) {
	repos, err := s.repos()
	if err != nil {
		return nil, err
	}
	return repos.Files.List(ctx, teamID)
}

func (s *FileService) Get(ctx context.Context, fileID string) (database.FileRecord, error) {
	repos, err := s.repos()
	if err != nil {
		return database.FileRecord{}, err
	}
	record, err := repos.Files.FindByID(ctx, fileID)
	if err != nil {
		return database.FileRecord{}, err
	}
	if record == nil {
		return database.FileRecord{}, apperrors.Newf(apperrors.CodeNotFound, "file %s not found", fileID)
	}
	return *record, nil
}
