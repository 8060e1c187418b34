package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

// FileRecord is a file stamp together with where its content lives.
type FileRecord struct {
	Metadata model.FileMetadata
	Hash     string
	Path     string
}

type FileRepository struct {
	ctx *Context
}

func NewFileRepository(dbCtx *Context) *FileRepository {
	return &FileRepository{ctx: dbCtx}
}

func (r *FileRepository) Upsert(ctx context.Context, record FileRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("file repository: missing database context")
	}

	return queries.UpsertFile(ctx, sqldb.UpsertFileParams{
		FileID:       record.Metadata.FileID,
		FileName:     record.Metadata.FileName,
		LastModified: formatTime(record.Metadata.LastModified),
		TeamID:       nullString(record.Metadata.TeamID),
		Hash:         record.Hash,
		FilePath:     record.Path,
	})
}

func (r *FileRepository) FindByID(ctx context.Context, fileID string) (*FileRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("file repository: missing database context")
	}

	row, err := queries.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapFileRow(row)
}

// List returns every file stamp, or only those of teamID when it is set.
func (r *FileRepository) List(ctx context.Context, teamID string) ([]FileRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("file repository: missing database context")
	}

	rows, err := queries.ListFiles(ctx, teamID)
	if err != nil {
		return nil, err
	}

	result := make([]FileRecord, 0, len(rows))
	for _, row := range rows {
		record, err := mapFileRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, nil
}

func mapFileRow(row sqldb.File) (*FileRecord, error) {
	lastModified, err := parseTime(row.LastModified)
	if err != nil {
		return nil, fmt.Errorf("file %s lastModified: %w", row.FileID, err)
	}
	return &FileRecord{
		Metadata: model.FileMetadata{
			FileID:       row.FileID,
			FileName:     row.FileName,
			LastModified: lastModified,
			TeamID:       optionalString(row.TeamID),
		},
		Hash: row.Hash,
		Path: row.FilePath,
	}, nil
}
