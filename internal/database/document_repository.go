package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/codec"
	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

// DocumentRecord is a stored document: its history plus the owning team.
type DocumentRecord struct {
	TeamID    string
	Metadata  model.MarkdownMetadata
	CreatedAt time.Time
}

// DocumentVersion identifies the stored state a writer based its change on.
// The change count is part of it because a change may carry the same
// timestamp as its predecessor and then leaves lastModified unchanged.
type DocumentVersion struct {
	LastModified time.Time
	Changes      int
}

// VersionOf returns the version token of meta.
func VersionOf(meta model.MarkdownMetadata) DocumentVersion {
	return DocumentVersion{LastModified: meta.LastModified(), Changes: meta.Len()}
}

type DocumentRepository struct {
	ctx *Context
}

func NewDocumentRepository(dbCtx *Context) *DocumentRepository {
	return &DocumentRepository{ctx: dbCtx}
}

func (r *DocumentRepository) Create(ctx context.Context, record DocumentRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("document repository: missing database context")
	}

	raw, err := codec.EncodeMarkdownMetadata(record.Metadata)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", record.Metadata.DocumentID(), err)
	}
	err = queries.InsertDocument(ctx, sqldb.InsertDocumentParams{
		ID:           record.Metadata.DocumentID(),
		TeamID:       record.TeamID,
		Metadata:     string(raw),
		LastModified: formatTime(record.Metadata.LastModified()),
		CreatedAt:    formatTime(record.CreatedAt),
		ChangeCount:  int64(record.Metadata.Len()),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("document %s: %w", record.Metadata.DocumentID(), ErrDuplicate)
	}
	return err
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*DocumentRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("document repository: missing database context")
	}

	row, err := queries.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return mapDocumentRow(row)
}

func (r *DocumentRepository) ListByTeam(ctx context.Context, teamID string) ([]DocumentRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("document repository: missing database context")
	}

	rows, err := queries.ListDocumentsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	result := make([]DocumentRecord, 0, len(rows))
	for _, row := range rows {
		record, err := mapDocumentRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, nil
}

// UpdateIfCurrent stores meta only when the row still carries expected as its
// last_modified and change_count. Otherwise another writer got there first
// and the call fails with StaleWrite.
func (r *DocumentRepository) UpdateIfCurrent(ctx context.Context, meta model.MarkdownMetadata, expected DocumentVersion) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("document repository: missing database context")
	}

	raw, err := codec.EncodeMarkdownMetadata(meta)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", meta.DocumentID(), err)
	}
	affected, err := queries.UpdateDocumentIfCurrent(ctx, sqldb.UpdateDocumentIfCurrentParams{
		Metadata:             string(raw),
		LastModified:         formatTime(meta.LastModified()),
		ChangeCount:          int64(meta.Len()),
		ID:                   meta.DocumentID(),
		ExpectedLastModified: formatTime(expected.LastModified),
		ExpectedChangeCount:  int64(expected.Changes),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.WithMetadata(apperrors.CodeStaleWrite,
			fmt.Sprintf("document %s changed since %s (%d changes)",
				meta.DocumentID(), formatTime(expected.LastModified), expected.Changes),
			map[string]string{"documentId": meta.DocumentID()})
	}
	return nil
}

func mapDocumentRow(row sqldb.Document) (*DocumentRecord, error) {
	meta, err := codec.DecodeMarkdownMetadata([]byte(row.Metadata))
	if err != nil {
		return nil, fmt.Errorf("document %s metadata: %w", row.ID, err)
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("document %s created_at: %w", row.ID, err)
	}
	return &DocumentRecord{
		TeamID:    row.TeamID,
		Metadata:  meta,
		CreatedAt: createdAt,
	}, nil
}
