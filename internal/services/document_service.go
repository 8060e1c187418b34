package services

import (
	"context"
	"errors"
	"time"

	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/model"
)

// Snapshot locates the materialized content of a document version.
type Snapshot struct {
	FileName string
	Hash     string
	Path     string
}

// DocumentService stores document histories and the file stamps of their
// materialized snapshots.
type DocumentService struct {
	txRunner
}

func NewDocumentService(ctx *database.Context) *DocumentService {
	return &DocumentService{txRunner{name: "document service", ctx: ctx}}
}

// Create stores a new document and stamps its first snapshot.
func (s *DocumentService) Create(ctx context.Context, record database.DocumentRecord, snap Snapshot) (database.FileRecord, error) {
	var file database.FileRecord
	err := s.withTx(ctx, func(repos *database.Repositories) error {
		if _, err := getTeam(ctx, repos, record.TeamID); err != nil {
			return err
		}
		if err := repos.Documents.Create(ctx, record); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return apperrors.Wrap(apperrors.CodeMalformedInput, "document id already in use", err)
			}
			return err
		}
		var err error
		file, err = stampFile(ctx, repos, record.Metadata.DocumentID(), record.TeamID, snap, record.CreatedAt)
		return err
	})
	return file, err
}

// Get returns the document or a NotFound error.
func (s *DocumentService) Get(ctx context.Context, documentID string) (database.DocumentRecord, error) {
	repos, err := s.repos()
	if err != nil {
		return database.DocumentRecord{}, err
	}
	record, err := repos.Documents.FindByID(ctx, documentID)
	if err != nil {
		return database.DocumentRecord{}, err
	}
	if record == nil {
		return database.DocumentRecord{}, apperrors.Newf(apperrors.CodeNotFound, "document %s not found", documentID)
	}
	return *record, nil
}

func (s *DocumentService) ListByTeam(ctx context.Context, teamID string) ([]database.DocumentRecord, error) {
	repos, err := s.repos()
	if err != nil {
		return nil, err
	}
	return repos.Documents.ListByTeam(ctx, teamID)
}

// Save replaces the stored history with meta when the stored version is
// still expected, then restamps the file. A concurrent writer makes it fail
// with StaleWrite and leaves both rows untouched.
func (s *DocumentService) Save(ctx context.Context, teamID string, meta model.MarkdownMetadata, expected database.DocumentVersion, snap Snapshot, now time.Time) (database.FileRecord, error) {
	var file database.FileRecord
	err := s.withTx(ctx, func(repos *database.Repositories) error {
		if err := repos.Documents.UpdateIfCurrent(ctx, meta, expected); err != nil {
			return err
		}
		var err error
		file, err = stampFile(ctx, repos, meta.DocumentID(), teamID, snap, now)
		return err
	})
	return file, err
}

func stampFile(ctx context.Context, repos *database.Repositories, fileID, teamID string, snap Snapshot, now time.Time) (database.FileRecord, error) {
	prev, err := repos.Files.FindByID(ctx, fileID)
	if err != nil {
		return database.FileRecord{}, err
	}
	previous := model.None[time.Time]()
	if prev != nil {
		previous = model.Some(prev.Metadata.LastModified)
	}

	record := database.FileRecord{
		Metadata: model.FileMetadata{
			FileID:       fileID,
			FileName:     snap.FileName,
			LastModified: NextFileTimestamp(previous, now),
			TeamID:       model.Some(teamID),
		},
		Hash: snap.Hash,
		Path: snap.Path,
	}
	if err := repos.Files.Upsert(ctx, record); err != nil {
		return database.FileRecord{}, err
	}
	return record, nil
}

// NextFileTimestamp returns the stamp for a new write: now, or one
// millisecond past the previous stamp when the clock has not moved beyond it.
func NextFileTimestamp(previous model.Optional[time.Time], now time.Time) time.Time {
	now = model.Timestamp(now)
	prev, ok := previous.Get()
	if !ok {
		return now
	}
	if floor := model.Timestamp(prev).Add(time.Millisecond); now.Before(floor) {
		return floor
	}
	return now
}
