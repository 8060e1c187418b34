package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/laminotes/laminotes/internal/access"
	"github.com/laminotes/laminotes/internal/apperrors"
	"github.com/laminotes/laminotes/internal/codec"
	"github.com/laminotes/laminotes/internal/database"
	"github.com/laminotes/laminotes/internal/filesystem"
	"github.com/laminotes/laminotes/internal/metrics"
	"github.com/laminotes/laminotes/internal/model"
	"github.com/laminotes/laminotes/internal/services"
	"github.com/laminotes/laminotes/internal/tracker"
)

type Document struct {
	env *Env
}

func NewDocument(env *Env) *Document {
	return &Document{env: env}
}

// DocumentView is a document together with its merged content.
// Contributors lists the authors in order of their first change.
type DocumentView struct {
	Record       database.DocumentRecord
	Content      string
	Contributors []string
	File         database.FileRecord
}

// Create starts an empty document in a team the actor may edit.
func (u *Document) Create(ctx context.Context, actorID, teamID, documentID string) (DocumentView, error) {
	if documentID == "" {
		return DocumentView{}, apperrors.Malformed("documentId", "must not be empty")
	}
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return DocumentView{}, err
	}
	if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionEdit); err != nil {
		return DocumentView{}, err
	}

	now := u.env.now()
	meta := u.env.Tracker.NewDocument(documentID, now)
	snap, err := u.snapshot(teamID, meta, "")
	if err != nil {
		return DocumentView{}, err
	}
	record := database.DocumentRecord{TeamID: teamID, Metadata: meta, CreatedAt: now}
	file, err := u.env.documents.Create(ctx, record, snap)
	if err != nil {
		return DocumentView{}, err
	}
	u.env.Logger.Info("document created", "document_id", documentID, "team_id", teamID, "user_id", actorID)
	return DocumentView{Record: record, File: file}, nil
}

// EditInput is one save by the actor. Expected is the version token the
// editor last saw; when absent the stored version is used.
type EditInput struct {
	ActorID    string
	DocumentID string
	Change     model.DocumentChange
	Expected   model.Optional[time.Time]
}

// Edit appends a change set and stores the merged snapshot.
func (u *Document) Edit(ctx context.Context, input EditInput) (DocumentView, error) {
	view, err := u.edit(ctx, input)
	switch {
	case err == nil:
		u.env.Metrics.RecordEdit(metrics.OutcomeApplied)
	case errors.Is(err, apperrors.ErrStaleWrite):
		u.env.Metrics.RecordEdit(metrics.OutcomeStale)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		u.env.Metrics.RecordEdit(metrics.OutcomeDenied)
	case errors.Is(err, apperrors.ErrInvalidChange), errors.Is(err, apperrors.ErrMalformedInput):
		u.env.Metrics.RecordEdit(metrics.OutcomeRejected)
	}
	if err != nil {
		u.env.Logger.Warn("edit not applied",
			"document_id", input.DocumentID,
			"user_id", input.ActorID,
			"code", string(apperrors.CodeOf(err)),
			"error", err)
		return DocumentView{}, err
	}
	u.env.Logger.Info("edit applied",
		"document_id", input.DocumentID,
		"user_id", input.ActorID,
		"sections", len(input.Change.Sections),
		"last_modified", codec.FormatTime(view.Record.Metadata.LastModified()))
	return view, nil
}

// EditJSON decodes a DocumentChange payload and applies it.
func (u *Document) EditJSON(ctx context.Context, actorID, documentID string, raw []byte, expected model.Optional[time.Time]) (DocumentView, error) {
	change, err := codec.DecodeDocumentChange(raw)
	if err != nil {
		u.env.Metrics.RecordEdit(metrics.OutcomeRejected)
		return DocumentView{}, err
	}
	return u.Edit(ctx, EditInput{ActorID: actorID, DocumentID: documentID, Change: change, Expected: expected})
}

func (u *Document) edit(ctx context.Context, input EditInput) (DocumentView, error) {
	record, err := u.env.documents.Get(ctx, input.DocumentID)
	if err != nil {
		return DocumentView{}, err
	}
	if _, err := u.env.authorize(ctx, record.TeamID, input.ActorID, access.ActionEdit); err != nil {
		return DocumentView{}, err
	}
	if input.Change.UserID != input.ActorID {
		return DocumentView{}, apperrors.Newf(apperrors.CodePermissionDenied,
			"%s may not save changes on behalf of %s", input.ActorID, input.Change.UserID)
	}

	change := input.Change.Clone()
	change.Timestamp = model.Timestamp(change.Timestamp)

	base := database.VersionOf(record.Metadata)
	expected := input.Expected.OrElse(base.LastModified)
	next, err := u.env.Tracker.AppendIfCurrent(record.Metadata, model.Timestamp(expected), change)
	if err != nil {
		return DocumentView{}, err
	}

	content := u.env.Tracker.Materialize(next)
	snap, err := u.snapshot(record.TeamID, next, content)
	if err != nil {
		return DocumentView{}, err
	}
	file, err := u.env.documents.Save(ctx, record.TeamID, next, base, snap, u.env.Now())
	if err != nil {
		return DocumentView{}, err
	}
	if removed, err := u.env.Store.PruneDocumentSnapshots(record.TeamID, input.DocumentID, file.Path); err != nil {
		u.env.Logger.Warn("failed to prune snapshots", "document_id", input.DocumentID, "error", err)
	} else if removed > 0 {
		u.env.Logger.Debug("pruned snapshots", "document_id", input.DocumentID, "removed", removed)
	}

	record.Metadata = next
	return DocumentView{
		Record:       record,
		Content:      content,
		Contributors: u.env.Tracker.Contributors(next),
		File:         file,
	}, nil
}

// Show returns the merged content of a document the actor may view. The
// stored snapshot is checked against its hash; the history stays
// authoritative when they disagree.
func (u *Document) Show(ctx context.Context, actorID, documentID string) (DocumentView, error) {
	record, err := u.load(ctx, actorID, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	content := u.env.Tracker.Materialize(record.Metadata)

	file, err := u.env.files.Get(ctx, documentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return DocumentView{}, err
	}
	if err == nil {
		u.checkSnapshot(file, content)
	}
	return DocumentView{
		Record:       record,
		Content:      content,
		Contributors: u.env.Tracker.Contributors(record.Metadata),
		File:         file,
	}, nil
}

// checkSnapshot compares the stored snapshot with the merged content and
// logs when the file is missing, corrupted or behind.
func (u *Document) checkSnapshot(file database.FileRecord, content string) {
	snapshot, err := filesystem.ReadFile(file.Path)
	switch {
	case err != nil:
		u.env.Logger.Warn("snapshot unreadable", "file_id", file.Metadata.FileID, "path", file.Path, "error", err)
	case filesystem.CalculateHash(snapshot) != file.Hash:
		u.env.Logger.Warn("snapshot corrupted", "file_id", file.Metadata.FileID, "path", file.Path)
	case snapshot != content:
		u.env.Logger.Warn("snapshot out of date", "file_id", file.Metadata.FileID, "path", file.Path)
	}
}

// History returns the change at index in application order.
func (u *Document) History(ctx context.Context, actorID, documentID string, index int) (model.DocumentChange, error) {
	record, err := u.load(ctx, actorID, documentID)
	if err != nil {
		return model.DocumentChange{}, err
	}
	return u.env.Tracker.History(record.Metadata, index)
}

// Changes returns the whole history in application order.
func (u *Document) Changes(ctx context.Context, actorID, documentID string) ([]model.DocumentChange, error) {
	record, err := u.load(ctx, actorID, documentID)
	if err != nil {
		return nil, err
	}
	changes := make([]model.DocumentChange, 0, record.Metadata.Len())
	for i := 0; i < record.Metadata.Len(); i++ {
		change, err := u.env.Tracker.History(record.Metadata, i)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (u *Document) Conflicts(ctx context.Context, actorID, documentID string) ([]tracker.Conflict, error) {
	record, err := u.load(ctx, actorID, documentID)
	if err != nil {
		return nil, err
	}
	return u.env.Tracker.Conflicts(record.Metadata), nil
}

// Export returns the stored metadata as JSON.
func (u *Document) Export(ctx context.Context, actorID, documentID string) ([]byte, error) {
	record, err := u.load(ctx, actorID, documentID)
	if err != nil {
		return nil, err
	}
	return codec.EncodeMarkdownMetadata(record.Metadata)
}

// List returns the documents of a team the actor may view.
func (u *Document) List(ctx context.Context, actorID, teamID string) ([]database.DocumentRecord, error) {
	if _, err := u.env.teams.Get(ctx, teamID); err != nil {
		return nil, err
	}
	if _, err := u.env.authorize(ctx, teamID, actorID, access.ActionView); err != nil {
		return nil, err
	}
	return u.env.documents.ListByTeam(ctx, teamID)
}

func (u *Document) load(ctx context.Context, actorID, documentID string) (database.DocumentRecord, error) {
	record, err := u.env.documents.Get(ctx, documentID)
	if err != nil {
		return database.DocumentRecord{}, err
	}
	if _, err := u.env.authorize(ctx, record.TeamID, actorID, access.ActionView); err != nil {
		return database.DocumentRecord{}, err
	}
	return record, nil
}

func (u *Document) snapshot(teamID string, meta model.MarkdownMetadata, content string) (services.Snapshot, error) {
	path, hash, err := u.env.Store.SaveSnapshot(teamID, meta.DocumentID(), content)
	if err != nil {
		return services.Snapshot{}, err
	}
	return services.Snapshot{FileName: meta.DocumentID() + ".md", Hash: hash, Path: path}, nil
}
