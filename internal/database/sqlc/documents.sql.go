package sqldb

import "context"

const insertDocument = `INSERT INTO documents (id, team_id, metadata, last_modified, created_at, change_count) VALUES (?, ?, ?, ?, ?, ?)`

type InsertDocumentParams struct {
	ID           string
	TeamID       string
	Metadata     string
	LastModified string
	CreatedAt    string
	ChangeCount  int64
}

func (q *Queries) InsertDocument(ctx context.Context, arg InsertDocumentParams) error {
	_, err := q.db.ExecContext(ctx, insertDocument, arg.ID, arg.TeamID, arg.Metadata, arg.LastModified, arg.CreatedAt, arg.ChangeCount)
	return err
}

const getDocument = `SELECT id, team_id, metadata, last_modified, created_at, change_count FROM documents WHERE id = ?`

func (q *Queries) GetDocument(ctx context.Context, id string) (Document, error) {
	row := q.db.QueryRowContext(ctx, getDocument, id)
	var i Document
	err := row.Scan(&i.ID, &i.TeamID, &i.Metadata, &i.LastModified, &i.CreatedAt, &i.ChangeCount)
	return i, err
}

const listDocumentsByTeam = `SELECT id, team_id, metadata, last_modified, created_at, change_count FROM documents WHERE team_id = ? ORDER BY id`

func (q *Queries) ListDocumentsByTeam(ctx context.Context, teamID string) ([]Document, error) {
	rows, err := q.db.QueryContext(ctx, listDocumentsByTeam, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Document
	for rows.Next() {
		var i Document
		if err := rows.Scan(&i.ID, &i.TeamID, &i.Metadata, &i.LastModified, &i.CreatedAt, &i.ChangeCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateDocumentIfCurrent = `UPDATE documents SET metadata = ?, last_modified = ?, change_count = ? WHERE id = ? AND last_modified = ? AND change_count = ?`

type UpdateDocumentIfCurrentParams struct {
	Metadata             string
	LastModified         string
	ChangeCount          int64
	ID                   string
	ExpectedLastModified string
	ExpectedChangeCount  int64
}

// UpdateDocumentIfCurrent writes only when the stored row still carries
// ExpectedLastModified and ExpectedChangeCount. Zero affected rows means
// another writer won.
func (q *Queries) UpdateDocumentIfCurrent(ctx context.Context, arg UpdateDocumentIfCurrentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDocumentIfCurrent,
		arg.Metadata, arg.LastModified, arg.ChangeCount,
		arg.ID, arg.ExpectedLastModified, arg.ExpectedChangeCount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
