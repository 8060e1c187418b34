package sqldb

import (
	"context"
	"database/sql"
)

const upsertFile = `INSERT INTO files (file_id, file_name, last_modified, team_id, hash, file_path)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (file_id) DO UPDATE SET
    file_name = excluded.file_name,
    last_modified = excluded.last_modified,
    team_id = excluded.team_id,
    hash = excluded.hash,
    file_path = excluded.file_path`

type UpsertFileParams struct {
	FileID       string
	FileName     string
	LastModified string
	TeamID       sql.NullString
	Hash         string
	FilePath     string
}

func (q *Queries) UpsertFile(ctx context.Context, arg UpsertFileParams) error {
	_, err := q.db.ExecContext(ctx, upsertFile, arg.FileID, arg.FileName, arg.LastModified, arg.TeamID, arg.Hash, arg.FilePath)
	return err
}

const getFile = `SELECT file_id, file_name, last_modified, team_id, hash, file_path FROM files WHERE file_id = ?`

func (q *Queries) GetFile(ctx context.Context, fileID string) (File, error) {
	row := q.db.QueryRowContext(ctx, getFile, fileID)
	var i File
	err := row.Scan(&i.FileID, &i.FileName, &i.LastModified, &i.TeamID, &i.Hash, &i.FilePath)
	return i, err
}

const listFiles = `SELECT file_id, file_name, last_modified, team_id, hash, file_path FROM files
WHERE (? = '' OR team_id = ?)
ORDER BY file_name, file_id`

func (q *Queries) ListFiles(ctx context.Context, teamID string) ([]File, error) {
	rows, err := q.db.QueryContext(ctx, listFiles, teamID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []File
	for rows.Next() {
		var i File
		if err := rows.Scan(&i.FileID, &i.FileName, &i.LastModified, &i.TeamID, &i.Hash, &i.FilePath); err != nil {
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
