package sqldb

import (
	"context"
	"database/sql"
)

const insertTeam = `INSERT INTO teams (id, name, owner_id, created_at, local_directory) VALUES (?, ?, ?, ?, ?)`

type InsertTeamParams struct {
	ID             string
	Name           string
	OwnerID        string
	CreatedAt      string
	LocalDirectory sql.NullString
}

func (q *Queries) InsertTeam(ctx context.Context, arg InsertTeamParams) error {
	_, err := q.db.ExecContext(ctx, insertTeam, arg.ID, arg.Name, arg.OwnerID, arg.CreatedAt, arg.LocalDirectory)
	return err
}

const getTeam = `SELECT id, name, owner_id, created_at, local_directory FROM teams WHERE id = ?`

func (q *Queries) GetTeam(ctx context.Context, id string) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeam, id)
	var i Team
	err := row.Scan(&i.ID, &i.Name, &i.OwnerID, &i.CreatedAt, &i.LocalDirectory)
	return i, err
}

const listTeamsForUser = `SELECT t.id, t.name, t.owner_id, t.created_at, t.local_directory
FROM teams t
JOIN team_members m ON m.team_id = t.id
WHERE m.user_id = ?
ORDER BY t.created_at, t.id`

func (q *Queries) ListTeamsForUser(ctx context.Context, userID string) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeamsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		var i Team
		if err := rows.Scan(&i.ID, &i.Name, &i.OwnerID, &i.CreatedAt, &i.LocalDirectory); err != nil {
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

const deleteTeam = `DELETE FROM teams WHERE id = ?`

func (q *Queries) DeleteTeam(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTeam, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
