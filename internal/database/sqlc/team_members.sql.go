package sqldb

import (
	"context"
	"database/sql"
)

const insertTeamMember = `INSERT INTO team_members (user_id, team_id, role, access_expires) VALUES (?, ?, ?, ?)`

type InsertTeamMemberParams struct {
	UserID        string
	TeamID        string
	Role          int64
	AccessExpires sql.NullString
}

func (q *Queries) InsertTeamMember(ctx context.Context, arg InsertTeamMemberParams) error {
	_, err := q.db.ExecContext(ctx, insertTeamMember, arg.UserID, arg.TeamID, arg.Role, arg.AccessExpires)
	return err
}

const getTeamMember = `SELECT user_id, team_id, role, access_expires FROM team_members WHERE user_id = ? AND team_id = ?`

type GetTeamMemberParams struct {
	UserID string
	TeamID string
}

func (q *Queries) GetTeamMember(ctx context.Context, arg GetTeamMemberParams) (TeamMember, error) {
	row := q.db.QueryRowContext(ctx, getTeamMember, arg.UserID, arg.TeamID)
	var i TeamMember
	err := row.Scan(&i.UserID, &i.TeamID, &i.Role, &i.AccessExpires)
	return i, err
}

const listTeamMembers = `SELECT user_id, team_id, role, access_expires FROM team_members WHERE team_id = ? ORDER BY role DESC, user_id`

func (q *Queries) ListTeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	rows, err := q.db.QueryContext(ctx, listTeamMembers, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TeamMember
	for rows.Next() {
		var i TeamMember
		if err := rows.Scan(&i.UserID, &i.TeamID, &i.Role, &i.AccessExpires); err != nil {
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

const updateTeamMember = `UPDATE team_members SET role = ?, access_expires = ? WHERE user_id = ? AND team_id = ?`

type UpdateTeamMemberParams struct {
	Role          int64
	AccessExpires sql.NullString
	UserID        string
	TeamID        string
}

func (q *Queries) UpdateTeamMember(ctx context.Context, arg UpdateTeamMemberParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTeamMember, arg.Role, arg.AccessExpires, arg.UserID, arg.TeamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTeamMember = `DELETE FROM team_members WHERE user_id = ? AND team_id = ?`

type DeleteTeamMemberParams struct {
	UserID string
	TeamID string
}

func (q *Queries) DeleteTeamMember(ctx context.Context, arg DeleteTeamMemberParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTeamMember, arg.UserID, arg.TeamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
