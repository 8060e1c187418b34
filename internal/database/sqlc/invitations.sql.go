package sqldb

import "context"

const insertInvitation = `INSERT INTO invitations (id, team_id, invited_email, invited_by, role, created_at, expires_at, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertInvitationParams struct {
	ID           string
	TeamID       string
	InvitedEmail string
	InvitedBy    string
	Role         int64
	CreatedAt    string
	ExpiresAt    string
	Status       string
}

func (q *Queries) InsertInvitation(ctx context.Context, arg InsertInvitationParams) error {
	_, err := q.db.ExecContext(ctx, insertInvitation,
		arg.ID, arg.TeamID, arg.InvitedEmail, arg.InvitedBy, arg.Role, arg.CreatedAt, arg.ExpiresAt, arg.Status)
	return err
}

const getInvitation = `SELECT id, team_id, invited_email, invited_by, role, created_at, expires_at, status
FROM invitations WHERE id = ?`

func (q *Queries) GetInvitation(ctx context.Context, id string) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, getInvitation, id)
	var i Invitation
	err := row.Scan(&i.ID, &i.TeamID, &i.InvitedEmail, &i.InvitedBy, &i.Role, &i.CreatedAt, &i.ExpiresAt, &i.Status)
	return i, err
}

const listInvitationsByTeam = `SELECT id, team_id, invited_email, invited_by, role, created_at, expires_at, status
FROM invitations WHERE team_id = ? ORDER BY created_at, id`

func (q *Queries) ListInvitationsByTeam(ctx context.Context, teamID string) ([]Invitation, error) {
	return q.listInvitations(ctx, listInvitationsByTeam, teamID)
}

const listInvitationsByEmail = `SELECT id, team_id, invited_email, invited_by, role, created_at, expires_at, status
FROM invitations WHERE invited_email = ? ORDER BY created_at, id`

func (q *Queries) ListInvitationsByEmail(ctx context.Context, email string) ([]Invitation, error) {
	return q.listInvitations(ctx, listInvitationsByEmail, email)
}

func (q *Queries) listInvitations(ctx context.Context, query, arg string) ([]Invitation, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invitation
	for rows.Next() {
		var i Invitation
		if err := rows.Scan(&i.ID, &i.TeamID, &i.InvitedEmail, &i.InvitedBy, &i.Role, &i.CreatedAt, &i.ExpiresAt, &i.Status); err != nil {
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

const transitionInvitation = `UPDATE invitations SET status = ? WHERE id = ? AND status = ?`

type TransitionInvitationParams struct {
	Status     string
	ID         string
	FromStatus string
}

// TransitionInvitation only moves rows still in FromStatus, so concurrent
// writers cannot both leave the same state.
func (q *Queries) TransitionInvitation(ctx context.Context, arg TransitionInvitationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, transitionInvitation, arg.Status, arg.ID, arg.FromStatus)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
