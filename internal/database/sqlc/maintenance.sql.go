package sqldb

import "context"

const deleteAllFiles = `DELETE FROM files`

func (q *Queries) DeleteAllFiles(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllFiles)
	return err
}

const deleteAllDocuments = `DELETE FROM documents`

func (q *Queries) DeleteAllDocuments(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDocuments)
	return err
}

const deleteAllInvitations = `DELETE FROM invitations`

func (q *Queries) DeleteAllInvitations(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllInvitations)
	return err
}

const deleteAllTeamMembers = `DELETE FROM team_members`

func (q *Queries) DeleteAllTeamMembers(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTeamMembers)
	return err
}

const deleteAllTeams = `DELETE FROM teams`

func (q *Queries) DeleteAllTeams(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllTeams)
	return err
}

const deleteAllUsers = `DELETE FROM users`

func (q *Queries) DeleteAllUsers(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllUsers)
	return err
}
