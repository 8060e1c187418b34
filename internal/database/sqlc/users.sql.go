package sqldb

import (
	"context"
	"database/sql"
)

const insertUser = `INSERT INTO users (user_id, email, created_at) VALUES (?, ?, ?)`

type InsertUserParams struct {
	UserID    string
	Email     string
	CreatedAt sql.NullString
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) error {
	_, err := q.db.ExecContext(ctx, insertUser, arg.UserID, arg.Email, arg.CreatedAt)
	return err
}

const getUser = `SELECT user_id, email, created_at FROM users WHERE user_id = ?`

func (q *Queries) GetUser(ctx context.Context, userID string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, userID)
	var i User
	err := row.Scan(&i.UserID, &i.Email, &i.CreatedAt)
	return i, err
}

const getUserByEmail = `SELECT user_id, email, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.UserID, &i.Email, &i.CreatedAt)
	return i, err
}

const listUsers = `SELECT user_id, email, created_at FROM users ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.UserID, &i.Email, &i.CreatedAt); err != nil {
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
