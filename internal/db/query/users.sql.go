package query

import (
	"context"
	"database/sql"
	"time"
)

const createUser = `
INSERT INTO users (name, email, avatar_url, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)`

type CreateUserParams struct {
	Name         string
	Email        string
	AvatarUrl    sql.NullString
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts the user and returns its id.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createUser, arg.Name, arg.Email, arg.AvatarUrl, arg.PasswordHash, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const revokeSession = `
INSERT INTO revoked_sessions (token_id, user_id, revoked_at)
VALUES (?, ?, ?)
ON CONFLICT (token_id) DO NOTHING`

type RevokeSessionParams struct {
	TokenID   string
	UserID    int64
	RevokedAt time.Time
}

func (q *Queries) RevokeSession(ctx context.Context, arg RevokeSessionParams) error {
	_, err := q.db.ExecContext(ctx, revokeSession, arg.TokenID, arg.UserID, arg.RevokedAt)
	return err
}

const countRevokedSession = `SELECT COUNT(*) FROM revoked_sessions WHERE token_id = ?`

func (q *Queries) CountRevokedSession(ctx context.Context, tokenID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRevokedSession, tokenID).Scan(&count)
	return count, err
}
