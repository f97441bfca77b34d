// Package query holds the SQL statements used by the store and the row types
// they scan into. Every statement takes an explicit owner where the row is
// user-scoped.
package query

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type User struct {
	ID           int64
	Name         string
	Email        string
	AvatarUrl    sql.NullString
	PasswordHash string
	CreatedAt    time.Time
}

type Task struct {
	ID        int64
	UserID    int64
	Title     string
	Completed bool
	CreatedAt time.Time
}

const userColumns = "id, name, email, avatar_url, password_hash, created_at"

const taskColumns = "id, user_id, title, completed, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarUrl, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Completed, &t.CreatedAt)
	return t, err
}
