package query

import (
	"context"
	"time"
)

const listTasksByUser = `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListTasksByUser(ctx context.Context, userID int64) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasksByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTask = `
INSERT INTO tasks (user_id, title, completed, created_at)
VALUES (?, ?, 0, ?)`

type CreateTaskParams struct {
	UserID    int64
	Title     string
	CreatedAt time.Time
}

// CreateTask inserts the task and returns its id.
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTask, arg.UserID, arg.Title, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getTaskForUser = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`

type GetTaskForUserParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) GetTaskForUser(ctx context.Context, arg GetTaskForUserParams) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTaskForUser, arg.ID, arg.UserID))
}

const setTaskCompleted = `
UPDATE tasks SET completed = ?
WHERE id = ? AND user_id = ?`

type SetTaskCompletedParams struct {
	Completed bool
	ID        int64
	UserID    int64
}

func (q *Queries) SetTaskCompleted(ctx context.Context, arg SetTaskCompletedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTaskCompleted, arg.Completed, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTask = `DELETE FROM tasks WHERE id = ? AND user_id = ?`

type DeleteTaskParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) DeleteTask(ctx context.Context, arg DeleteTaskParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTask, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
