package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/db/query"
	"github.com/Joseda-hg/tasktrack/internal/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidInput = errors.New("invalid input")
)

type Store struct {
	DB      *sql.DB
	Queries *query.Queries

	now func() time.Time
}

type UserInput struct {
	Name         string
	Email        string
	AvatarURL    string
	PasswordHash string
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, Queries: query.New(db), now: time.Now}
}

func (s *Store) CreateUser(ctx context.Context, input UserInput) (model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.PasswordHash == "" {
		return model.User{}, fmt.Errorf("create user: %w", ErrInvalidInput)
	}

	var avatar sql.NullString
	if trimmed := strings.TrimSpace(input.AvatarURL); trimmed != "" {
		avatar = sql.NullString{String: trimmed, Valid: true}
	}

	id, err := s.Queries.CreateUser(ctx, query.CreateUserParams{
		Name:         name,
		Email:        email,
		AvatarUrl:    avatar,
		PasswordHash: input.PasswordHash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, userID int64) (model.User, error) {
	row, err := s.Queries.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, notFound("get user", err)
	}
	return mapUser(row), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row, err := s.Queries.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return model.User{}, notFound("get user by email", err)
	}
	return mapUser(row), nil
}

// ListTasksByOwner returns the owner's tasks, most recently created first.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64) ([]model.Task, error) {
	rows, err := s.Queries.ListTasksByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	result := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		result = append(result, mapTask(row))
	}
	return result, nil
}

func (s *Store) CreateTask(ctx context.Context, ownerID int64, title string) (model.Task, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return model.Task{}, fmt.Errorf("create task: title: %w", ErrInvalidInput)
	}

	id, err := s.Queries.CreateTask(ctx, query.CreateTaskParams{
		UserID:    ownerID,
		Title:     trimmed,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	return s.getTask(ctx, ownerID, id)
}

// SetTaskCompleted updates the completed flag of a task owned by ownerID.
// Tasks that do not exist or belong to another user yield ErrNotFound.
func (s *Store) SetTaskCompleted(ctx context.Context, ownerID, taskID int64, completed bool) (model.Task, error) {
	affected, err := s.Queries.SetTaskCompleted(ctx, query.SetTaskCompletedParams{
		Completed: completed,
		ID:        taskID,
		UserID:    ownerID,
	})
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return model.Task{}, ErrNotFound
	}

	return s.getTask(ctx, ownerID, taskID)
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	affected, err := s.Queries.DeleteTask(ctx, query.DeleteTaskParams{ID: taskID, UserID: ownerID})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RevokeSession(ctx context.Context, tokenID string, userID int64) error {
	if tokenID == "" {
		return fmt.Errorf("revoke session: %w", ErrInvalidInput)
	}
	if err := s.Queries.RevokeSession(ctx, query.RevokeSessionParams{
		TokenID:   tokenID,
		UserID:    userID,
		RevokedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Store) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := s.Queries.CountRevokedSession(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return count > 0, nil
}

func (s *Store) getTask(ctx context.Context, ownerID, taskID int64) (model.Task, error) {
	row, err := s.Queries.GetTaskForUser(ctx, query.GetTaskForUserParams{ID: taskID, UserID: ownerID})
	if err != nil {
		return model.Task{}, notFound("get task", err)
	}
	return mapTask(row), nil
}

func mapUser(row query.User) model.User {
	user := model.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
	if row.AvatarUrl.Valid {
		avatar := row.AvatarUrl.String
		user.AvatarURL = &avatar
	}
	return user
}

func mapTask(row query.Task) model.Task {
	return model.Task{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Completed: row.Completed,
		CreatedAt: row.CreatedAt,
	}
}

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
