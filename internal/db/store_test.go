package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/model"
)

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateUser(context.Background(), UserInput{
		Name:         "Ada Lovelace",
		Email:        " Ada@Example.com ",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected user ID to be set")
	}
	if created.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.AvatarURL != nil {
		t.Fatalf("expected no avatar, got %q", *created.AvatarURL)
	}

	_, err = store.CreateUser(context.Background(), UserInput{
		Name:         "Someone Else",
		Email:        "ADA@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	found, err := store.GetUserByEmail(context.Background(), "ada@EXAMPLE.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, found.ID)
	}
}

func TestGetUserMissingReturnsNotFound(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if _, err := store.GetUser(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasksNewestFirst(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	clock := steppingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store.now = clock

	owner := createTestUser(t, store, "owner@example.com")
	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.CreateTask(context.Background(), owner.ID, title); err != nil {
			t.Fatalf("create task %q: %v", title, err)
		}
	}

	tasks, err := store.ListTasksByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	want := []string{"third", "second", "first"}
	for i, task := range tasks {
		if task.Title != want[i] {
			t.Fatalf("expected task %d to be %q, got %q", i, want[i], task.Title)
		}
		if task.Completed {
			t.Fatalf("expected task %q to start incomplete", task.Title)
		}
	}
}

func TestCreateTaskTrimsAndRejectsEmptyTitle(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	owner := createTestUser(t, store, "owner@example.com")

	if _, err := store.CreateTask(context.Background(), owner.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	created, err := store.CreateTask(context.Background(), owner.ID, "  Buy milk ")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.Title != "Buy milk" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.UserID != owner.ID {
		t.Fatalf("expected owner %d, got %d", owner.ID, created.UserID)
	}
}

func TestForeignTasksAreNotFound(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	owner := createTestUser(t, store, "owner@example.com")
	intruder := createTestUser(t, store, "intruder@example.com")

	task, err := store.CreateTask(context.Background(), owner.ID, "private")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := store.SetTaskCompleted(context.Background(), intruder.ID, task.ID, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign update, got %v", err)
	}
	if err := store.DeleteTask(context.Background(), intruder.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on foreign delete, got %v", err)
	}

	visible, err := store.ListTasksByOwner(context.Background(), intruder.ID)
	if err != nil {
		t.Fatalf("list intruder tasks: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("expected intruder to see no tasks, got %d", len(visible))
	}

	tasks, err := store.ListTasksByOwner(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("list owner tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Completed {
		t.Fatalf("expected owner task to be untouched, got %+v", tasks)
	}
}

func TestSetTaskCompletedAndDelete(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	owner := createTestUser(t, store, "owner@example.com")
	task, err := store.CreateTask(context.Background(), owner.ID, "toggle me")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := store.SetTaskCompleted(context.Background(), owner.ID, task.ID, true)
	if err != nil {
		t.Fatalf("set completed: %v", err)
	}
	if !updated.Completed {
		t.Fatalf("expected task to be completed")
	}
	if updated.Title != task.Title || !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("expected only completed to change, got %+v", updated)
	}

	if err := store.DeleteTask(context.Background(), owner.ID, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := store.DeleteTask(context.Background(), owner.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRevokeSession(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	revoked, err := store.IsSessionRevoked(context.Background(), "abc")
	if err != nil {
		t.Fatalf("check revoked: %v", err)
	}
	if revoked {
		t.Fatalf("expected fresh session id to be valid")
	}

	for i := 0; i < 2; i++ {
		if err := store.RevokeSession(context.Background(), "abc", 7); err != nil {
			t.Fatalf("revoke session #%d: %v", i+1, err)
		}
	}

	revoked, err = store.IsSessionRevoked(context.Background(), "abc")
	if err != nil {
		t.Fatalf("check revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("expected session id to be revoked")
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}

func createTestUser(t *testing.T, store *Store, email string) model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), UserInput{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}
