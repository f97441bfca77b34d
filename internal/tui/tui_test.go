package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/controller"
	"github.com/Joseda-hg/tasktrack/internal/model"
)

type memoryStore struct {
	mu      sync.Mutex
	tasks   map[int64]model.Task
	nextID  int64
	deletes int
	fail    error
}

func (s *memoryStore) CreateTask(_ context.Context, ownerID int64, title string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return model.Task{}, s.fail
	}
	s.nextID++
	task := model.Task{ID: s.nextID, UserID: ownerID, Title: title, CreatedAt: time.Now()}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *memoryStore) SetCompleted(_ context.Context, id int64, completed bool) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return model.Task{}, s.fail
	}
	task := s.tasks[id]
	task.Completed = completed
	s.tasks[id] = task
	return task, nil
}

func (s *memoryStore) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.fail != nil {
		return s.fail
	}
	delete(s.tasks, id)
	return nil
}

func (s *memoryStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

type stubSession struct {
	mu      sync.Mutex
	cleared bool
}

func (s *stubSession) Logout(context.Context) error { return nil }

func (s *stubSession) ClearCredential() {
	s.mu.Lock()
	s.cleared = true
	s.mu.Unlock()
}

func newTestUI(t *testing.T, tasks ...model.Task) (*UI, *memoryStore) {
	t.Helper()
	store := &memoryStore{tasks: map[int64]model.Task{}}
	for _, task := range tasks {
		store.tasks[task.ID] = task
		store.nextID = max(store.nextID, task.ID)
	}
	ui := newUI(context.Background(), Options{
		Store:     store,
		Session:   &stubSession{},
		Dashboard: model.Dashboard{User: model.User{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com"}, Tasks: tasks},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ui.run = func(op func()) { op() }
	t.Cleanup(ui.close)
	return ui, store
}

func sampleTasks() []model.Task {
	now := time.Now()
	return []model.Task{
		{ID: 2, UserID: 1, Title: "Walk dog", CreatedAt: now.Add(-time.Minute)},
		{ID: 1, UserID: 1, Title: "Buy milk", Completed: true, CreatedAt: now.Add(-time.Hour)},
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestToggleSelectedTask(t *testing.T) {
	ui, store := newTestUI(t, sampleTasks()...)

	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if err := ui.toggleSelected(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if store.tasks[1].Completed {
		t.Fatalf("expected selected task to be reopened")
	}
	if ui.ctrl.Snapshot().Tasks[1].Completed {
		t.Fatalf("expected local task to follow server")
	}
}

func TestSelectionStaysInBounds(t *testing.T) {
	ui, _ := newTestUI(t, sampleTasks()...)
	for i := 0; i < 5; i++ {
		_ = ui.moveDown(nil, nil)
	}
	if ui.selected != 1 {
		t.Fatalf("expected selection clamped to 1, got %d", ui.selected)
	}
	for i := 0; i < 5; i++ {
		_ = ui.moveUp(nil, nil)
	}
	if ui.selected != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", ui.selected)
	}
}

func TestAddTaskFlow(t *testing.T) {
	ui, _ := newTestUI(t, sampleTasks()...)

	if err := ui.openAdd(nil, nil); err != nil {
		t.Fatalf("open add: %v", err)
	}
	if !ui.modalActive() {
		t.Fatalf("expected add modal to be active")
	}
	if err := ui.toggleSelected(nil, nil); err != nil {
		t.Fatalf("toggle while adding: %v", err)
	}

	// The edit buffer is only reachable with a running gui; submit with the
	// value already in the controller.
	ui.ctrl.SetInput("Write report")
	ui.adding = false
	ui.run(func() { ui.ctrl.Add(ui.ctx) })

	state := ui.ctrl.Snapshot()
	if state.Tasks[0].Title != "Write report" || state.Input != "" {
		t.Fatalf("expected new task first, got %+v", state.Tasks[0])
	}
	if state.Tasks[1].Completed {
		t.Fatalf("expected toggle to be ignored while the add modal was open")
	}
}

func TestSubmitEmptyAddShowsError(t *testing.T) {
	ui, _ := newTestUI(t)
	ui.adding = true
	if err := ui.submitAdd(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	state := ui.ctrl.Snapshot()
	if state.Error != controller.MsgEmptyTask {
		t.Fatalf("expected %q, got %q", controller.MsgEmptyTask, state.Error)
	}
	if ui.adding {
		t.Fatalf("expected add modal closed")
	}
	if !strings.Contains(statusLine(state), controller.MsgEmptyTask) {
		t.Fatalf("expected error in status line")
	}
}

func TestDeleteWaitsForConfirmation(t *testing.T) {
	ui, store := newTestUI(t, sampleTasks()...)
	ui.run = func(op func()) { go op() }

	if err := ui.deleteSelected(nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitUntil(t, ui.hasConfirm)
	if prompt, _ := ui.pendingPrompt(); prompt != controller.PromptDelete {
		t.Fatalf("expected delete prompt, got %q", prompt)
	}
	if store.deleteCount() != 0 {
		t.Fatalf("expected no delete before confirmation")
	}

	if err := ui.confirmYes(nil, nil); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	waitUntil(t, func() bool { return len(ui.ctrl.Snapshot().Tasks) == 1 })
	if store.deleteCount() != 1 {
		t.Fatalf("expected one delete call, got %d", store.deleteCount())
	}
}

func TestDeclinedDeleteKeepsTask(t *testing.T) {
	ui, store := newTestUI(t, sampleTasks()...)
	ui.run = func(op func()) { go op() }

	_ = ui.deleteSelected(nil, nil)
	waitUntil(t, ui.hasConfirm)
	_ = ui.confirmNo(nil, nil)
	waitUntil(t, func() bool { return !ui.hasConfirm() })

	time.Sleep(10 * time.Millisecond)
	if store.deleteCount() != 0 || len(ui.ctrl.Snapshot().Tasks) != 2 {
		t.Fatalf("expected task kept after declining")
	}
}

func TestConfirmAnswersNoAfterShutdown(t *testing.T) {
	ui, _ := newTestUI(t)
	result := make(chan bool, 1)
	go func() { result <- ui.Confirm("Proceed?") }()
	waitUntil(t, ui.hasConfirm)
	ui.close()

	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected no after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("confirm did not return after shutdown")
	}
}

func TestLogoutNavigatesToLogin(t *testing.T) {
	ui, _ := newTestUI(t, sampleTasks()...)
	ui.run = func(op func()) { go op() }

	_ = ui.logout(nil, nil)
	waitUntil(t, ui.hasConfirm)
	_ = ui.confirmYes(nil, nil)
	waitUntil(t, func() bool { return ui.navigatedTo() != "" })

	if ui.navigatedTo() != controller.LoginPath {
		t.Fatalf("expected navigation to %s, got %q", controller.LoginPath, ui.navigatedTo())
	}
	if _, ok := ui.ctrl.View(); ok {
		t.Fatalf("expected no view after logout")
	}
}

func TestFailedToggleSurfacesError(t *testing.T) {
	ui, store := newTestUI(t, sampleTasks()...)
	store.fail = errors.New("boom")
	_ = ui.toggleSelected(nil, nil)

	state := ui.ctrl.Snapshot()
	if state.Error != controller.MsgUpdateFailed || state.Tasks[0].Completed {
		t.Fatalf("unexpected state %+v", state)
	}
	_ = ui.dismissError(nil, nil)
	if ui.ctrl.Snapshot().Error != "" {
		t.Fatalf("expected error dismissed")
	}
}

func TestFormatTaskLine(t *testing.T) {
	task := model.Task{ID: 3, Title: "Water plants", Completed: true, CreatedAt: time.Now().Add(-2 * time.Hour)}
	state := controller.State{
		Deleting: map[int64]controller.OpState{3: controller.Pending},
		Toggling: map[int64]controller.OpState{},
	}
	line := formatTaskLine(task, state)
	for _, want := range []string{"[x]", "Water plants", "2 hours ago", "deleting"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "saving") {
		t.Fatalf("expected no saving marker in %q", line)
	}
}

func TestCountTasks(t *testing.T) {
	got := countTasks(sampleTasks())
	if got != "2 total, 1 completed, 1 pending" {
		t.Fatalf("unexpected counts %q", got)
	}
}

func TestInputValue(t *testing.T) {
	cases := map[string]string{
		"Buy milk\n":         "Buy milk",
		"  spaced   out  ":   "spaced out",
		"":                   "",
		"multi\nline\ntitle": "multi line title",
	}
	for in, want := range cases {
		if got := inputValue(in); got != want {
			t.Fatalf("inputValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHelpTextListsBindings(t *testing.T) {
	text := helpText()
	for _, want := range []string{"a add task", "d delete", "L log out", "q quit"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in help text", want)
		}
	}
}
