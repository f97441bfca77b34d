// Package controller owns the terminal client's working copy of the task
// list and keeps it consistent with the server while add, toggle and delete
// requests are in flight.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Joseda-hg/tasktrack/internal/client"
	"github.com/Joseda-hg/tasktrack/internal/model"
)

const LoginPath = "/login"

const (
	MsgEmptyTask      = "Task cannot be empty"
	MsgAddFailed      = "Failed to add task"
	MsgDeleteFailed   = "Failed to delete task"
	MsgUpdateFailed   = "Failed to update task"
	MsgLogoutFailed   = "Failed to log out"
	MsgSessionExpired = "Session expired, please log in again"

	PromptDelete = "Are you sure you want to delete this task?"
	PromptLogout = "Are you sure you want to log out?"
)

type OpState int

const (
	Idle OpState = iota
	Pending
)

func (s OpState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

type Store interface {
	CreateTask(ctx context.Context, ownerID int64, title string) (model.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type Session interface {
	Logout(ctx context.Context) error
	ClearCredential()
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(prompt string) bool
}

type Navigator interface {
	Navigate(path string)
}

// State is a point-in-time copy of the controller; mutating it has no
// effect on the controller.
type State struct {
	Identity   *model.User
	Tasks      []model.Task
	Deleting   map[int64]OpState
	Toggling   map[int64]OpState
	Adding     bool
	LoggingOut bool
	Input      string
	Error      string
}

func (s State) DeleteState(id int64) OpState { return s.Deleting[id] }

func (s State) ToggleState(id int64) OpState { return s.Toggling[id] }

type Deps struct {
	Store     Store
	Session   Session
	Confirmer Confirmer
	Navigator Navigator
	Logger    *slog.Logger
	OnChange  func()
}

type Controller struct {
	store     Store
	session   Session
	confirmer Confirmer
	navigator Navigator
	logger    *slog.Logger
	onChange  func()

	mu    sync.Mutex
	state State
}

func New(deps Deps, dashboard model.Dashboard) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var identity *model.User
	if dashboard.User.ID != 0 {
		user := dashboard.User
		identity = &user
	}
	tasks := make([]model.Task, len(dashboard.Tasks))
	copy(tasks, dashboard.Tasks)

	return &Controller{
		store:     deps.Store,
		session:   deps.Session,
		confirmer: deps.Confirmer,
		navigator: deps.Navigator,
		logger:    logger,
		onChange:  deps.OnChange,
		state: State{
			Identity: identity,
			Tasks:    tasks,
			Deleting: map[int64]OpState{},
			Toggling: map[int64]OpState{},
		},
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// View returns the state for rendering. Without an identity there is nothing
// to render and the user is sent to the login view instead.
func (c *Controller) View() (State, bool) {
	c.mu.Lock()
	if c.state.Identity == nil {
		c.mu.Unlock()
		c.navigate()
		return State{}, false
	}
	state := c.snapshotLocked()
	c.mu.Unlock()
	return state, true
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.state.Input = text
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	c.mu.Unlock()
	c.changed()
}

// Add creates a task from the current input.
func (c *Controller) Add(ctx context.Context) {
	c.mu.Lock()
	if c.state.Adding || c.state.Identity == nil {
		c.mu.Unlock()
		return
	}
	title := strings.TrimSpace(c.state.Input)
	if title == "" {
		c.state.Error = MsgEmptyTask
		c.mu.Unlock()
		c.changed()
		return
	}
	ownerID := c.state.Identity.ID
	c.state.Adding = true
	c.mu.Unlock()
	c.changed()

	task, err := c.store.CreateTask(ctx, ownerID, title)

	c.mu.Lock()
	c.state.Adding = false
	if err != nil {
		c.logger.Error("add task failed", "error", err)
		if c.escalateLocked(err) {
			return
		}
		c.state.Error = MsgAddFailed
		c.mu.Unlock()
		c.changed()
		return
	}
	if c.state.Identity != nil {
		c.state.Tasks = append([]model.Task{task}, c.state.Tasks...)
	}
	c.state.Input = ""
	c.state.Error = ""
	c.mu.Unlock()
	c.changed()
}

// Toggle flips the completed flag of the task as currently shown.
func (c *Controller) Toggle(ctx context.Context, id int64) {
	c.mu.Lock()
	if c.state.Toggling[id] == Pending {
		c.mu.Unlock()
		return
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	completed := !c.state.Tasks[idx].Completed
	c.state.Toggling[id] = Pending
	c.mu.Unlock()
	c.changed()

	task, err := c.store.SetCompleted(ctx, id, completed)

	c.mu.Lock()
	delete(c.state.Toggling, id)
	if err != nil {
		c.logger.Error("toggle task failed", "task_id", id, "error", err)
		if c.escalateLocked(err) {
			return
		}
		c.state.Error = MsgUpdateFailed
		c.mu.Unlock()
		c.changed()
		return
	}
	if idx := c.indexLocked(id); idx >= 0 {
		c.state.Tasks[idx] = task
	}
	c.mu.Unlock()
	c.changed()
}

// Remove deletes a task after the user confirms.
func (c *Controller) Remove(ctx context.Context, id int64) {
	c.mu.Lock()
	pending := c.state.Deleting[id] == Pending
	c.mu.Unlock()
	if pending {
		return
	}

	if !c.confirm(PromptDelete) {
		return
	}

	c.mu.Lock()
	if c.state.Deleting[id] == Pending {
		c.mu.Unlock()
		return
	}
	c.state.Deleting[id] = Pending
	c.mu.Unlock()
	c.changed()

	err := c.store.DeleteTask(ctx, id)

	c.mu.Lock()
	delete(c.state.Deleting, id)
	if err != nil {
		c.logger.Error("delete task failed", "task_id", id, "error", err)
		if c.escalateLocked(err) {
			return
		}
		c.state.Error = MsgDeleteFailed
		c.mu.Unlock()
		c.changed()
		return
	}
	if idx := c.indexLocked(id); idx >= 0 {
		c.state.Tasks = append(c.state.Tasks[:idx:idx], c.state.Tasks[idx+1:]...)
	}
	c.mu.Unlock()
	c.changed()
}

// Logout ends the session after the user confirms. On failure the local
// credential stays and the view does not change.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	busy := c.state.LoggingOut
	c.mu.Unlock()
	if busy || !c.confirm(PromptLogout) {
		return
	}

	c.mu.Lock()
	if c.state.LoggingOut {
		c.mu.Unlock()
		return
	}
	c.state.LoggingOut = true
	c.mu.Unlock()
	c.changed()

	err := c.session.Logout(ctx)

	c.mu.Lock()
	c.state.LoggingOut = false
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		c.logger.Error("logout failed", "error", err)
		c.state.Error = MsgLogoutFailed
		c.mu.Unlock()
		c.changed()
		return
	}
	c.resetLocked("")
	c.mu.Unlock()

	c.session.ClearCredential()
	c.changed()
	c.navigate()
}

// escalateLocked handles a rejected credential by dropping all user data and
// returning to login. It reports whether it did so, in which case the lock
// has been released.
func (c *Controller) escalateLocked(err error) bool {
	if !errors.Is(err, client.ErrUnauthorized) {
		return false
	}
	hadIdentity := c.state.Identity != nil
	c.resetLocked(MsgSessionExpired)
	c.mu.Unlock()

	if hadIdentity {
		c.session.ClearCredential()
		c.navigate()
	}
	c.changed()
	return true
}

func (c *Controller) resetLocked(message string) {
	c.state.Identity = nil
	c.state.Tasks = nil
	c.state.Input = ""
	c.state.Error = message
}

func (c *Controller) indexLocked(id int64) int {
	for i, task := range c.state.Tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshotLocked() State {
	state := c.state
	if c.state.Identity != nil {
		user := *c.state.Identity
		if user.AvatarURL != nil {
			avatar := *user.AvatarURL
			user.AvatarURL = &avatar
		}
		state.Identity = &user
	}
	state.Tasks = make([]model.Task, len(c.state.Tasks))
	copy(state.Tasks, c.state.Tasks)
	state.Deleting = make(map[int64]OpState, len(c.state.Deleting))
	for id, op := range c.state.Deleting {
		state.Deleting[id] = op
	}
	state.Toggling = make(map[int64]OpState, len(c.state.Toggling))
	for id, op := range c.state.Toggling {
		state.Toggling[id] = op
	}
	return state
}

func (c *Controller) confirm(prompt string) bool {
	if c.confirmer == nil {
		return false
	}
	return c.confirmer.Confirm(prompt)
}

func (c *Controller) navigate() {
	if c.navigator != nil {
		c.navigator.Navigate(LoginPath)
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
