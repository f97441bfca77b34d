package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/Joseda-hg/tasktrack/internal/gate"
	"github.com/Joseda-hg/tasktrack/internal/model"
	"github.com/gorilla/mux"
)

// ContextKey is a custom type to avoid context key collisions.
type ContextKey string

// SessionKey holds the authenticated gate.Session of an API request.
const SessionKey ContextKey = "session"

type createTaskRequest struct {
	Title  string `json:"title"`
	UserID *int64 `json:"userId,omitempty"`
}

type updateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// requireSession authenticates API requests from the session cookie or a
// bearer token and stores the session in the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.gate.Authenticate(r.Context(), s.requestToken(r))
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return s.cookies.TokenFromHeader(r.Header.Get("Cookie"))
}

func sessionFrom(r *http.Request) (gate.Session, bool) {
	session, ok := r.Context().Value(SessionKey).(gate.Session)
	return session, ok
}

func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tasks, err := s.store.ListTasksByOwner(r.Context(), session.User.ID)
	if err != nil {
		s.logger.Error("list tasks", "user_id", session.User.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	writeJSON(w, http.StatusOK, model.Dashboard{User: session.User, Tasks: tasks})
}

func (s *Server) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tasks, err := s.store.ListTasksByOwner(r.Context(), session.User.ID)
	if err != nil {
		s.logger.Error("list tasks", "user_id", session.User.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// The owner is always the session user; a body naming someone else is refused.
	if req.UserID != nil && *req.UserID != session.User.ID {
		s.logger.Warn("create task for foreign user", "user_id", session.User.ID, "requested_user_id", *req.UserID)
		writeMessage(w, http.StatusForbidden, "Cannot create tasks for another user")
		return
	}

	task, err := s.store.CreateTask(r.Context(), session.User.ID, req.Title)
	if err != nil {
		if errors.Is(err, db.ErrInvalidInput) {
			writeMessage(w, http.StatusBadRequest, "Task cannot be empty")
			return
		}
		s.logger.Error("create task", "user_id", session.User.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := taskID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Completed == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := s.store.SetTaskCompleted(r.Context(), session.User.ID, id, *req.Completed)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Task not found")
			return
		}
		s.logger.Error("update task", "user_id", session.User.ID, "task_id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	id, err := taskID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := s.store.DeleteTask(r.Context(), session.User.ID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Task not found")
			return
		}
		s.logger.Error("delete task", "user_id", session.User.ID, "task_id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func taskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start),
		)
	})
}
