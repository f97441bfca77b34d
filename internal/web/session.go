package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/Joseda-hg/tasktrack/internal/gate"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

const invalidCredentials = "Invalid email or password"

// isFormPost reports whether the request came from an HTML form rather than
// a JSON client.
func isFormPost(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data")
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	form := isFormPost(r)

	var req loginRequest
	if form {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			s.renderLogin(w, http.StatusBadRequest, loginData{Message: "Invalid request payload"})
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	fail := func(status int, message string) {
		if form {
			s.renderLogin(w, status, loginData{Email: req.Email, Message: message})
			return
		}
		writeMessage(w, status, message)
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			fail(http.StatusUnauthorized, invalidCredentials)
			return
		}
		s.logger.Error("login lookup", "error", err)
		fail(http.StatusInternalServerError, "Login failed, please try again.")
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		s.logger.Info("login rejected", "user_id", user.ID)
		fail(http.StatusUnauthorized, invalidCredentials)
		return
	}

	token, err := s.codec.Issue(user.ID)
	if err != nil {
		s.logger.Error("issue token", "user_id", user.ID, "error", err)
		fail(http.StatusInternalServerError, "Login failed, please try again.")
		return
	}

	cookies := s.cookies
	cookies.MaxAge = s.codec.TTL()
	http.SetCookie(w, cookies.SessionCookie(token))
	s.logger.Info("login", "user_id", user.ID)

	if form {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeMessage(w, http.StatusBadRequest, "Email address is invalid")
		return
	}
	if len(req.Password) < auth.MinPasswordLength() {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user, err := s.store.CreateUser(r.Context(), db.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}
		s.logger.Error("create user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	s.logger.Info("registered", "user_id", user.ID)
	writeMessage(w, http.StatusCreated, "Registration successful")
}

// logoutHandler revokes the presented session, if any, and clears the
// cookie. It succeeds for anonymous callers so a stale client can always
// reach the logged-out state.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if session, ok := s.gate.Authenticate(r.Context(), s.requestToken(r)); ok && session.Claims.ID != "" {
		if err := s.store.RevokeSession(r.Context(), session.Claims.ID, session.User.ID); err != nil {
			s.logger.Error("revoke session", "user_id", session.User.ID, "error", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to log out")
			return
		}
		s.logger.Info("logout", "user_id", session.User.ID)
	}

	http.SetCookie(w, s.cookies.ExpiredCookie())

	if isFormPost(r) {
		http.Redirect(w, r, gate.LoginPath, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
