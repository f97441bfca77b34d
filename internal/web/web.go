package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/Joseda-hg/tasktrack/internal/gate"
	"github.com/Joseda-hg/tasktrack/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"ago": func(t time.Time) string { return humanize.Time(t) },
}

var (
	loginTemplate     = template.Must(template.New("login.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/login.tmpl"))
	dashboardTemplate = template.Must(template.New("dashboard.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/dashboard.tmpl"))
)

const maxBodyBytes = 1 << 20

type Options struct {
	Store   *db.Store
	Codec   *auth.Codec
	Cookies auth.CookieOptions
	Logger  *slog.Logger
}

type Server struct {
	store   *db.Store
	codec   *auth.Codec
	cookies auth.CookieOptions
	gate    *gate.Gate
	logger  *slog.Logger
}

type dashboardData struct {
	User      model.User
	Tasks     []model.Task
	Total     int
	Completed int
	Pending   int
}

type loginData struct {
	Email   string
	Message string
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   opts.Store,
		codec:   opts.Codec,
		cookies: opts.Cookies,
		logger:  logger,
		gate: gate.New(gate.Deps{
			Verifier:    opts.Codec,
			Users:       opts.Store,
			Tasks:       opts.Store,
			Revocations: opts.Store,
			Cookies:     opts.Cookies,
			Logger:      logger,
		}),
	}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	router.HandleFunc("/login", s.loginPageHandler).Methods(http.MethodGet)
	router.HandleFunc("/dashboard", s.dashboardHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/login", s.loginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/register", s.registerHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", s.logoutHandler).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.requireSession)
	api.HandleFunc("/session", s.sessionHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.listTasksHandler).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.createTaskHandler).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.updateTaskHandler).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id:[0-9]+}", s.deleteTaskHandler).Methods(http.MethodDelete)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, http.StatusOK, loginData{})
}

// dashboardHandler is the server-rendered page load. Auth failures never
// produce an error page, only a redirect.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	result := s.gate.Check(r.Context(), r.Header.Get("Cookie"))
	if !result.Authenticated() {
		http.Redirect(w, r, result.Redirect, http.StatusFound)
		return
	}
	s.renderDashboard(w, r, result.Identity, result.Tasks)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, user *model.User, tasks []model.Task) {
	if user == nil || user.ID == 0 {
		http.Redirect(w, r, gate.LoginPath, http.StatusFound)
		return
	}

	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	data := dashboardData{
		User:      *user,
		Tasks:     tasks,
		Total:     len(tasks),
		Completed: completed,
		Pending:   len(tasks) - completed,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := dashboardTemplate.Execute(w, data); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, data); err != nil {
		s.logger.Error("render login", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
