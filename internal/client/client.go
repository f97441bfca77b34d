// Package client is the terminal client's view of the task server: a typed
// wrapper over the JSON API that holds the session credential.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/model"
)

type Options struct {
	BaseURL    string
	CookieName string
	// Timeout of zero leaves requests unbounded.
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	base       *url.URL
	http       *http.Client
	cookieName string

	mu    sync.RWMutex
	token string
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("server url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", raw)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = auth.DefaultCookieName
	}

	return &Client{base: base, http: httpClient, cookieName: cookieName}, nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ClearCredential() {
	c.SetToken("")
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := c.do(ctx, "list tasks", http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// CreateTask rejects a blank title without contacting the server.
func (c *Client) CreateTask(ctx context.Context, ownerID int64, title string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, &Error{Op: "create task", Kind: ErrValidation, Message: "Task cannot be empty"}
	}

	body := map[string]any{"title": title, "userId": ownerID}
	var task model.Task
	if _, err := c.do(ctx, "create task", http.MethodPost, "/api/tasks", body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) SetCompleted(ctx context.Context, id int64, completed bool) (model.Task, error) {
	body := map[string]bool{"completed": completed}
	var task model.Task
	if _, err := c.do(ctx, "update task", http.MethodPatch, taskPath(id), body, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, nil)
	return err
}

// Session fetches the signed-in user and their tasks, the terminal
// equivalent of loading the dashboard page.
func (c *Client) Session(ctx context.Context) (model.Dashboard, error) {
	var dashboard model.Dashboard
	if _, err := c.do(ctx, "load session", http.MethodGet, "/api/session", nil, &dashboard); err != nil {
		return model.Dashboard{}, err
	}
	if dashboard.Tasks == nil {
		dashboard.Tasks = []model.Task{}
	}
	return dashboard, nil
}

// Login exchanges credentials for a session token and keeps it for later
// requests.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, "login", http.MethodPost, "/api/login", body, nil)
	if err != nil {
		return err
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == c.cookieName && cookie.Value != "" {
			c.SetToken(cookie.Value)
			return nil
		}
	}
	return &Error{Op: "login", Kind: ErrServer, Status: resp.StatusCode, Message: "no session cookie in response"}
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	_, err := c.do(ctx, "register", http.MethodPost, "/api/register", body, nil)
	return err
}

// Logout ends the session on the server. The local credential is kept;
// callers clear it once they have acted on the result.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, "logout", http.MethodPost, "/api/auth/logout", nil, nil)
	return err
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dst any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &Error{
			Op:      op,
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}

	if dst != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return resp, &Error{Op: op, Kind: ErrServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
		}
	}
	return resp, nil
}

func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
