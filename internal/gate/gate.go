// Package gate turns the cookies of an inbound page request into either an
// authenticated identity with its tasks or a redirect to the login page.
package gate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/db"
	"github.com/Joseda-hg/tasktrack/internal/model"
)

const LoginPath = "/login"

type Verifier interface {
	Verify(token string) (auth.Claims, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (model.User, error)
}

type TaskLister interface {
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]model.Task, error)
}

type Revocations interface {
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Deps struct {
	Verifier    Verifier
	Users       UserLookup
	Tasks       TaskLister
	Revocations Revocations
	Cookies     auth.CookieOptions
	Logger      *slog.Logger
}

type Gate struct {
	verifier    Verifier
	users       UserLookup
	tasks       TaskLister
	revocations Revocations
	cookies     auth.CookieOptions
	logger      *slog.Logger
}

// Result is either an identity with tasks or a redirect, never both.
type Result struct {
	Identity *model.User
	Tasks    []model.Task
	Redirect string
}

func (r Result) Authenticated() bool {
	return r.Identity != nil && r.Redirect == ""
}

// Session is a verified, unrevoked token together with the user it names.
type Session struct {
	Claims auth.Claims
	User   model.User
}

func New(deps Deps) *Gate {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		verifier:    deps.Verifier,
		users:       deps.Users,
		tasks:       deps.Tasks,
		revocations: deps.Revocations,
		cookies:     deps.Cookies,
		logger:      logger,
	}
}

func redirect() Result {
	return Result{Redirect: LoginPath}
}

// Check runs the page-load gate for a raw Cookie header.
func (g *Gate) Check(ctx context.Context, cookieHeader string) Result {
	session, ok := g.Authenticate(ctx, g.cookies.TokenFromHeader(cookieHeader))
	if !ok {
		return redirect()
	}

	tasks, err := g.tasks.ListTasksByOwner(ctx, session.User.ID)
	if err != nil {
		g.logger.Error("gate: list tasks failed", "user_id", session.User.ID, "error", err)
		return redirect()
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	user := session.User
	return Result{Identity: &user, Tasks: tasks}
}

// Authenticate verifies a token and resolves its user. Missing, invalid,
// revoked and orphaned tokens all report false without further detail.
func (g *Gate) Authenticate(ctx context.Context, token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		g.logger.Debug("gate: token rejected", "error", err)
		return Session{}, false
	}

	if g.revocations != nil && claims.ID != "" {
		revoked, err := g.revocations.IsSessionRevoked(ctx, claims.ID)
		if err != nil {
			g.logger.Error("gate: revocation lookup failed", "error", err)
			return Session{}, false
		}
		if revoked {
			g.logger.Debug("gate: token revoked", "user_id", claims.UserID)
			return Session{}, false
		}
	}

	user, err := g.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			g.logger.Info("gate: token for unknown user", "user_id", claims.UserID)
		} else {
			g.logger.Error("gate: user lookup failed", "user_id", claims.UserID, "error", err)
		}
		return Session{}, false
	}

	return Session{Claims: claims, User: user}, true
}
