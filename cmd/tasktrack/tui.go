package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Joseda-hg/tasktrack/internal/client"
	"github.com/Joseda-hg/tasktrack/internal/logging"
	"github.com/Joseda-hg/tasktrack/internal/model"
	"github.com/Joseda-hg/tasktrack/internal/tui"
	"github.com/spf13/cobra"
)

const maxLoginAttempts = 3

var tuiServerFlag string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal client against a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), cmd)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiServerFlag, "server", "", "server url (default from config)")
}

func runTUI(ctx context.Context, cmd *cobra.Command) error {
	if tuiServerFlag != "" {
		cfg.ServerURL = tuiServerFlag
	}

	// gocui owns the terminal, so logs always go to a file.
	logger, closer, err := logging.OpenFile(dataPath(cfg.Log.File, "tui.log"), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := client.New(client.Options{
		BaseURL:    cfg.ServerURL,
		CookieName: cfg.Session.CookieName,
		Timeout:    cfg.Client.Timeout,
	})
	if err != nil {
		return err
	}

	sessionFile := dataPath(cfg.Client.SessionFile, "session.yaml")
	token, err := client.LoadCredential(sessionFile, cfg.ServerURL)
	if err != nil {
		logger.Warn("ignoring saved credential", "error", err)
	}
	c.SetToken(token)

	dashboard, err := bootstrapSession(ctx, cmd, c, sessionFile, logger)
	if err != nil {
		return err
	}

	err = tui.Run(ctx, tui.Options{
		Store:     c,
		Session:   c,
		Dashboard: dashboard,
		Logger:    logger,
	})
	if errors.Is(err, tui.ErrLoginRequired) {
		if err := client.RemoveCredential(sessionFile); err != nil {
			logger.Error("remove credential", "error", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	}
	return err
}

// bootstrapSession loads the dashboard with the saved credential, asking
// for email and password when there is none or the server rejects it.
func bootstrapSession(ctx context.Context, cmd *cobra.Command, c *client.Client, sessionFile string, logger *slog.Logger) (model.Dashboard, error) {
	if c.Token() != "" {
		dashboard, err := c.Session(ctx)
		if err == nil {
			return dashboard, nil
		}
		if !errors.Is(err, client.ErrUnauthorized) {
			return model.Dashboard{}, err
		}
		logger.Info("saved credential rejected")
		c.ClearCredential()
	}

	p := newPrompter()
	fmt.Fprintf(cmd.OutOrStdout(), "Log in to %s\n", cfg.ServerURL)
	for attempt := 1; ; attempt++ {
		email, err := p.line("Email: ")
		if err != nil {
			return model.Dashboard{}, err
		}
		password, err := p.password("Password: ")
		if err != nil {
			return model.Dashboard{}, err
		}

		err = c.Login(ctx, email, password)
		if err == nil {
			break
		}
		var clientErr *client.Error
		if !errors.As(err, &clientErr) || clientErr.Status != http.StatusUnauthorized || attempt >= maxLoginAttempts {
			return model.Dashboard{}, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), clientErr.Message)
	}

	if err := client.SaveCredential(sessionFile, cfg.ServerURL, c.Token()); err != nil {
		logger.Error("save credential", "error", err)
	}
	return c.Session(ctx)
}
