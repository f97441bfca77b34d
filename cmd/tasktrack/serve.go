package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joseda-hg/tasktrack/internal/auth"
	"github.com/Joseda-hg/tasktrack/internal/config"
	"github.com/Joseda-hg/tasktrack/internal/logging"
	"github.com/Joseda-hg/tasktrack/internal/web"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveListenFlag string
	serveDBFlag     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server and task API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListenFlag, "listen", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveDBFlag, "db", "", "sqlite db path")
}

func runServe(ctx context.Context) error {
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = uuid.NewString() + uuid.NewString()
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("persist session secret: %w", err)
		}
	}

	if serveListenFlag != "" {
		cfg.Listen = serveListenFlag
	}
	if serveDBFlag != "" {
		cfg.DBPath = serveDBFlag
	}
	cfg.DBPath = dataPath(cfg.DBPath, "tasktrack.db")

	logger, closeLog, err := serverLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	codec, err := auth.NewCodec(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return err
	}

	handler := web.NewServer(web.Options{
		Store: store,
		Codec: codec,
		Cookies: auth.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		Logger: logger,
	}).Handler()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server listening", "addr", cfg.Listen, "db", cfg.DBPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serverLogger writes to stderr unless a log file is configured.
func serverLogger(opts config.LogConfig) (*slog.Logger, func() error, error) {
	if opts.File != "" {
		logger, closer, err := logging.OpenFile(opts.File, opts.Level, opts.Format)
		if err != nil {
			return nil, nil, err
		}
		return logger, closer.Close, nil
	}
	logger, err := logging.New(os.Stderr, opts.Level, opts.Format)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() error { return nil }, nil
}
