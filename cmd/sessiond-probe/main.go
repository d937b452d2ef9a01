// Command sessiond-probe exercises a Secret Safe backend through the full
// session lifecycle: login, persistence, restoration in a fresh engine,
// forced refresh, and logout. It is a diagnostic tool for verifying that a
// deployment's auth endpoints and local session storage behave together.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	authsession "github.com/secretsafe/authsession"
)

func main() {
	var (
		username    = flag.String("username", "", "account email; required unless -restore-only")
		password    = flag.String("password", "", "account password; read from SECRETSAFE_PROBE_PASSWORD if empty")
		apiURL      = flag.String("api-url", "", "backend base URL; overrides SECRETSAFE_API_URL")
		stateDir    = flag.String("state-dir", "", "session state directory; overrides SECRETSAFE_STATE_DIR")
		restoreOnly = flag.Bool("restore-only", false, "skip login and probe restoration of an existing session")
		keepSession = flag.Bool("keep-session", false, "leave the session in place instead of logging out")
		timeout     = flag.Duration("timeout", 30*time.Second, "overall probe deadline")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := authsession.FromEnv()
	if err != nil {
		logger.Error("loading config failed", "error", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *stateDir != "" {
		cfg.Storage.Dir = *stateDir
	}

	if !*restoreOnly {
		if *username == "" {
			fmt.Fprintln(os.Stderr, "-username is required unless -restore-only is set")
			os.Exit(2)
		}
		if *password == "" {
			*password = os.Getenv("SECRETSAFE_PROBE_PASSWORD")
		}
		if *password == "" {
			fmt.Fprintln(os.Stderr, "no password: set -password or SECRETSAFE_PROBE_PASSWORD")
			os.Exit(2)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := probe(ctx, logger, cfg, *username, *password, *restoreOnly, *keepSession); err != nil {
		logger.Error("probe failed", "error", err)
		os.Exit(1)
	}
	logger.Info("probe complete")
}

func probe(ctx context.Context, logger *slog.Logger, cfg authsession.Config, username, password string, restoreOnly, keepSession bool) error {
	if !restoreOnly {
		engine, err := authsession.New().WithConfig(cfg).WithLogger(logger).Build()
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}

		user, err := engine.Login(ctx, username, password)
		if err != nil {
			engine.Close()
			return fmt.Errorf("login: %w", err)
		}
		logger.Info("login ok", "user_id", user.ID, "role", user.Role, "health", engine.TokenHealth())

		// Drop the engine so restoration below starts from storage alone,
		// the way a fresh process would.
		engine.Close()
	}

	engine, err := authsession.New().WithConfig(cfg).WithLogger(logger).Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if err := engine.Restore(ctx); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	<-engine.Initialized()

	snap := engine.Snapshot()
	logger.Info("restore done",
		"state", engine.RestoreState(),
		"authenticated", snap.Authenticated,
		"health", engine.TokenHealth(),
	)
	if !snap.Authenticated {
		if restoreOnly {
			return fmt.Errorf("no session to restore")
		}
		return fmt.Errorf("session did not survive restoration")
	}

	access, err := engine.ForceRefresh(ctx)
	if err != nil {
		return fmt.Errorf("forced refresh: %w", err)
	}
	logger.Info("refresh ok", "token_len", len(access), "health", engine.TokenHealth())

	if !keepSession {
		if err := engine.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		logger.Info("logout ok")
	}

	counters := engine.MetricsSnapshot().Counters
	logger.Info("probe metrics",
		"refresh_success", counters[authsession.MetricRefreshSuccess],
		"restore_authenticated", counters[authsession.MetricRestoreAuthenticated],
		"storage_fallback", counters[authsession.MetricStorageFallback],
	)
	return nil
}
