package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"resumetracker/internal/analysis"
	"resumetracker/internal/api"
	"resumetracker/internal/auth"
	"resumetracker/internal/common"
	"resumetracker/internal/config"
	"resumetracker/internal/errors"
	"resumetracker/internal/observability"
	"resumetracker/internal/session"
	"resumetracker/internal/transport"
	"resumetracker/internal/types"
)

// app is the per-invocation object graph shared by all commands
type app struct {
	cfg    *config.Config
	logger *errors.Logger
	stdout io.Writer
	stderr io.Writer

	obs       *observability.ObservabilityManager
	store     session.CredentialStore
	transport *transport.Client
	api       *api.Client
	auth      *auth.Service
	output    *common.OutputHandler
	files     *common.FileProcessor
}

// newApp wires configuration, session storage, observability and the API
// client for one command run
func newApp(cmd *cobra.Command) (*app, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to initialize observability", err)
	}

	store, err := session.Open(cfg.Session, logger)
	if err != nil {
		_ = obs.Shutdown(cmd.Context())
		return nil, errors.NewIOError(errors.ErrCodeCredentialStore, "Failed to open session store", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		obs:    obs,
		store:  store,
		output: common.NewOutputHandlerWithWriter(logger, cmd.OutOrStdout()),
		files:  common.NewFileProcessor(logger),
	}

	opts := transport.OptionsFromConfig(cfg.API)
	opts.RoundTripper = obs.HTTPTransport(http.DefaultTransport)
	opts.Credentials = store
	opts.OnUnauthorized = a.sessionExpired
	opts.Metrics = obs.GetMetrics()
	opts.Logger = logger
	a.transport = transport.NewClient(opts)

	a.api = api.NewClient(a.transport, api.Options{
		UploadTimeout:  cfg.API.UploadTimeout,
		AnalyzeTimeout: cfg.API.AnalyzeTimeout,
		MaxUploadSize:  cfg.App.MaxUploadSize,
		LoginPath:      cfg.API.LoginPath,
		Metrics:        obs.GetMetrics(),
		Logger:         logger,
	})
	a.auth = auth.NewService(a.api, store, logger)
	return a, nil
}

// Close releases the session store and flushes telemetry
func (a *app) Close() {
	a.logger.Debug("Backend client stats", "base_url", a.transport.BaseURL(), "stats", a.transport.Stats())
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close session store", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down observability", "error", err)
	}
}

// sessionExpired runs after the backend rejected the stored token
func (a *app) sessionExpired() {
	fmt.Fprintln(a.stderr, errors.MsgSessionExpired)
}

// ensureSession makes sure a token is available. Configured credentials
// (possibly from Vault) are used when no valid session is stored.
func (a *app) ensureSession(ctx context.Context) error {
	if a.auth.IsAuthenticated() {
		return nil
	}

	creds := a.cfg.Credentials
	switch {
	case creds.Token != "":
		a.logger.Debug("Using configured API token")
		if err := a.store.Set(types.AuthSession{Token: creds.Token, User: types.UserData{Username: creds.Username}}); err != nil {
			return errors.NewIOError(errors.ErrCodeCredentialStore, "Failed to store session", err)
		}
		return nil
	case creds.Username != "" && creds.Password != "":
		a.logger.Debug("Logging in with configured credentials", "username", creds.Username)
		_, err := a.auth.Login(ctx, creds.Username, creds.Password)
		return err
	default:
		return errors.NewAuthError(errors.ErrCodeUnauthorized, "Not logged in. Run 'resumetracker login' first.", nil)
	}
}

// withApp builds the app, optionally ensures a session, and runs fn
func withApp(cmd *cobra.Command, needsSession bool, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if needsSession {
		if err := a.ensureSession(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, a)
}

// newStore creates an analysis session store on top of the API client
func (a *app) newStore() *analysis.Store {
	return analysis.NewStore(a.api, analysis.Options{
		MinJobDescription: a.cfg.Analysis.MinJobDescription,
		RejectConcurrent:  a.cfg.Analysis.RejectConcurrent,
		Logger:            a.logger,
	})
}
