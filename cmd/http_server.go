package cmd

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

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/audit"
	"github.com/frahmantamala/workforce-authz/internal/auth"
	"github.com/frahmantamala/workforce-authz/internal/authz"
	"github.com/frahmantamala/workforce-authz/internal/core/database"
	"github.com/frahmantamala/workforce-authz/internal/core/metrics"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/frahmantamala/workforce-authz/internal/transport/rest"
	"github.com/frahmantamala/workforce-authz/internal/transport/swagger"
	"github.com/frahmantamala/workforce-authz/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *database.Handles
	Router   *chi.Mux
	Services *Services
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	}()

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		timeout := deps.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := swagger.Load(ctx); err != nil {
		return fmt.Errorf("openapi document: %w", err)
	}
	if cfg.Observability.Metrics.Enabled {
		metrics.Register(prometheus.DefaultRegisterer)
	}

	publicKey, err := cfg.Security.GetPublicKey()
	if err != nil {
		return err
	}
	verifier := auth.NewRSAVerifier(auth.VerifierConfig{
		PublicKey: publicKey,
		Issuer:    cfg.Security.Issuer,
		Audience:  cfg.Security.Audience,
		Leeway:    cfg.Security.Leeway,
	})

	svc := deps.Services
	base := transport.NewBaseHandler(lg)
	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:    rest.NewHealthHandler(base, map[string]rest.Pinger{"postgres": deps.DB.SQLX}),
		Auth:      auth.NewHandler(base, verifier, svc.Identity),
		Guard:     authz.NewMiddleware(svc.Authorizer, lg),
		Authz:     authz.NewHandler(base, svc.Authorizer, svc.Identity),
		Identity:  identity.NewHandler(base, svc.Identity),
		Roles:     role.NewHandler(base, svc.Roles, svc.Catalog),
		Ownership: ownership.NewHandler(base, svc.Ownership),
		Audit:     audit.NewHandler(base, svc.Audit),
	}, cfg, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := database.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Router:   chi.NewRouter(),
		Services: buildServices(config, db, lg),
		Logger:   lg,
	}, nil
}
