package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	directadapter "github.com/ericfisherdev/directvault/internal/adapter/driven/direct"
	"github.com/ericfisherdev/directvault/internal/adapter/driven/registry"
	sqliteadapter "github.com/ericfisherdev/directvault/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/directvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/directvault/internal/application"
	"github.com/ericfisherdev/directvault/internal/config"
	"github.com/ericfisherdev/directvault/internal/crypto"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sandbox", cfg.Sandbox,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Load the encryption key. The built-in development key is only
	// acceptable outside production.
	key, devFallback, err := crypto.LoadKey(cfg.KeyPath)
	if err != nil {
		return err
	}
	if devFallback {
		if cfg.RequireKey {
			return errors.New("encryption key required but not found at " + cfg.KeyPath)
		}
		slog.Warn("using built-in development encryption key", "key_path", cfg.KeyPath)
	}

	cipher, err := crypto.New(key, devFallback)
	if err != nil {
		return err
	}

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 6. Wire adapters and services.
	profileStore := sqliteadapter.NewProfileRepo(db, cipher)

	clientOpts := directadapter.Options{
		Sandbox:        cfg.Sandbox,
		Timeout:        cfg.APITimeout,
		ReportTimeout:  cfg.ReportTimeout,
		ReportRetries:  cfg.ReportRetries,
		ReportInterval: cfg.ReportInterval,
	}
	newClient := func(token string) driven.DirectClient {
		return directadapter.NewClient(token, clientOpts)
	}

	profileSvc := application.NewProfileService(profileStore, slog.Default())
	commandSvc := application.NewCommandService(profileStore, newClient)

	// 7. Create HTTP handler, register routes, apply middleware.
	apiHandler := httphandler.NewHandler(profileSvc, commandSvc, db, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, apiHandler)
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Write timeout must cover a full report polling cycle; event
		// streams stay open for the duration of a command.
		WriteTimeout: cfg.APITimeout + cfg.ReportBudget(),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Announce the service to the platform. Both handshakes are
	// best-effort: neighbors may not be up yet.
	if cfg.GatewayURL != "" && cfg.ServiceToken != "" {
		gw := registry.NewGatewayClient(cfg.GatewayURL, cfg.ServiceToken, slog.Default())
		if err := gw.Register(ctx); err != nil {
			slog.Warn("gateway registration failed", "error", err)
		}
	} else {
		slog.Info("gateway registration skipped")
	}

	if cfg.ToolsetURL != "" {
		go func() {
			ts := registry.NewToolsetClient(cfg.ToolsetURL, slog.Default())
			if err := ts.Register(ctx); err != nil {
				slog.Warn("toolset registration failed", "error", err)
			}
		}()
	} else {
		slog.Info("toolset registration skipped")
	}

	slog.Info("directvault started", "listen_addr", cfg.ListenAddr, "sandbox", cfg.Sandbox)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight streams.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
