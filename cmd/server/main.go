package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/draftroom/draftroom/internal/auth"
	"github.com/draftroom/draftroom/internal/config"
	"github.com/draftroom/draftroom/internal/domain/access"
	"github.com/draftroom/draftroom/internal/domain/claim"
	"github.com/draftroom/draftroom/internal/domain/identity"
	"github.com/draftroom/draftroom/internal/domain/workspace"
	"github.com/draftroom/draftroom/internal/session"
	"github.com/draftroom/draftroom/internal/sqlite"
	"github.com/draftroom/draftroom/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if cfg.Auth.Secret == "" {
		logger.Error("DRAFTROOM_AUTH_SECRET is required")
		os.Exit(1)
	}

	for _, path := range []string{cfg.Store.Path, cfg.Device.Path} {
		if err := ensureDBDir(path); err != nil {
			logger.Error("failed to prepare database path", "path", path, "error", err)
			os.Exit(1)
		}
	}

	storeDB, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store database", "error", err)
		os.Exit(1)
	}
	defer storeDB.Close()

	if err := storeDB.RunMigrations(); err != nil {
		logger.Error("failed to run store migrations", "error", err)
		os.Exit(1)
	}

	deviceDB, err := sqlite.New(cfg.Device.Path)
	if err != nil {
		logger.Error("failed to open device database", "error", err)
		os.Exit(1)
	}
	defer deviceDB.Close()

	if err := deviceDB.RunDeviceMigrations(); err != nil {
		logger.Error("failed to run device migrations", "error", err)
		os.Exit(1)
	}

	projectRepo := sqlite.NewProjectRepository(storeDB)
	documentRepo := sqlite.NewDocumentRepository(storeDB)
	membershipRepo := sqlite.NewMembershipRepository(storeDB)
	deviceRepo := sqlite.NewDeviceStateRepository(deviceDB)

	identityStore := identity.NewStore(deviceRepo, logger)
	evaluator := access.NewEvaluator(projectRepo, membershipRepo, documentRepo, logger)
	workspaceSvc := workspace.NewService(projectRepo, documentRepo, membershipRepo, evaluator, logger)
	engine := claim.NewEngine(projectRepo, membershipRepo, logger)
	coordinator := session.NewCoordinator(identityStore, engine, logger)

	if err := coordinator.Resume(context.Background()); err != nil {
		logger.Error("failed to resume session", "error", err)
		os.Exit(1)
	}

	verifier := auth.NewVerifier(cfg.Auth.Secret)
	router := transport.NewRouter(workspaceSvc, coordinator, identityStore, verifier, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer, coordinator)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, coordinator *session.Coordinator) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Let any in-flight claim finish before the store closes.
	coordinator.Wait()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
