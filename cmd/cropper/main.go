package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/heimdex/heimdex-cropper/internal/api"
	"github.com/heimdex/heimdex-cropper/internal/config"
	"github.com/heimdex/heimdex-cropper/internal/db"
	"github.com/heimdex/heimdex-cropper/internal/history"
	"github.com/heimdex/heimdex-cropper/internal/logging"
	"github.com/heimdex/heimdex-cropper/internal/session"
	"github.com/heimdex/heimdex-cropper/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting heimdex cropper",
		"version", config.Version,
		"commit", config.GitCommit,
		"history_store", cfg.HistoryStore(),
		"resize_debounce", cfg.ResizeDebounce(),
	)

	store, closeStore, err := openHistoryStore(cfg.HistoryStore(), logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer closeStore()

	authToken := cfg.AuthToken()
	if authToken == "" {
		authToken, err = generateToken()
		if err != nil {
			return fmt.Errorf("failed to generate auth token: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 HEIMDEX CROPPER v%-25s║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", logging.SanitizeToken(authToken))
	fmt.Printf("║  History:    %-45s ║\n", cfg.HistoryStore())
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	if cfg.AuthToken() == "" {
		fmt.Printf("Generated auth token: %s\n\n", authToken)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := session.NewManager(store, logging.WithComponent(logger, "session"),
		session.WithResizeDebounce(cfg.ResizeDebounce()),
	)

	reaper := session.NewReaper(manager, cfg.SessionIdleTimeout(), logging.WithComponent(logger, "reaper"))
	go reaper.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Sessions:       manager,
		AuthToken:      authToken,
		AllowedOrigins: cfg.AllowedOrigins(),
		HistoryStore:   cfg.HistoryStore(),
		Logger:         logger,
		StartTime:      startTime,
		Version:        config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	quit := sync.OnceFunc(func() { close(quitCh) })

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sessions: manager,
			Reaper:   reaper,
			Logger:   logger,
			OnQuit:   quit,
		})
		go tray.Run(ctx)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	manager.CloseAll(shutdownCtx)
	logger.Info("shutdown complete", "reaped_sessions", reaper.Reaped())
	return nil
}

// openHistoryStore returns the configured snapshot store and its cleanup.
func openHistoryStore(kind string, logger *slog.Logger) (history.Store, func(), error) {
	switch kind {
	case config.HistoryStoreSQLite:
		database, err := db.New("", logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("history store ready", "backend", kind, "database", database.Name())
		return history.NewSQLiteStore(database.Conn()), func() { database.Close() }, nil
	default:
		return history.NewMemoryStore(), func() {}, nil
	}
}

func generateToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}
