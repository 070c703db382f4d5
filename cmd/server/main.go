package main

import (
	"chatroom/internal"
	"chatroom/moderation"
	"chatroom/observability"
	"chatroom/projection"
	"chatroom/repositories"
	"chatroom/runtime"
	"chatroom/runtime/workers"
	"chatroom/server"
	"chatroom/services"
	"chatroom/telemetry"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting, so every defer (database close in particular) executes
// before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	location, err := config.Location()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := observability.NewMonitor(logger)

	// 2. Message store backend and feed engine
	feedOpts := []services.FeedOption{
		services.WithRecentLimit(config.RecentLimit),
		services.WithStoreTimeout(config.StoreTimeout),
	}

	if config.CensoredWordsFile != "" {
		words, err := moderation.LoadWords(config.CensoredWordsFile)
		if err != nil {
			return exitConfig, fmt.Errorf("censored words: %w", err)
		}
		mask, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := moderation.NewModerator(words, mask, logger)
		if err != nil {
			return exitConfig, err
		}
		feedOpts = append(feedOpts, services.WithModerator(&moderator))
	}

	var feed *services.FeedService
	var searchFn server.SearchFunc

	switch config.StoreBackend {
	case internal.BackendBadger:
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		var blugeWriter *bluge.Writer
		if config.BlugeFilepath != "" {
			blugeCfg := bluge.DefaultConfig(config.BlugeFilepath)
			blugeWriter, err = bluge.OpenWriter(blugeCfg)
			if err != nil {
				return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
			}
			defer func() {
				logger.Info("Closing Bluge...")
				_ = blugeWriter.Close()
			}()
			index := repositories.NewSearchIndex(blugeWriter, logger)
			searchFn = index.Search
		}

		repository := repositories.NewMessageRepository(db, blugeWriter, logger)
		feed = services.NewFeedService(repository, monitor, location, logger, feedOpts...)

	case internal.BackendSheets:
		svc, err := sheets.NewService(ctx,
			option.WithCredentialsFile(config.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope))
		if err != nil {
			return exitRuntime, fmt.Errorf("sheets client failed: %w", err)
		}
		repository := repositories.NewSheetsRepository(svc, config.SpreadsheetID,
			config.SheetRange, location, logger)
		feed = services.NewFeedService(repository, monitor, location, logger, feedOpts...)
	}

	// In-memory tail of everything this process accepts, served on /timeline.
	timeline := projection.NewTimeline("server")
	feed.Add(timeline)

	// 3. Session registry + supervised workers
	registry := runtime.NewRegistry()
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewPoller(logger, registry, config.PollInterval),
		workers.NewHeartbeatWorker(logger, monitor, config.HeartbeatInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 4. HTTP presentation boundary
	sessionOpts := []services.SessionOption{
		services.WithPresenceWindow(config.PresenceWindow),
		services.WithFeedLimit(config.RecentLimit),
	}
	handlers := server.NewHandlers(logger, feed, registry, monitor, timeline, searchFn, sessionOpts...)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: server.NewMux(handlers),
	}

	httpErr := make(chan error, 1)
	go func() {
		logger.Info("Chatroom listening", "addr", httpServer.Addr, "backend", config.StoreBackend)
		httpErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-httpErr:
		supervisor.Stop()
		<-supervisorDone
		return exitRuntime, err
	case <-ctx.Done():
	}

	// 5. Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown was not clean", "error", err)
	}
	supervisor.Stop()
	<-supervisorDone
	logger.Info("Bye")
	return exitOK, nil
}
