package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-relay/api"
	"chat-relay/auth"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/sink"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern ensures all 'defer' statements (like database cleanup) are executed before the
// program exits, and decouples initialization from the main entry point for testability.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := observability.GetLoggerFromString(config.LogLevel)
	auth.SetSigningKey([]byte(config.JWTSecret))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Databases (BadgerDB + Bluge)
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeCfg := bluge.DefaultConfig(config.BlugeFilepath)
	blugeWriter, err := bluge.OpenWriter(blugeCfg)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation
	moderator, err := runtime.NewModeratorFromEmbedded(logger, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderation setup failed: %w", err)
	}

	// 4. Core wiring
	registry := runtime.NewRegistry()
	monitor := observability.NewMonitoringManager(logger, registry.Count)

	messageRepository := repositories.NewMessageRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)
	searchIndex := repositories.NewSearchIndex(blugeWriter, logger)

	hub := runtime.NewHub(logger, registry, messageRepository, searchIndex,
		&moderator, config.EventBufferSize, config.HistoryLimit)

	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	chatService := services.NewChatService(hub)

	// 5. Background workers
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewEventFanout(logger, hub.Events(),
			sink.NewIndexSink(searchIndex, logger),
			sink.NewTimelineSink(monitor)),
		workers.NewChannelCapacityWorker(logger,
			[]workers.NamedChannel{{Name: "hub_events", Channel: hub.Events()}},
			config.MetricInterval),
		workers.NewReporterWorker(monitor, config.MetricInterval),
	)
	go supervisor.Run(ctx)

	// 6. HTTP surface
	gw := gateway.New(logger, authService, chatService, registry, monitor, gateway.Config{
		SendBufferSize: config.SendBufferSize,
		PongWait:       config.PongWait,
		WriteTimeout:   config.WriteTimeout,
		MaxMessageSize: config.MaxMessageSize,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", gw)
	mux.Handle("/", api.New(logger, authService, chatService))

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(db, config.DebugPort, endpoint, internal.MessageMapper, monitor.Stats)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	// 7. Lifecycle
	select {
	case err := <-serverErr:
		supervisor.Stop()
		return exitRuntime, fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "err", err)
	}
	supervisor.Stop()

	return exitOK, nil
}
