package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codeshare-backend/internal/api"
	"codeshare-backend/internal/api/router"
	"codeshare-backend/internal/env"
	"codeshare-backend/internal/queue"
	"codeshare-backend/internal/service/execution"
	"codeshare-backend/internal/service/room"
	"codeshare-backend/internal/websocket"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const apiPrefix = "/api/ws/v1"

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ws-server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := env.Load()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger)
	rooms := room.New(room.NewRegistry(), hub, logger)

	var sink execution.ResultSink
	if cfg.RedisEnabled() {
		publisher, err := websocket.NewRedisPublisher(ctx, cfg.ChatRedisURL, cfg.ChatRedisPass)
		if err != nil {
			return exitRuntime, err
		}
		defer publisher.Close()
		sink = publisher
		logger.Info("publishing run results to redis", "addr", cfg.ChatRedisURL)
	}

	// Declared after the publisher so in-flight runs drain before it closes.
	execQueue := queue.NewRequestQueueManager("execution", cfg.ExecutionQueueSize, cfg.ExecutionWorkers, logger)
	defer execQueue.Shutdown()

	executor := execution.NewPistonClient(cfg.ExecuteURL, &http.Client{})
	bridge := execution.New(rooms, executor, execQueue, sink, cfg.ExecuteTimeout, logger)

	handler := websocket.NewHandler(hub, rooms, bridge, websocket.Options{
		BufferSize:     cfg.ClientBufferSize,
		MaxMessageSize: int64(cfg.MaxMessageSize),
		AllowedOrigins: cfg.AllowedOrigins(),
	}, logger)

	httpQueue := queue.NewRequestQueueManager("http", cfg.HTTPQueueSize, cfg.HTTPWorkers, logger)
	defer httpQueue.Shutdown()

	server := api.NewAPIServer(
		cfg.ListenAddr(),
		cfg.AllowedOrigins(),
		httpQueue,
		rooms,
		handler,
		logger,
		router.UtilsRoutes(apiPrefix),
		router.RoomRoutes(apiPrefix),
	)

	if err := server.Run(ctx); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
