package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api"
	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/db/mongodb"
	"github.com/plutopoly/backend/internal/db/redis"
	"github.com/plutopoly/backend/internal/game/board"
	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/websocket"
	"github.com/plutopoly/backend/internal/queue"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load configuration: %v", err)
	}

	catalog, err := board.Load()
	if err != nil {
		sugar.Fatalf("Failed to load board catalog: %v", err)
	}
	sugar.Infow("Board catalog loaded", "tiles", catalog.Size())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongodb.Connect(ctx, cfg.MongoDB.URI, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			sugar.Errorf("Failed to disconnect from MongoDB: %v", err)
		}
	}()

	redisClient, err := redis.Connect(ctx, cfg.Redis.URI, cfg.Redis.Password, cfg.Redis.DB, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			sugar.Errorf("Failed to close Redis connection: %v", err)
		}
	}()

	redisQueue := queue.NewRedisQueue(ctx, redisClient, sugar)

	gameManager := manager.NewGameManager(ctx, mongoClient, redisClient, catalog, cfg, sugar)
	gameManager.SetMessageQueue(redisQueue)

	hub := websocket.NewHub(ctx, gameManager, sugar)
	go hub.Run()
	gameManager.SetWebSocketHub(hub)
	sugar.Info("WebSocket hub is running")

	worker := queue.NewWorker(redisQueue, gameManager, hub, sugar)
	worker.CleanupStaleQueues()
	worker.Start()
	sugar.Info("Queue worker started")

	server := api.NewServer(cfg, gameManager, hub, mongoClient, redisClient, sugar)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Failed to start the server: %v", err)
		}
	}()
	sugar.Infof("Server started on port %d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	worker.Stop()
	sugar.Info("Queue worker stopped")

	sugar.Info("Shutting down server...")
	if err := server.Shutdown(ctx); err != nil {
		sugar.Fatalf("Server forced to shutdown: %v", err)
	}
	sugar.Info("Server exited properly")
}
