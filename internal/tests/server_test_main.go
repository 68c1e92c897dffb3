package tests

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api"
	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/db/mongodb"
	redisdb "github.com/plutopoly/backend/internal/db/redis"
	"github.com/plutopoly/backend/internal/game/board"
	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/websocket"
)

// RunTestServer starts the server in a development mode that tolerates
// unavailable backing stores: if MongoDB or Redis cannot be reached the
// server runs memory-only instead of exiting.
func RunTestServer() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
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

	var mongoClient *mongo.Client
	mongoClient, err = mongodb.Connect(ctx, cfg.MongoDB.URI, sugar)
	if err != nil {
		sugar.Warnf("MongoDB connection failed, continuing without persistence: %v", err)
		mongoClient = nil
	} else {
		defer mongoClient.Disconnect(ctx)
		sugar.Info("Connected to MongoDB")
	}

	var redisClient *redis.Client
	redisClient, err = redisdb.Connect(ctx, cfg.Redis.URI, cfg.Redis.Password, cfg.Redis.DB, sugar)
	if err != nil {
		sugar.Warnf("Redis connection failed, continuing without cache: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		sugar.Info("Connected to Redis")
	}

	gameManager := manager.NewGameManager(ctx, mongoClient, redisClient, catalog, cfg, sugar)

	hub := websocket.NewHub(ctx, gameManager, sugar)
	go hub.Run()
	gameManager.SetWebSocketHub(hub)

	server := api.NewServer(cfg, gameManager, hub, mongoClient, redisClient, sugar)

	go func() {
		sugar.Infof("Starting server on port %d", cfg.Server.Port)
		if err := server.Start(); err != nil {
			sugar.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sugar.Info("Server started. Press Ctrl+C to exit.")
	<-quit

	sugar.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Server forced to shutdown: %v", err)
	}
	sugar.Info("Server exited gracefully")
}
