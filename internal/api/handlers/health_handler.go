package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// HealthHandler handles health check and probe requests
type HealthHandler struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTimeMs"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth represents the health of the entire system
type SystemHealth struct {
	Status     string                  `json:"status"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{
		mongoClient: mongoClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Live is the liveness probe: the process is up and serving.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ready is the readiness probe: configured dependencies answer within
// their timeout. A dependency the server runs without does not block
// readiness.
func (h *HealthHandler) Ready(c echo.Context) error {
	if h.checkMongoDB().Status == "unhealthy" || h.checkRedis().Status == "unhealthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// Check performs a health check of all system components in parallel
func (h *HealthHandler) Check(c echo.Context) error {
	systemHealth := SystemHealth{
		Status:     "healthy",
		Timestamp:  time.Now().Format(time.RFC3339),
		Components: make(map[string]HealthStatus),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	record := func(name string, check func() HealthStatus) {
		defer wg.Done()
		status := check()
		mu.Lock()
		systemHealth.Components[name] = status
		if status.Status != "healthy" {
			systemHealth.Status = "degraded"
		}
		mu.Unlock()
	}

	wg.Add(2)
	go record("mongodb", h.checkMongoDB)
	go record("redis", h.checkRedis)
	wg.Wait()

	statusCode := http.StatusOK
	if systemHealth.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, systemHealth)
}

func (h *HealthHandler) checkMongoDB() HealthStatus {
	if h.mongoClient == nil {
		return HealthStatus{Status: "disabled"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := h.mongoClient.Ping(ctx, readpref.Primary())
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		h.logger.Errorw("MongoDB health check failed", "error", err)
		return HealthStatus{Status: "unhealthy", ResponseTime: elapsed, Error: err.Error()}
	}
	return HealthStatus{Status: "healthy", ResponseTime: elapsed}
}

func (h *HealthHandler) checkRedis() HealthStatus {
	if h.redisClient == nil {
		return HealthStatus{Status: "disabled"}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := h.redisClient.Ping(ctx).Result()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		h.logger.Errorw("Redis health check failed", "error", err)
		return HealthStatus{Status: "unhealthy", ResponseTime: elapsed, Error: err.Error()}
	}
	return HealthStatus{Status: "healthy", ResponseTime: elapsed}
}
