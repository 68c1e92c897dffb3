// Package api wires the HTTP surface: Echo server, middleware chain,
// route registration and graceful shutdown.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/api/handlers"
	"github.com/plutopoly/backend/internal/api/middleware/auth"
	"github.com/plutopoly/backend/internal/config"
	"github.com/plutopoly/backend/internal/db/mongodb"
	"github.com/plutopoly/backend/internal/game/manager"
	"github.com/plutopoly/backend/internal/game/websocket"
)

// CustomValidator is the request validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// RequestMetrics tracks simple counters for API requests
type RequestMetrics struct {
	RequestCount map[string]int     `json:"requestCount"`
	DurationSum  map[string]float64 `json:"durationSumSeconds"`
	mutex        sync.RWMutex
}

// Server represents the API server
type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	gameManager *manager.GameManager
	wsHub       *websocket.Hub
	logger      *zap.SugaredLogger
	metrics     *RequestMetrics
	mongoClient *mongo.Client
	redisClient *redis.Client
	userStore   *mongodb.UserStore
}

// NewServer creates a new API server. The MongoDB and Redis clients may be
// nil for a storage-less development instance; the hub is created and
// attached to the game manager here.
func NewServer(cfg *config.Config, gameManager *manager.GameManager, wsHub *websocket.Hub, mongoClient *mongo.Client, redisClient *redis.Client, logger *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	var userStore *mongodb.UserStore
	if mongoClient != nil {
		userStore = mongodb.NewUserStore(mongoClient.Database(cfg.MongoDB.Database))
	}

	server := &Server{
		echo:        e,
		cfg:         cfg,
		gameManager: gameManager,
		wsHub:       wsHub,
		logger:      logger,
		metrics: &RequestMetrics{
			RequestCount: make(map[string]int),
			DurationSum:  make(map[string]float64),
		},
		mongoClient: mongoClient,
		redisClient: redisClient,
		userStore:   userStore,
	}

	server.configureMiddleware()
	server.configureRoutes()

	return server
}

// configureMiddleware sets up the Echo middleware chain
func (s *Server) configureMiddleware() {
	s.echo.Use(middleware.Logger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.metricsMiddleware)

	// Attach a request-scoped structured logger.
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			c.Set("requestID", requestID)
			c.Set("logger", s.logger.With(
				"requestID", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"clientIP", c.RealIP(),
			))
			return next(c)
		}
	})
}

// metricsMiddleware records a counter and duration sum per route and status
func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start).Seconds()

		key := c.Request().Method + ":" + c.Path() + ":" + strconv.Itoa(c.Response().Status)
		s.metrics.mutex.Lock()
		s.metrics.RequestCount[key]++
		s.metrics.DurationSum[key] += duration
		s.metrics.mutex.Unlock()

		return err
	}
}

// configureRoutes sets up API routes
func (s *Server) configureRoutes() {
	gameHandler := handlers.NewGameHandler(s.gameManager, s.logger)
	authHandler := handlers.NewAuthHandler(s.cfg, s.userStore, s.logger)
	userHandler := handlers.NewUserHandler(s.userStore, s.logger)
	wsHandler := handlers.NewWebSocketHandler(s.wsHub, s.cfg, s.logger)
	healthHandler := handlers.NewHealthHandler(s.mongoClient, s.redisClient, s.logger)

	apiV1 := s.echo.Group("/api/v1")

	// Authentication routes (no JWT required)
	authGroup := apiV1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)

	jwtMiddleware := auth.JWTMiddleware(s.cfg.JWT.Secret)
	authGroup.GET("/refresh-token", authHandler.RefreshToken, jwtMiddleware)

	// User routes (JWT required)
	userGroup := apiV1.Group("/user", jwtMiddleware)
	userGroup.GET("/profile", userHandler.GetProfile)
	userGroup.PATCH("/profile", userHandler.UpdateProfile)

	// Lobby routes (JWT required)
	gameGroup := apiV1.Group("/games", jwtMiddleware)
	gameGroup.POST("", gameHandler.CreateGame)
	gameGroup.GET("", gameHandler.ListGames)
	gameGroup.GET("/code/:code", gameHandler.GetGameByCode)
	gameGroup.GET("/:gameId", gameHandler.GetGameDetails)
	gameGroup.POST("/:gameId/join", gameHandler.JoinGame)
	gameGroup.POST("/:gameId/leave", gameHandler.LeaveGame)
	gameGroup.POST("/:gameId/ready", gameHandler.SetReady)
	gameGroup.POST("/:gameId/start", gameHandler.StartGame)
	gameGroup.POST("/:gameId/reset", gameHandler.ResetGame)
	gameGroup.GET("/:gameId/state", gameHandler.GetGameState)

	// Game action routes (JWT required); each returns the state snapshot
	// after the command.
	actionGroup := apiV1.Group("/games/:gameId/actions", jwtMiddleware)
	actionGroup.POST("/roll", gameHandler.RollDice)
	actionGroup.POST("/pending/confirm", gameHandler.ConfirmPending)
	actionGroup.POST("/pending/decline", gameHandler.DeclinePending)
	actionGroup.POST("/upgrade", gameHandler.RequestUpgrade)
	actionGroup.POST("/mortgage", gameHandler.MortgageProperty)
	actionGroup.POST("/redeem", gameHandler.RedeemProperty)
	actionGroup.POST("/trade", gameHandler.ProposeTrade)
	actionGroup.POST("/trade/accept", gameHandler.AcceptTrade)
	actionGroup.POST("/trade/reject", gameHandler.RejectTrade)
	actionGroup.POST("/jail/pay-fine", gameHandler.PayJailFine)
	actionGroup.POST("/jail/use-card", gameHandler.UseJailCard)
	actionGroup.POST("/card/dismiss", gameHandler.DismissCard)

	// WebSocket route; token accepted via query parameter for browsers
	s.echo.GET("/api/v1/ws/:gameId", wsHandler.HandleConnection)

	// Health and probes (no auth required)
	s.echo.GET("/health", healthHandler.Check)
	s.echo.GET("/health/live", healthHandler.Live)
	s.echo.GET("/health/ready", healthHandler.Ready)

	s.echo.GET("/metrics", func(c echo.Context) error {
		s.metrics.mutex.RLock()
		defer s.metrics.mutex.RUnlock()
		return c.JSON(http.StatusOK, s.metrics)
	})
}

// Start starts the API server
func (s *Server) Start() error {
	address := s.cfg.Server.Host + ":" + strconv.Itoa(s.cfg.Server.Port)
	s.echo.Server.ReadTimeout = time.Duration(s.cfg.Server.ReadTimeout) * time.Second
	s.echo.Server.WriteTimeout = time.Duration(s.cfg.Server.WriteTimeout) * time.Second
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
