// Package redis wraps the go-redis client with the connection and
// circuit-breaker plumbing used for session caching and queueing.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker is fast-failing requests.
var ErrCircuitOpen = errors.New("redis: circuit breaker is open")

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means operations are allowed to proceed
	CircuitClosed CircuitState = iota
	// CircuitOpen means operations fail fast
	CircuitOpen
	// CircuitHalfOpen means a single test operation may proceed
	CircuitHalfOpen
)

// CircuitBreaker implements the circuit breaker pattern for Redis
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold uint
	failureCount     uint
	resetTimeout     time.Duration
	lastFailureTime  time.Time
	state            CircuitState
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold uint, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            CircuitClosed,
	}
}

// AllowRequest checks if a request should be allowed based on the circuit state
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	default:
		// Half-open: allow the test request through.
		return true
	}
}

// RecordSuccess records a successful operation and closes the circuit
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.state = CircuitClosed
}

// RecordFailure records a failed operation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		// The test request failed; open the circuit again.
		cb.state = CircuitOpen
		cb.lastFailureTime = time.Now()
		return
	}

	cb.failureCount++
	cb.lastFailureTime = time.Now()
	if cb.failureCount >= cb.failureThreshold {
		cb.state = CircuitOpen
	}
}

// CircuitBreakerClient wraps a Redis client with circuit breaker protection
type CircuitBreakerClient struct {
	client  *redis.Client
	breaker *CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client *redis.Client, breaker *CircuitBreaker, logger *zap.SugaredLogger) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Client returns the underlying Redis client
func (c *CircuitBreakerClient) Client() *redis.Client {
	return c.client
}

// Execute runs a Redis operation with circuit breaker protection
func (c *CircuitBreakerClient) Execute(operation func() error) error {
	if !c.breaker.AllowRequest() {
		c.logger.Warn("Circuit breaker is open, fast-failing Redis request")
		return ErrCircuitOpen
	}

	if err := operation(); err != nil {
		c.breaker.RecordFailure()
		return err
	}

	c.breaker.RecordSuccess()
	return nil
}

// SetWithTTL sets a key with a value and TTL using the circuit breaker
func (c *CircuitBreakerClient) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Execute(func() error {
		return c.client.Set(ctx, key, value, ttl).Err()
	})
}

// Get retrieves a value by key using the circuit breaker
func (c *CircuitBreakerClient) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := c.Execute(func() error {
		var err error
		result, err = c.client.Get(ctx, key).Result()
		return err
	})
	return result, err
}

// Delete removes a key using the circuit breaker
func (c *CircuitBreakerClient) Delete(ctx context.Context, key string) error {
	return c.Execute(func() error {
		return c.client.Del(ctx, key).Err()
	})
}

// Connect establishes a connection to Redis, retrying with exponential
// backoff and jitter until the context is cancelled or attempts run out.
func Connect(ctx context.Context, addr, password string, db int, logger *zap.SugaredLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	const maxRetries = 5
	initialBackoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			logger.Infow("Successfully connected to Redis", "attempt", attempt+1)
			return client, nil
		}

		backoff := backoffWithJitter(initialBackoff, maxBackoff, attempt)
		logger.Warnw("Failed to connect to Redis, retrying",
			"attempt", attempt+1,
			"maxRetries", maxRetries,
			"backoff", backoff,
			"error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("context cancelled while connecting to Redis: %w", ctx.Err())
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}

// CreateClient creates a Redis client with circuit breaker protection
func CreateClient(ctx context.Context, addr, password string, db int, logger *zap.SugaredLogger) (*CircuitBreakerClient, error) {
	client, err := Connect(ctx, addr, password, db, logger)
	if err != nil {
		return nil, err
	}

	breaker := NewCircuitBreaker(5, 10*time.Second)
	return NewCircuitBreakerClient(client, breaker, logger), nil
}

func backoffWithJitter(initial, max time.Duration, attempt int) time.Duration {
	backoff := float64(initial) * math.Pow(2, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	// ±20% jitter
	jitter := 0.8 + 0.4*float64(time.Now().UnixNano()%1000)/1000.0
	return time.Duration(backoff * jitter)
}
