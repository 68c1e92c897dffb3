// Package mongodb wraps the MongoDB driver with the connection and
// circuit-breaker plumbing the service uses for its operational storage.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker is fast-failing requests.
var ErrCircuitOpen = errors.New("mongodb: circuit breaker is open")

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

// CircuitBreaker implements the circuit breaker pattern for MongoDB
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

// CircuitBreakerClient wraps a MongoDB client with circuit breaker protection
type CircuitBreakerClient struct {
	client  *mongo.Client
	breaker *CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client *mongo.Client, breaker *CircuitBreaker, logger *zap.SugaredLogger) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client:  client,
		breaker: breaker,
		logger:  logger,
	}
}

// Database returns a database handle
func (c *CircuitBreakerClient) Database(name string) *mongo.Database {
	return c.client.Database(name)
}

// Ping pings the MongoDB server with circuit breaker protection
func (c *CircuitBreakerClient) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	if !c.breaker.AllowRequest() {
		c.logger.Warn("Circuit breaker is open, fast-failing MongoDB ping request")
		return ErrCircuitOpen
	}

	if err := c.client.Ping(ctx, rp); err != nil {
		c.breaker.RecordFailure()
		return err
	}

	c.breaker.RecordSuccess()
	return nil
}

// Connect establishes a connection to MongoDB, retrying with exponential
// backoff and jitter until the context is cancelled or attempts run out.
func Connect(ctx context.Context, uri string, logger *zap.SugaredLogger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMinPoolSize(5).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	const maxRetries = 5
	initialBackoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	var client *mongo.Client
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err = mongo.Connect(connCtx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := client.Ping(pingCtx, readpref.Primary())
			pingCancel()

			if pingErr == nil {
				logger.Infow("Successfully connected to MongoDB", "attempt", attempt+1)
				return client, nil
			}

			err = pingErr
			_ = client.Disconnect(ctx)
		}

		backoff := backoffWithJitter(initialBackoff, maxBackoff, attempt)
		logger.Warnw("Failed to connect to MongoDB, retrying",
			"attempt", attempt+1,
			"maxRetries", maxRetries,
			"backoff", backoff,
			"error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while connecting to MongoDB: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after %d attempts: %w", maxRetries, err)
}

// CreateClient creates a MongoDB client with circuit breaker protection
func CreateClient(ctx context.Context, uri string, logger *zap.SugaredLogger) (*CircuitBreakerClient, error) {
	client, err := Connect(ctx, uri, logger)
	if err != nil {
		return nil, err
	}

	breaker := NewCircuitBreaker(5, 10*time.Second)
	return NewCircuitBreakerClient(client, breaker, logger), nil
}

// GetCollection returns a reference to a MongoDB collection
func GetCollection(client *mongo.Client, dbName, collName string) *mongo.Collection {
	return client.Database(dbName).Collection(collName)
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
