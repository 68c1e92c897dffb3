// Package queue provides a Redis-backed message queue decoupling the game
// manager from delivery: state changes are enqueued per game and a worker
// fans them out to connected clients, with retries and a dead letter queue
// for messages that repeatedly fail.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/game/engine"
	"github.com/plutopoly/backend/internal/game/models"
)

// ErrQueueEmpty is returned when a dequeue finds no message.
var ErrQueueEmpty = errors.New("queue is empty")

// MessageType defines the type of message in the queue
type MessageType string

const (
	GameStart    MessageType = "game_start"
	StateUpdate  MessageType = "state_update"
	PlayerUpdate MessageType = "player_update"
)

// QueueMessage represents a message in the queue
type QueueMessage struct {
	Type      MessageType     `json:"type"`
	GameID    string          `json:"gameId"`
	PlayerID  string          `json:"playerId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Attempts  int             `json:"attempts"`
}

// RedisQueue implements a Redis-backed message queue over per-game lists
type RedisQueue struct {
	client *redis.Client
	logger *zap.SugaredLogger
	ctx    context.Context
}

// NewRedisQueue creates a queue over an already connected Redis client
func NewRedisQueue(ctx context.Context, client *redis.Client, logger *zap.SugaredLogger) *RedisQueue {
	return &RedisQueue{
		client: client,
		logger: logger,
		ctx:    ctx,
	}
}

func queueName(gameID string) string {
	return fmt.Sprintf("game:%s:queue", gameID)
}

// EnqueueGameStart adds a game start message to the game's queue
func (q *RedisQueue) EnqueueGameStart(gameID, hostID string) error {
	return q.enqueueMessage(QueueMessage{
		Type:      GameStart,
		GameID:    gameID,
		PlayerID:  hostID,
		Timestamp: time.Now(),
	})
}

// EnqueueStateUpdate adds an engine state snapshot to the game's queue
func (q *RedisQueue) EnqueueStateUpdate(gameID string, state *engine.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return q.enqueueMessage(QueueMessage{
		Type:      StateUpdate,
		GameID:    gameID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// EnqueuePlayerUpdate adds a lobby seat change to the game's queue
func (q *RedisQueue) EnqueuePlayerUpdate(gameID string, player models.LobbyPlayer) error {
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}
	return q.enqueueMessage(QueueMessage{
		Type:      PlayerUpdate,
		GameID:    gameID,
		PlayerID:  player.ID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (q *RedisQueue) enqueueMessage(msg QueueMessage) error {
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	name := queueName(msg.GameID)
	if err := q.client.RPush(q.ctx, name, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to push message to queue: %w", err)
	}

	q.logger.Debugw("Message enqueued",
		"queue", name, "type", msg.Type, "gameId", msg.GameID, "playerId", msg.PlayerID)
	return nil
}

// Dequeue retrieves and removes the oldest message from a game's queue.
// Returns ErrQueueEmpty when there is nothing to process.
func (q *RedisQueue) Dequeue(gameID string) (*QueueMessage, error) {
	result, err := q.client.LPop(q.ctx, queueName(gameID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, fmt.Errorf("failed to pop message from queue: %w", err)
	}

	var msg QueueMessage
	if err := json.Unmarshal([]byte(result), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// Retry puts a message back at the end of its queue with the attempt
// counter incremented.
func (q *RedisQueue) Retry(msg *QueueMessage) error {
	msg.Attempts++
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	name := queueName(msg.GameID)
	if err := q.client.RPush(q.ctx, name, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}

	q.logger.Infow("Message requeued for retry",
		"queue", name, "type", msg.Type, "gameId", msg.GameID, "attempts", msg.Attempts)
	return nil
}

// MoveToDeadLetter parks a repeatedly failing message on the game's dead
// letter queue for manual inspection.
func (q *RedisQueue) MoveToDeadLetter(msg *QueueMessage) error {
	msg.Attempts++
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deadLetter := queueName(msg.GameID) + ":dead"
	if err := q.client.RPush(q.ctx, deadLetter, msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to push message to dead letter queue: %w", err)
	}

	q.logger.Warnw("Message moved to dead letter queue",
		"queue", deadLetter, "type", msg.Type, "gameId", msg.GameID, "attempts", msg.Attempts)
	return nil
}

// QueueLength returns the number of messages waiting for a game
func (q *RedisQueue) QueueLength(gameID string) (int64, error) {
	return q.client.LLen(q.ctx, queueName(gameID)).Result()
}

// ClearQueue removes all pending messages for a game
func (q *RedisQueue) ClearQueue(gameID string) error {
	return q.client.Del(q.ctx, queueName(gameID)).Err()
}

// ClearAllQueues removes every game queue, dead letter queues included
func (q *RedisQueue) ClearAllQueues() (int64, error) {
	keys, err := q.client.Keys(q.ctx, "game:*:queue*").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list queue keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	count, err := q.client.Del(q.ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete queues: %w", err)
	}

	q.logger.Infow("Cleared all game queues", "count", count)
	return count, nil
}
