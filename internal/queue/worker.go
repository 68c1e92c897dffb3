package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plutopoly/backend/internal/game/manager"
)

// Broadcaster is the delivery surface the worker fans messages out to
type Broadcaster interface {
	BroadcastToGame(gameID string, message []byte)
	BroadcastToLobby(message []byte)
}

// MessageHandler is a function that processes one queue message
type MessageHandler func(msg *QueueMessage) error

// Worker drains the per-game queues and fans messages out to connected
// clients. Failing messages are retried with a linear backoff and parked on
// the dead letter queue after maxAttempts.
type Worker struct {
	queue       *RedisQueue
	gameManager *manager.GameManager
	broadcaster Broadcaster
	logger      *zap.SugaredLogger
	handlers    map[MessageType]MessageHandler
	maxAttempts int
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorker creates a new queue worker
func NewWorker(queue *RedisQueue, gameManager *manager.GameManager, broadcaster Broadcaster, logger *zap.SugaredLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		queue:       queue,
		gameManager: gameManager,
		broadcaster: broadcaster,
		logger:      logger,
		handlers:    make(map[MessageType]MessageHandler),
		maxAttempts: 3,
		ctx:         ctx,
		cancel:      cancel,
	}
	w.registerDefaultHandlers()
	return w
}

func (w *Worker) registerDefaultHandlers() {
	w.RegisterHandler(GameStart, func(msg *QueueMessage) error {
		game, err := w.gameManager.GetGame(msg.GameID)
		if err != nil {
			return fmt.Errorf("failed to get game: %w", err)
		}
		payload, err := json.Marshal(map[string]interface{}{
			"type": "game_started",
			"game": game,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal game start: %w", err)
		}
		w.broadcaster.BroadcastToGame(msg.GameID, payload)
		// The lobby listing loses one joinable game.
		w.broadcaster.BroadcastToLobby(payload)
		return nil
	})

	w.RegisterHandler(StateUpdate, func(msg *QueueMessage) error {
		payload, err := json.Marshal(map[string]interface{}{
			"type":   "state_update",
			"gameId": msg.GameID,
			"state":  json.RawMessage(msg.Data),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal state update: %w", err)
		}
		w.broadcaster.BroadcastToGame(msg.GameID, payload)
		return nil
	})

	w.RegisterHandler(PlayerUpdate, func(msg *QueueMessage) error {
		payload, err := json.Marshal(map[string]interface{}{
			"type":   "player_update",
			"gameId": msg.GameID,
			"player": json.RawMessage(msg.Data),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal player update: %w", err)
		}
		w.broadcaster.BroadcastToGame(msg.GameID, payload)
		return nil
	})
}

// RegisterHandler registers a handler for a specific message type
func (w *Worker) RegisterHandler(msgType MessageType, handler MessageHandler) {
	w.handlers[msgType] = handler
}

// SetMaxAttempts sets the maximum number of retry attempts
func (w *Worker) SetMaxAttempts(maxAttempts int) {
	w.maxAttempts = maxAttempts
}

// Start begins processing messages from the queues
func (w *Worker) Start() {
	go w.processLoop()
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.cancel()
}

func (w *Worker) processLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Queue worker shutting down")
			return
		case <-ticker.C:
			for _, game := range w.gameManager.GetActiveGames() {
				w.drainQueue(game.ID)
			}
		}
	}
}

// drainQueue processes every message currently waiting for one game.
func (w *Worker) drainQueue(gameID string) {
	length, err := w.queue.QueueLength(gameID)
	if err != nil {
		w.logger.Errorw("Failed to get queue length", "gameId", gameID, "error", err)
		return
	}

	for i := int64(0); i < length; i++ {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		msg, err := w.queue.Dequeue(gameID)
		if err != nil {
			if !errors.Is(err, ErrQueueEmpty) {
				w.logger.Errorw("Failed to dequeue message", "gameId", gameID, "error", err)
			}
			return
		}

		if err := w.processMessage(msg); err != nil {
			w.handleFailure(msg, err)
		}
	}
}

func (w *Worker) processMessage(msg *QueueMessage) error {
	handler, ok := w.handlers[msg.Type]
	if !ok {
		return fmt.Errorf("no handler registered for message type: %s", msg.Type)
	}
	return handler(msg)
}

func (w *Worker) handleFailure(msg *QueueMessage, cause error) {
	w.logger.Errorw("Failed to process queue message",
		"type", msg.Type, "gameId", msg.GameID, "attempts", msg.Attempts, "error", cause)

	// A vanished game will never process; park its messages immediately.
	if errors.Is(cause, manager.ErrGameNotFound) || msg.Attempts >= w.maxAttempts {
		if err := w.queue.MoveToDeadLetter(msg); err != nil {
			w.logger.Errorw("Failed to move message to dead letter queue",
				"gameId", msg.GameID, "error", err)
		}
		return
	}

	if err := w.queue.Retry(msg); err != nil {
		w.logger.Errorw("Failed to requeue message", "gameId", msg.GameID, "error", err)
	}
}

// CleanupStaleQueues parks the messages of queues whose games no longer
// exist.
func (w *Worker) CleanupStaleQueues() {
	keys, err := w.queue.client.Keys(w.ctx, "game:*:queue").Result()
	if err != nil {
		w.logger.Errorw("Failed to list queue keys for cleanup", "error", err)
		return
	}

	for _, key := range keys {
		gameID := gameIDFromQueueName(key)
		if gameID == "" {
			continue
		}
		if _, err := w.gameManager.GetGame(gameID); err == nil {
			continue
		}

		for {
			msg, err := w.queue.Dequeue(gameID)
			if err != nil {
				break
			}
			if err := w.queue.MoveToDeadLetter(msg); err != nil {
				w.logger.Errorw("Failed to park stale message", "gameId", gameID, "error", err)
			}
		}
		w.logger.Infow("Parked messages of stale game queue", "gameId", gameID)
	}
}

// gameIDFromQueueName extracts the game ID from a "game:<id>:queue" key.
func gameIDFromQueueName(key string) string {
	const prefix, suffix = "game:", ":queue"
	if len(key) <= len(prefix)+len(suffix) {
		return ""
	}
	return key[len(prefix) : len(key)-len(suffix)]
}
