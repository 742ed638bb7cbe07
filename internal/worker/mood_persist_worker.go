package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"aikona/internal/model"
)

type moodStore interface {
	Create(ctx context.Context, entry *model.MoodEntry) error
}

// MoodPersistWorker drains the mood queue into the database.
type MoodPersistWorker struct {
	conn      *amqp.Connection
	repo      moodStore
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMoodPersistWorker(conn *amqp.Connection, repo moodStore, queueName string, logger *slog.Logger) *MoodPersistWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MoodPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger.With("worker", "mood_persist", "queue", queueName),
	}
}

func (w *MoodPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker prefetch failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Error("persist mood entry failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *MoodPersistWorker) handle(ctx context.Context, body []byte) error {
	var entry model.MoodEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("decode mood entry: %w", err)
	}
	if entry.UserID == 0 {
		return fmt.Errorf("mood entry without user id")
	}
	// the queue may redeliver; let the database assign ids
	entry.ID = 0
	return w.repo.Create(ctx, &entry)
}

func (w *MoodPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
