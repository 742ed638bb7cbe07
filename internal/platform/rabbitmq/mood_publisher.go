package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"aikona/internal/model"
)

// MoodPublisher enqueues mood samples for the persist worker.
type MoodPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMoodPublisher(conn *amqp.Connection, queueName string) *MoodPublisher {
	return &MoodPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MoodPublisher) Publish(ctx context.Context, entry model.MoodEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal mood payload failed: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish mood entry failed: %w", err)
	}
	return nil
}
