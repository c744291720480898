package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/FlowSync/internal/telemetry"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
	})
	if err != nil {
		telemetry.ObserveMessage("out", "error")
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	telemetry.ObserveMessage("out", "ok")
	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishSyncRequest ставит синхронизацию в очередь.
// Потребитель: flowsync-worker.
func (p *Publisher) PublishSyncRequest(ctx context.Context, req SyncRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	msg := NewMessage(MessageTypeSyncRequested, req)
	if err := p.Publish(ctx, ExchangeSync, RoutingKeyRequest, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// PublishSyncCompleted публикует итог синхронизации вида kind.
// Реализует orchestrator.EventPublisher.
func (p *Publisher) PublishSyncCompleted(ctx context.Context, kind string, result any) error {
	return p.Publish(ctx, ExchangeSync, RoutingKeyCompleted, NewMessage(CompletedType(kind), result))
}
