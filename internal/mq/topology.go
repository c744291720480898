package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeSync Exchange = "flowsync.sync"
	ExchangeDLQ  Exchange = "flowsync.dlq"
)

// Queues — имена очередей.
const (
	QueueSyncRequests Queue = "sync.requests"
	QueueSyncEvents   Queue = "sync.events"
	QueueDLQRequests  Queue = "dlq.requests"
)

// Routing keys.
const (
	RoutingKeyRequest     RoutingKey = "request"
	RoutingKeyCompleted   RoutingKey = "completed"
	RoutingKeyDLQRequests RoutingKey = "requests"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

var exchanges = []exchangeDecl{
	{ExchangeSync, amqp.ExchangeDirect},
	{ExchangeDLQ, amqp.ExchangeDirect},
}

var queues = []queueDecl{
	// sync.requests — с DLQ: запрос, упавший повторно, не крутится вечно
	{QueueSyncRequests, amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQRequests),
	}},

	// sync.events — итоги синхронизаций для внешних подписчиков
	{QueueSyncEvents, nil},

	{QueueDLQRequests, nil},
}

var bindings = []bindingDecl{
	{QueueSyncRequests, RoutingKeyRequest, ExchangeSync},
	{QueueSyncEvents, RoutingKeyCompleted, ExchangeSync},
	{QueueDLQRequests, RoutingKeyDLQRequests, ExchangeDLQ},
}

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	var sb strings.Builder
	sb.WriteString("FlowSync RabbitMQ topology:\n")
	for _, ex := range exchanges {
		fmt.Fprintf(&sb, "  %s (%s)\n", ex.name, ex.kind)
		for _, b := range bindings {
			if b.exchange == ex.name {
				fmt.Fprintf(&sb, "    └── %s [routing: %s]\n", b.queue, b.routingKey)
			}
		}
	}
	return sb.String()
}
