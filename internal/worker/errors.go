package worker

import (
	"errors"
	"fmt"

	"github.com/shaiso/FlowSync/internal/mq"
)

// Ошибки воркера.
var (
	// ErrNoConnection — воркер запущен без соединения с RabbitMQ.
	ErrNoConnection = errors.New("worker: no rabbitmq connection")

	// ErrUnsupportedKind — воркер не умеет выполнять запрос этого вида.
	// Повторная доставка не поможет, поэтому ошибка считается некорректным запросом.
	ErrUnsupportedKind = fmt.Errorf("%w: unsupported kind", mq.ErrInvalidRequest)
)
