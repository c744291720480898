package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRequest — запрос на синхронизацию некорректен и не будет обработан повторно.
var ErrInvalidRequest = errors.New("invalid sync request")

// MessageType — тип сообщения в очереди.
type MessageType string

// MessageTypeSyncRequested — запрос на синхронизацию.
const MessageTypeSyncRequested MessageType = "sync.requested"

// CompletedType возвращает тип события о завершении синхронизации вида kind.
func CompletedType(kind string) MessageType {
	return MessageType("sync." + kind + ".completed")
}

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Виды запросов на синхронизацию.
const (
	SyncKindSpecs   = "specs"
	SyncKindRuns    = "runs"
	SyncKindCluster = "cluster"
	SyncKindStale   = "stale"
)

// SyncRequest — payload запроса на синхронизацию.
//
// Нулевые параметры означают значения по умолчанию.
type SyncRequest struct {
	Kind                string `json:"kind"`
	ClusterID           int64  `json:"cluster_id,omitempty"`
	LookbackHours       int    `json:"lookback_hours,omitempty"`
	BatchSize           int    `json:"batch_size,omitempty"`
	StaleThresholdHours int    `json:"stale_threshold_hours,omitempty"`
}

// Validate проверяет запрос.
func (r SyncRequest) Validate() error {
	switch r.Kind {
	case SyncKindSpecs, SyncKindRuns, SyncKindStale:
	case SyncKindCluster:
		if r.ClusterID <= 0 {
			return fmt.Errorf("%w: cluster_id is required for kind %q", ErrInvalidRequest, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}

	if r.LookbackHours < 0 || r.BatchSize < 0 || r.StaleThresholdHours < 0 {
		return fmt.Errorf("%w: parameters must not be negative", ErrInvalidRequest)
	}
	return nil
}

// ParsePayload парсит payload сообщения в указанный тип.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// Payload после json.Unmarshal конверта — map[string]any
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}

	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
