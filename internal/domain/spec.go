package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidSpec — спецификация workflow не прошла валидацию.
var ErrInvalidSpec = errors.New("invalid workflow spec")

// dagIDPattern повторяет ограничения Airflow на dag_id.
var dagIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,250}$`)

// WorkflowSpec — определение workflow, зеркалируемое из объектного хранилища.
//
// Документ в хранилище — YAML или JSON. Name совпадает с dag_id в Airflow.
type WorkflowSpec struct {
	// ID — локальный идентификатор записи.
	ID int64 `json:"id" yaml:"-"`

	// Name — dag_id, уникален в пределах системы.
	Name string `json:"name" yaml:"name"`

	// Description — описание назначения workflow.
	Description string `json:"description,omitempty" yaml:"description"`

	// Owner — владелец (команда или пользователь).
	Owner string `json:"owner,omitempty" yaml:"owner"`

	// Schedule — расписание в терминах Airflow ("@daily", cron и т.п.).
	Schedule string `json:"schedule,omitempty" yaml:"schedule"`

	// Tags — теги DAG.
	Tags []string `json:"tags,omitempty" yaml:"tags"`

	// ClusterName — кластер, на котором развёрнут workflow.
	ClusterName string `json:"cluster,omitempty" yaml:"cluster"`

	// Checksum — sha256 исходного документа, по нему определяются изменения.
	Checksum string `json:"checksum" yaml:"-"`

	// SourceKey — ключ документа в хранилище.
	SourceKey string `json:"source_key" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate проверяет обязательные поля спецификации.
func (s *WorkflowSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if !dagIDPattern.MatchString(s.Name) {
		return fmt.Errorf("%w: name %q is not a valid dag id", ErrInvalidSpec, s.Name)
	}
	for _, tag := range s.Tags {
		if tag == "" {
			return fmt.Errorf("%w: empty tag", ErrInvalidSpec)
		}
	}
	return nil
}
