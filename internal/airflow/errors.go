package airflow

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidBaseURL — адрес кластера не является абсолютным http(s) URL.
var ErrInvalidBaseURL = errors.New("invalid airflow base url")

// APIError — ответ Airflow с кодом ошибки.
//
// Airflow отдаёт ошибки в формате problem+json: {"title", "status", "detail"}.
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := e.Title
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("airflow api: %d %s", e.StatusCode, msg)
}

// Temporary возвращает true для ошибок, которые имеет смысл повторить.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
