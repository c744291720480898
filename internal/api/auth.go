package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaiso/FlowSync/internal/domain"
)

// Policy — минимальная роль для шаблона маршрута ServeMux ("METHOD /path/{param}").
// Шаблон, отсутствующий в таблице, запрещён.
type Policy map[string]domain.Role

// DefaultPolicy возвращает таблицу политик API.
func DefaultPolicy() Policy {
	return Policy{
		// Ручная синхронизация
		"POST /api/v1/airflow/sync/manual/specs":                    domain.RoleAdmin,
		"POST /api/v1/airflow/sync/manual/runs":                     domain.RoleAdmin,
		"POST /api/v1/airflow/sync/manual/runs/cluster/{clusterId}": domain.RoleAdmin,
		"POST /api/v1/airflow/sync/manual/runs/stale":               domain.RoleAdmin,

		// Зеркало
		"GET /api/v1/airflow/clusters": domain.RoleUser,
		"GET /api/v1/airflow/runs":     domain.RoleUser,
		"GET /api/v1/airflow/specs":    domain.RoleUser,
		"GET /api/v1/airflow/stats":    domain.RoleUser,

		// Команды
		"GET /api/v1/teams":         domain.RoleUser,
		"POST /api/v1/teams":        domain.RoleAdmin,
		"GET /api/v1/teams/{id}":    domain.RoleUser,
		"PUT /api/v1/teams/{id}":    domain.RoleAdmin,
		"DELETE /api/v1/teams/{id}": domain.RoleAdmin,

		"GET /api/v1/teams/{id}/members":             domain.RoleUser,
		"POST /api/v1/teams/{id}/members":            domain.RoleAdmin,
		"DELETE /api/v1/teams/{id}/members/{userId}": domain.RoleAdmin,

		"GET /api/v1/teams/{id}/resources":                        domain.RoleUser,
		"POST /api/v1/teams/{id}/resources":                       domain.RoleAdmin,
		"DELETE /api/v1/teams/{id}/resources/{type}/{resourceId}": domain.RoleAdmin,
	}
}

type principalKey struct{}

// WithPrincipal кладёт вызывающего в контекст.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext возвращает вызывающего, если запрос аутентифицирован.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate определяет вызывающего по заголовку Authorization: Bearer <token>.
// Неизвестный токен не прерывает запрос: решение принимает Authorize.
func Authenticate(tokens map[string]domain.Principal) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := lookupToken(tokens, bearerToken(r)); ok {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize проверяет роль вызывающего по шаблону маршрута.
// Должен оборачивать обработчик, зарегистрированный в ServeMux: r.Pattern
// заполняется только после сопоставления маршрута.
func Authorize(policy Policy, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, authenticated := PrincipalFromContext(r.Context())
			if !authenticated {
				Unauthorized(w)
				return
			}

			required, ok := policy[r.Pattern]
			if !ok {
				logger.Warn("no policy for route, denying", "pattern", r.Pattern, "subject", principal.Subject)
				Forbidden(w)
				return
			}

			if !principal.Role.Satisfies(required) {
				logger.Info("access denied",
					"pattern", r.Pattern,
					"subject", principal.Subject,
					"role", principal.Role,
					"required", required,
				)
				Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// lookupToken сравнивает токены за постоянное время.
func lookupToken(tokens map[string]domain.Principal, token string) (domain.Principal, bool) {
	if token == "" {
		return domain.Principal{}, false
	}
	for known, p := range tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return p, true
		}
	}
	return domain.Principal{}, false
}
