package rbac

import (
	"log/slog"
	"net/http"

	"github.com/minutier-app/minutier/internal/shared"
)

// DecisionMetrics counts allow/deny outcomes at the HTTP gate.
type DecisionMetrics interface {
	ObserveDecision(module string, allowed bool)
}

// Middleware wires authorization checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics DecisionMetrics
}

// Require ensures the current user holds every listed permission on the
// module.
func (m Middleware) Require(module Module, perms ...Permission) func(http.Handler) http.Handler {
	return m.guard(module, func(userID string) bool {
		return m.Service.CanAll(userID, module, perms...)
	})
}

// RequireAny ensures the current user holds at least one of the listed
// permissions on the module.
func (m Middleware) RequireAny(module Module, perms ...Permission) func(http.Handler) http.Handler {
	return m.guard(module, func(userID string) bool {
		return m.Service.CanAny(userID, module, perms...)
	})
}

func (m Middleware) guard(module Module, allowed func(string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// An empty permission list still requires a signed-in user.
			userID := shared.CurrentUserID(r.Context())
			if userID == "" {
				m.observe(module, false)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if allowed(userID) {
				m.observe(module, true)
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Debug("authorization denied",
					slog.String("user_id", userID),
					slog.String("module", string(module)))
			}
			m.observe(module, false)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) observe(module Module, allowed bool) {
	if m.Metrics != nil {
		m.Metrics.ObserveDecision(string(module), allowed)
	}
}
