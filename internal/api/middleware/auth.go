package middleware

import (
	"context"
	"errors"
	"net/http"
	"subhub/internal/common"
	"subhub/internal/common/security"
	"subhub/internal/domain/model"
	"subhub/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const principalCtxKey contextKey = "principal"

// RequirementFunc derives what a route demands from the matched request.
type RequirementFunc func(r *http.Request) security.Requirement

func AnySession(*http.Request) security.Requirement {
	return security.Requirement{}
}

func AdminOnly(*http.Request) security.Requirement {
	return security.Requirement{AdminOnly: true}
}

// SubjectParam scopes the route to the record named by URL parameter name.
func SubjectParam(name string) RequirementFunc {
	return func(r *http.Request) security.Requirement {
		return security.Requirement{SubjectID: chi.URLParam(r, name)}
	}
}

type Auth struct {
	gate    *security.Gate
	metrics *metrics.Collector
}

func NewAuth(gate *security.Gate, collector *metrics.Collector) *Auth {
	return &Auth{gate: gate, metrics: collector}
}

// Check runs the gate for r and records denials.
func (a *Auth) Check(r *http.Request, req security.Requirement) security.Verdict {
	v := a.gate.Check(security.CookieHeader(r), req)
	if !v.Allowed() {
		a.metrics.RecordAuthDenied(DenialReason(v.Err))
	}
	return v
}

// RequireAPI guards JSON routes. Denials get an error body with the verdict
// status, plus a clear-cookie header when the presented session was dead.
func (a *Auth) RequireAPI(requirement RequirementFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := a.Check(r, requirement(r))
			if !v.Allowed() {
				if v.ClearCookie {
					http.SetCookie(w, security.ClearSessionCookie())
				}
				common.RespondWithError(w, v.Status, v.Err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), v.Principal)))
		})
	}
}

func DenialReason(err error) string {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, common.ErrSessionInvalid):
		return "session_invalid"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	default:
		return "other"
	}
}

// WithPrincipal stores p on ctx and on the request log entry, if any.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	LogPrincipal(ctx, p)
	return context.WithValue(ctx, principalCtxKey, p)
}

// LogPrincipal attaches p to the access log line of the request owning ctx.
// Page handlers that check the session themselves use it directly.
func LogPrincipal(ctx context.Context, p model.Principal) {
	if entry, ok := ctx.Value(logEntryCtxKey).(*logEntry); ok {
		entry.setPrincipal(p)
	}
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(model.Principal)
	return p, ok
}
