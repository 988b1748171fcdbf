package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/donoralert/pkg/jwt"
)

// requestLogger logs one line per request with the final status.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := a.clock.Now()
		next.ServeHTTP(ww, r)

		a.logger.LogAttrs(r.Context(), slog.LevelDebug, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status_code", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", a.clock.Now().Sub(start).Round(time.Microsecond)),
		)
	})
}

func (a *API) authenticate() func(http.Handler) http.Handler {
	return jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service: a.tokens,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			a.fail(w, r, err)
		},
	})
}

// requireRole rejects callers whose token role is not one of roles.
func (a *API) requireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := jwt.GetClaims(r.Context())
			if !ok {
				a.fail(w, r, ErrUnauthorized)
				return
			}
			if !slices.Contains(roles, claims.Role) {
				a.fail(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// caller returns the authenticated user's ID. The middleware has already
// verified that the subject parses.
func caller(r *http.Request) (uuid.UUID, jwt.Role) {
	claims, ok := jwt.GetClaims(r.Context())
	if !ok {
		return uuid.Nil, ""
	}
	id, _ := claims.UserID()
	return id, claims.Role
}
