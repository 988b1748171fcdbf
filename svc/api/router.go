package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/httpserver"
	"github.com/dmitrymomot/donoralert/pkg/jwt"
	"github.com/dmitrymomot/donoralert/pkg/requestid"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/notification"
)

// API holds the handlers' collaborators.
type API struct {
	alerts *alert.Service
	inbox  *notification.Service
	donors donor.Registry
	tokens *jwt.Service
	checks map[string]httpserver.Check
	cfg    Config
	logger *slog.Logger
	clock  clock.Clock
}

type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHealthChecks sets the checks reported by GET /health.
func WithHealthChecks(checks map[string]httpserver.Check) Option {
	return func(a *API) { a.checks = checks }
}

// WithDonors enables the donor profile routes.
func WithDonors(r donor.Registry) Option {
	return func(a *API) { a.donors = r }
}

func WithConfig(cfg Config) Option {
	return func(a *API) { a.cfg = cfg }
}

func WithClock(c clock.Clock) Option {
	return func(a *API) {
		if c != nil {
			a.clock = c
		}
	}
}

func New(alerts *alert.Service, inbox *notification.Service, tokens *jwt.Service, opts ...Option) *API {
	if alerts == nil || inbox == nil || tokens == nil {
		panic("api: alert service, notification service and token service are required")
	}
	a := &API{
		alerts: alerts,
		inbox:  inbox,
		tokens: tokens,
		logger: slog.Default(),
		clock:  clock.System(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cfg = a.cfg.withDefaults()
	return a
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer, a.requestLogger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) { a.fail(w, r, ErrNotFound) })

	r.Get("/health", httpserver.HealthHandler(a.logger, a.cfg.HealthTimeout, a.checks))

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate())

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", a.listAlerts)
			r.Get("/{id}", a.getAlert)
			r.With(a.requireRole(jwt.RoleAdmin)).Post("/", a.createAlert)
			r.With(a.requireRole(jwt.RoleAdmin)).Post("/{id}/send", a.sendAlert)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", a.listNotifications)
			r.Get("/unread-count", a.unreadCount)
			r.Patch("/read-all", a.markAllRead)
			r.Patch("/{id}/read", a.markRead)
			r.Delete("/{id}", a.deleteNotification)
		})

		if a.donors != nil {
			r.Route("/donors", func(r chi.Router) {
				r.Get("/me", a.getOwnProfile)
				r.Put("/me", a.upsertOwnProfile)
				r.With(a.requireRole(jwt.RoleAdmin)).Patch("/{user_id}/availability", a.setAvailability)
			})
		}
	})

	return r
}
