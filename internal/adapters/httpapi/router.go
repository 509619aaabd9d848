package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterOptions struct {
	// Logger receives one line per request. Nil uses the logrus standard logger.
	Logger *logrus.Logger
	// DefaultOperator is used for requests without an X-Operator header.
	DefaultOperator string
	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
}

// NewRouter constructs the console HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Health and metrics are for infra checks and carry no operator.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(NewOperatorMiddleware(opts.DefaultOperator))

		r.Get("/members", s.ListMembers)
		r.Get("/memberships/orphans", s.ListOrphans)
		r.Get("/membership-types", s.ListMembershipTypes)

		r.Route("/wizard", func(r chi.Router) {
			r.Post("/steps", s.WizardSteps)
			r.Post("/validate", s.ValidateStep)
			r.Post("/password-strength", s.PasswordStrength)
			r.Post("/generate-password", s.GeneratePassword)
			r.Get("/master-search", s.SearchMasters)
			r.Post("/submit", s.Submit)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}
