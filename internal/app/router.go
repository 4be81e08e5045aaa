package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"

	"github.com/joulek/Backend-mtr/internal/articles"
	"github.com/joulek/Backend-mtr/internal/observability"
	"github.com/joulek/Backend-mtr/internal/orders"
	"github.com/joulek/Backend-mtr/internal/quotations"
	"github.com/joulek/Backend-mtr/internal/reclamations"
	"github.com/joulek/Backend-mtr/internal/shared"
	"github.com/joulek/Backend-mtr/internal/specrequests"
	"github.com/joulek/Backend-mtr/jobs"
	"github.com/joulek/Backend-mtr/report"
)

// RouterParams groups dependencies for building the HTTP router. Nil handlers are not mounted.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	RequestsHandler     *specrequests.Handler
	QuotationsHandler   *quotations.Handler
	ReclamationsHandler *reclamations.Handler
	OrdersHandler       *orders.Handler
	ArticlesHandler     *articles.Handler
	ReportHandler       *report.Handler
	JobHandler          *jobs.Handler
}

// AdminOnly guards staff routes.
var AdminOnly = RequireRole(shared.RoleAdmin)

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireActor)
		if params.RequestsHandler != nil {
			r.Route("/requests", params.RequestsHandler.MountRoutes)
		}
		if params.QuotationsHandler != nil {
			r.Route("/quotations", params.QuotationsHandler.MountRoutes)
		}
		if params.ReclamationsHandler != nil {
			r.Route("/reclamations", params.ReclamationsHandler.MountRoutes)
		}
		if params.OrdersHandler != nil {
			r.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.ArticlesHandler != nil {
			r.Route("/articles", params.ArticlesHandler.MountRoutes)
		}
		if params.ReportHandler != nil {
			r.Route("/reports", func(r chi.Router) {
				r.Use(AdminOnly)
				params.ReportHandler.MountRoutes(r)
			})
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(RequireActor, AdminOnly)
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// NewHandlers builds the HTTP handlers over the wired services. inspector may be nil.
func NewHandlers(svc *Services, inspector *asynq.Inspector, logger *slog.Logger) RouterParams {
	return RouterParams{
		RequestsHandler:     specrequests.NewHandler(logger, svc.Requests, svc.Files, AdminOnly),
		QuotationsHandler:   quotations.NewHandler(logger, svc.Quotations, svc.Files, AdminOnly),
		ReclamationsHandler: reclamations.NewHandler(logger, svc.Reclamations, svc.Files, AdminOnly),
		OrdersHandler:       orders.NewHandler(logger, svc.Orders),
		ArticlesHandler:     articles.NewHandler(logger, svc.Articles, AdminOnly),
		ReportHandler:       report.NewHandler(svc.Gotenberg, svc.Renderer, logger),
		JobHandler:          jobs.NewHandler(inspector, logger),
	}
}
