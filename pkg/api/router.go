// Package api expose le tableau de bord en HTTP/JSON pour l'interface web.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"incidents-dashboard/pkg/dashboard"
	"incidents-dashboard/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	CORSOrigins []string
	Logger      *slog.Logger
}

type handler struct {
	svc      *dashboard.Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewRouter monte les routes /api, /metrics et /healthz.
func NewRouter(svc *dashboard.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{svc: svc, logger: logger, validate: validator.New()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tickets", h.listTickets)
		r.Post("/tickets", h.addTicket)
		r.Post("/tickets/delete", h.deleteTickets)
		r.Get("/tickets/{ticketID}", h.ticketDetails)
		r.Post("/tickets/{ticketID}/rows", h.addTicketRow)
		r.Put("/tickets/{ticketID}/rows/{rank}", h.editTicketRow)
		r.Post("/tickets/{ticketID}/rows/delete", h.deleteTicketRows)

		r.Get("/incidents", h.majorIncidents)
		r.Get("/incidents/columns", h.majorIncidentsColumns)
		r.Post("/incidents", h.addRow)
		r.Put("/incidents/{index}", h.editRow)
		r.Post("/incidents/delete", h.deleteRows)

		r.Get("/outage-summary", h.outageSummary)
		r.Get("/availability", h.networkAvailability)
		r.Get("/dropdown-options", h.dropdownOptions)
		r.Get("/tables", h.allTables)
		r.Get("/tables/{sheet}/cells/{cell}", h.cellValue)

		r.Get("/settings", h.currentSettings)
		r.Put("/settings/sheet-id", h.setSheetID)
		r.Delete("/settings/sheet-id", h.removeSheetID)
		r.Put("/settings/sheet-name", h.setSheetName)
		r.Delete("/settings/sheet-name", h.resetSheetName)

		r.Post("/exports/{report}", h.export)
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
