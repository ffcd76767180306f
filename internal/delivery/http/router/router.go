package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/delivery/http/handler"
	"github.com/user/rental-crawler/internal/delivery/http/middleware"
	"github.com/user/rental-crawler/pkg/metrics"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	metrics.Init()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/jobs", h.HandleSubmitJobs)
		r.Get("/jobs/status", h.HandleGetJobStatus)
		r.Get("/records", h.HandleGetRecords)
		r.Get("/failures", h.HandleGetFailures)
	})

	return r
}
