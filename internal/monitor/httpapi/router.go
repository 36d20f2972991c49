package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercemesh/fulfillment/internal/monitor/aggregator"
	"github.com/commercemesh/fulfillment/internal/monitor/healthcheck"
	"github.com/commercemesh/fulfillment/internal/platform/httpx"
)

type Handler struct {
	agg     *aggregator.Aggregator
	checker *healthcheck.Checker
}

func NewHandler(agg *aggregator.Aggregator, checker *healthcheck.Checker) *Handler {
	return &Handler{agg: agg, checker: checker}
}

func NewRouter(logger *slog.Logger, handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestID)
	r.Use(httpx.Recover)
	r.Use(httpx.Logging(logger))

	r.Get("/health", handler.health)
	r.Get("/services/health", handler.servicesHealth)
	r.Get("/services/{service_name}/health", handler.serviceHealth)
	r.Get("/services/{service_name}/history", handler.serviceHistory)
	r.Get("/kafka/stats", handler.kafkaStats)
	r.Get("/alerts", handler.alerts)
	r.Get("/dashboard", handler.dashboard)
	return r
}
