package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercemesh/fulfillment/internal/orders/application"
	"github.com/commercemesh/fulfillment/internal/platform/httpx"
)

type Handler struct {
	service *application.Service
	pingDB  func(ctx context.Context) error
}

func NewHandler(service *application.Service, pingDB func(ctx context.Context) error) *Handler {
	return &Handler{service: service, pingDB: pingDB}
}

func NewRouter(logger *slog.Logger, handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestID)
	r.Use(httpx.Recover)
	r.Use(httpx.Logging(logger))

	r.Get("/health", handler.health)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", handler.listOrders)
		r.Post("/", handler.createOrder)
		r.Get("/stats", handler.orderStats)
		r.Get("/{order_id}", handler.getOrder)
		r.Delete("/{order_id}", handler.cancelOrder)
		r.Put("/{order_id}/status", handler.updateStatus)
	})
	return r
}
