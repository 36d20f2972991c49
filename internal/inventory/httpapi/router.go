package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commercemesh/fulfillment/internal/inventory/application"
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

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.listProducts)
		r.Post("/", handler.createProduct)
		r.Get("/low-stock", handler.listLowStock)
		r.Get("/{product_id}", handler.getProduct)
		r.Put("/{product_id}", handler.updateProduct)
		r.Post("/{product_id}/stock", handler.updateStock)
		r.Get("/{product_id}/movements", handler.listMovements)
	})
	return r
}
