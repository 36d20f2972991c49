package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/commercemesh/fulfillment/internal/orders/application"
	"github.com/commercemesh/fulfillment/internal/orders/domain"
	"github.com/commercemesh/fulfillment/internal/platform/httpx"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "healthy"
	status := "healthy"
	code := http.StatusOK
	if err := h.pingDB(r.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, map[string]any{
		"service":   "orders-service",
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := application.ListOrdersQuery{
		Status:    r.URL.Query().Get("status"),
		OrderType: r.URL.Query().Get("order_type"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid limit")
			return
		}
		query.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid offset")
			return
		}
		query.Offset = offset
	}

	resp, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.OrderStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}
	resp, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}
	var req application.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateOrderStatus(r.Context(), orderID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid order id")
		return
	}
	resp, err := h.service.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
