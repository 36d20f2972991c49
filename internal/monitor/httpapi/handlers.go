package httpapi

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/commercemesh/fulfillment/internal/monitor/healthcheck"
	"github.com/commercemesh/fulfillment/internal/platform/httpx"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"service":   "monitor-service",
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) servicesHealth(w http.ResponseWriter, r *http.Request) {
	results := h.checker.CheckAll(r.Context())
	overall := "healthy"
	for _, result := range results {
		if result.Status != healthcheck.StatusHealthy {
			overall = "degraded"
			break
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp":      time.Now().UTC(),
		"services":       results,
		"overall_status": overall,
	})
}

func (h *Handler) serviceHealth(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service_name")
	target, ok := h.checker.Target(name)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service "+name+" not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.checker.Check(r.Context(), target))
}

func (h *Handler) serviceHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "service_name")
	history, ok := h.agg.History(name)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no history found for service "+name)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"service":           history.Service,
		"total_checks":      history.TotalChecks,
		"healthy_checks":    history.HealthyChecks,
		"uptime_percentage": history.UptimePercentage,
		"history":           history.Records,
	})
}

func (h *Handler) kafkaStats(w http.ResponseWriter, r *http.Request) {
	counts, total := h.agg.TopicCounts()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp":      time.Now().UTC(),
		"message_stats":  counts,
		"total_messages": total,
	})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.agg.Alerts()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp":    time.Now().UTC(),
		"alerts":       alerts,
		"total_alerts": len(alerts),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	results := h.checker.CheckAll(r.Context())
	healthy := 0
	for _, result := range results {
		if result.Status == healthcheck.StatusHealthy {
			healthy++
		}
	}
	healthPct := 0.0
	if len(results) > 0 {
		healthPct = math.Round(float64(healthy)/float64(len(results))*10000) / 100
	}
	overall := "degraded"
	if healthPct >= 100 {
		overall = "healthy"
	}

	counts, total := h.agg.TopicCounts()
	alerts := h.agg.Alerts()

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"system_health": map[string]any{
			"overall_status":    overall,
			"health_percentage": healthPct,
			"healthy_services":  healthy,
			"total_services":    len(results),
		},
		"services": results,
		"kafka_stats": map[string]any{
			"message_stats":  counts,
			"total_messages": total,
		},
		"recent_alerts": h.agg.RecentAlerts(10),
		"total_alerts":  len(alerts),
	})
}
