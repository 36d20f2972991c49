package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/commercemesh/fulfillment/internal/monitor/aggregator"
)

// Poller probes the whole fleet on a fixed interval, feeding each
// result into the health history and alerting on anything not healthy.
type Poller struct {
	logger   *slog.Logger
	checker  *Checker
	agg      *aggregator.Aggregator
	interval time.Duration
}

func NewPoller(logger *slog.Logger, checker *Checker, agg *aggregator.Aggregator, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{logger: logger, checker: checker, agg: agg, interval: interval}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	p.logger.InfoContext(ctx, "running health checks",
		"module", "monitor.healthcheck",
		"operation", "poll",
	)
	for name, result := range p.checker.CheckAll(ctx) {
		p.agg.RecordHealth(name, aggregator.HealthRecord{
			Timestamp:    result.LastChecked,
			Status:       result.Status,
			ResponseTime: result.ResponseTime,
			Detail:       result.Detail,
		})
		if result.Status == StatusHealthy {
			continue
		}
		severity := "warning"
		if result.Status == StatusDown {
			severity = "critical"
		}
		p.agg.AddAlert(aggregator.Alert{
			Timestamp: result.LastChecked,
			Type:      "service_unhealthy",
			Message:   fmt.Sprintf("Service %s is %s", name, result.Status),
			Service:   name,
			Severity:  severity,
		})
		p.logger.WarnContext(ctx, "service health check failed",
			"module", "monitor.healthcheck",
			"operation", "poll",
			"outcome", "failure",
			"target", name,
			"status", result.Status,
			"detail", result.Detail,
		)
	}
}
