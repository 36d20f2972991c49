package aggregator

import (
	"fmt"
	"testing"
	"time"
)

func TestUptimeWindowEvictsOldestCheck(t *testing.T) {
	t.Parallel()
	agg := New()

	// 101 checks into a 100-entry window: the single unhealthy first
	// entry falls out, leaving a clean window.
	agg.RecordHealth("orders-service", HealthRecord{Status: "unhealthy"})
	for i := 0; i < 100; i++ {
		agg.RecordHealth("orders-service", HealthRecord{Status: "healthy"})
	}

	history, ok := agg.History("orders-service")
	if !ok {
		t.Fatalf("no history for orders-service")
	}
	if history.TotalChecks != 100 {
		t.Fatalf("total checks = %d, want 100", history.TotalChecks)
	}
	if history.HealthyChecks != 100 {
		t.Fatalf("healthy checks = %d, want 100", history.HealthyChecks)
	}
	if history.UptimePercentage != 100.00 {
		t.Fatalf("uptime = %.2f, want 100.00", history.UptimePercentage)
	}
}

func TestUptimeRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()
	agg := New()

	agg.RecordHealth("inventory-service", HealthRecord{Status: "down"})
	agg.RecordHealth("inventory-service", HealthRecord{Status: "healthy"})
	agg.RecordHealth("inventory-service", HealthRecord{Status: "healthy"})

	history, _ := agg.History("inventory-service")
	if history.UptimePercentage != 66.67 {
		t.Fatalf("uptime = %v, want 66.67", history.UptimePercentage)
	}
}

func TestHistoryUnknownService(t *testing.T) {
	t.Parallel()
	agg := New()
	if _, ok := agg.History("ghost-service"); ok {
		t.Fatalf("History returned data for an unknown service")
	}
}

func TestAlertRingKeepsNewestFifty(t *testing.T) {
	t.Parallel()
	agg := New()

	for i := 0; i < 60; i++ {
		agg.AddAlert(Alert{
			Timestamp: time.Now().UTC(),
			Type:      "low_stock",
			Message:   fmt.Sprintf("alert %d", i),
			Severity:  "warning",
		})
	}

	alerts := agg.Alerts()
	if len(alerts) != 50 {
		t.Fatalf("retained %d alerts, want 50", len(alerts))
	}
	if alerts[0].Message != "alert 10" {
		t.Fatalf("oldest retained alert = %q, want %q", alerts[0].Message, "alert 10")
	}
	if alerts[len(alerts)-1].Message != "alert 59" {
		t.Fatalf("newest retained alert = %q, want %q", alerts[len(alerts)-1].Message, "alert 59")
	}
}

func TestRecentAlerts(t *testing.T) {
	t.Parallel()
	agg := New()
	for i := 0; i < 15; i++ {
		agg.AddAlert(Alert{Message: fmt.Sprintf("alert %d", i)})
	}
	recent := agg.RecentAlerts(10)
	if len(recent) != 10 {
		t.Fatalf("recent alerts = %d, want 10", len(recent))
	}
	if recent[0].Message != "alert 5" || recent[9].Message != "alert 14" {
		t.Fatalf("recent window = [%q .. %q], want [alert 5 .. alert 14]", recent[0].Message, recent[9].Message)
	}
}

func TestTopicCounts(t *testing.T) {
	t.Parallel()
	agg := New()
	agg.CountMessage("order-created")
	agg.CountMessage("order-created")
	agg.CountMessage("stock-update")

	counts, total := agg.TopicCounts()
	if counts["order-created"] != 2 || counts["stock-update"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
}
