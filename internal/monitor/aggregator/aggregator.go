// Package aggregator holds the monitor's in-process state: per-topic
// message counters, the recent-alert window, and per-service health
// history. The monitor owns no database; everything here is rebuilt
// from scratch on restart.
package aggregator

import (
	"math"
	"sync"
	"time"
)

const (
	alertCapacity   = 50
	historyCapacity = 100
)

type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Service   string    `json:"service,omitempty"`
	Severity  string    `json:"severity"`
}

type HealthRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	ResponseTime float64   `json:"response_time"`
	Detail       string    `json:"detail,omitempty"`
}

// ServiceHistory is a point-in-time view of one service's retained
// health checks.
type ServiceHistory struct {
	Service          string
	TotalChecks      int
	HealthyChecks    int
	UptimePercentage float64
	Records          []HealthRecord
}

type Aggregator struct {
	mu          sync.Mutex
	topicCounts map[string]int64
	alerts      *ring[Alert]
	health      map[string]*ring[HealthRecord]
}

func New() *Aggregator {
	return &Aggregator{
		topicCounts: make(map[string]int64),
		alerts:      newRing[Alert](alertCapacity),
		health:      make(map[string]*ring[HealthRecord]),
	}
}

func (a *Aggregator) CountMessage(topic string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.topicCounts[topic]++
}

func (a *Aggregator) AddAlert(alert Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts.push(alert)
}

func (a *Aggregator) RecordHealth(service string, rec HealthRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.health[service]
	if !ok {
		buf = newRing[HealthRecord](historyCapacity)
		a.health[service] = buf
	}
	buf.push(rec)
}

// TopicCounts returns a copy of the counters plus their sum.
func (a *Aggregator) TopicCounts() (map[string]int64, int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int64, len(a.topicCounts))
	var total int64
	for topic, count := range a.topicCounts {
		out[topic] = count
		total += count
	}
	return out, total
}

// Alerts returns the retained alerts oldest first.
func (a *Aggregator) Alerts() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alerts.items()
}

// RecentAlerts returns up to n of the newest retained alerts, still
// ordered oldest first.
func (a *Aggregator) RecentAlerts(n int) []Alert {
	all := a.Alerts()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// History reports the retained health window for one service. Uptime is
// healthy checks over total retained checks, so an unhealthy entry that
// has been evicted no longer drags the percentage down.
func (a *Aggregator) History(service string) (ServiceHistory, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.health[service]
	if !ok {
		return ServiceHistory{}, false
	}
	records := buf.items()
	healthy := 0
	for _, rec := range records {
		if rec.Status == "healthy" {
			healthy++
		}
	}
	uptime := 0.0
	if len(records) > 0 {
		uptime = round2(float64(healthy) / float64(len(records)) * 100)
	}
	return ServiceHistory{
		Service:          service,
		TotalChecks:      len(records),
		HealthyChecks:    healthy,
		UptimePercentage: uptime,
		Records:          records,
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
