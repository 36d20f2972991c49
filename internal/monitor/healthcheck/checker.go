// Package healthcheck actively probes the fleet. Services with a
// liveness endpoint get an HTTP GET; infrastructure that exposes none
// (postgres, kafka) gets a bare TCP dial.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"
)

type ProbeKind int

const (
	ProbeHTTP ProbeKind = iota
	ProbeTCP
)

type Target struct {
	Name    string
	Addr    string // URL for HTTP probes, host:port for TCP probes
	Timeout time.Duration
	Probe   ProbeKind
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDown      = "down"
)

type Result struct {
	Status       string    `json:"status"`
	ResponseTime float64   `json:"response_time"`
	Detail       string    `json:"detail,omitempty"`
	LastChecked  time.Time `json:"last_checked"`
}

type Checker struct {
	targets []Target
	client  *http.Client
	nowFn   func() time.Time
}

func NewChecker(targets []Target) *Checker {
	return &Checker{
		targets: targets,
		// Per-probe deadlines come from the target timeout; the client
		// itself carries none.
		client: &http.Client{},
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (c *Checker) Targets() []Target {
	return c.targets
}

// Check probes one target and classifies the result. A non-200 response
// is unhealthy; refused connections and timeouts are down.
func (c *Checker) Check(ctx context.Context, target Target) Result {
	switch target.Probe {
	case ProbeTCP:
		return c.checkTCP(target)
	default:
		return c.checkHTTP(ctx, target)
	}
}

// CheckAll probes every target sequentially and returns the results
// keyed by target name.
func (c *Checker) CheckAll(ctx context.Context) map[string]Result {
	out := make(map[string]Result, len(c.targets))
	for _, target := range c.targets {
		out[target.Name] = c.Check(ctx, target)
	}
	return out
}

// Target resolves a configured target by name.
func (c *Checker) Target(name string) (Target, bool) {
	for _, target := range c.targets {
		if target.Name == name {
			return target, true
		}
	}
	return Target{}, false
}

func (c *Checker) checkHTTP(ctx context.Context, target Target) Result {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target.Addr, nil)
	if err != nil {
		return c.result(StatusDown, start, err.Error())
	}
	resp, err := c.client.Do(req)
	if err != nil {
		detail := "Connection failed"
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "Request timeout"
		}
		return c.result(StatusDown, start, detail)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.result(StatusUnhealthy, start, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	return c.result(StatusHealthy, start, "")
}

func (c *Checker) checkTCP(target Target) Result {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", target.Addr, target.Timeout)
	if err != nil {
		return c.result(StatusDown, start, "Connection failed")
	}
	_ = conn.Close()
	return c.result(StatusHealthy, start, "")
}

func (c *Checker) result(status string, start time.Time, detail string) Result {
	elapsed := math.Round(float64(time.Since(start).Microseconds())/10) / 100
	return Result{
		Status:       status,
		ResponseTime: elapsed,
		Detail:       detail,
		LastChecked:  c.nowFn(),
	}
}
