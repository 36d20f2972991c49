package healthcheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckHTTPHealthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := NewChecker(nil)
	result := checker.Check(context.Background(), Target{
		Name: "svc", Addr: srv.URL, Timeout: time.Second, Probe: ProbeHTTP,
	})
	if result.Status != StatusHealthy {
		t.Fatalf("status = %s, want healthy", result.Status)
	}
}

func TestCheckHTTPNon200IsUnhealthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	checker := NewChecker(nil)
	result := checker.Check(context.Background(), Target{
		Name: "svc", Addr: srv.URL, Timeout: time.Second, Probe: ProbeHTTP,
	})
	if result.Status != StatusUnhealthy {
		t.Fatalf("status = %s, want unhealthy", result.Status)
	}
	if result.Detail != "HTTP 503" {
		t.Fatalf("detail = %q, want HTTP 503", result.Detail)
	}
}

func TestCheckHTTPRefusedIsDown(t *testing.T) {
	t.Parallel()
	// Grab a port and close it so nothing listens there.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	checker := NewChecker(nil)
	result := checker.Check(context.Background(), Target{
		Name: "svc", Addr: "http://" + addr, Timeout: time.Second, Probe: ProbeHTTP,
	})
	if result.Status != StatusDown {
		t.Fatalf("status = %s, want down", result.Status)
	}
}

func TestCheckTCP(t *testing.T) {
	t.Parallel()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	checker := NewChecker(nil)
	up := checker.Check(context.Background(), Target{
		Name: "db", Addr: lis.Addr().String(), Timeout: time.Second, Probe: ProbeTCP,
	})
	if up.Status != StatusHealthy {
		t.Fatalf("status = %s, want healthy", up.Status)
	}

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	closedAddr := closed.Addr().String()
	_ = closed.Close()

	down := checker.Check(context.Background(), Target{
		Name: "db", Addr: closedAddr, Timeout: time.Second, Probe: ProbeTCP,
	})
	if down.Status != StatusDown {
		t.Fatalf("status = %s, want down", down.Status)
	}
}

func TestTargetLookup(t *testing.T) {
	t.Parallel()
	checker := NewChecker([]Target{{Name: "inventory-service"}})
	if _, ok := checker.Target("inventory-service"); !ok {
		t.Fatalf("configured target not found")
	}
	if _, ok := checker.Target("ghost"); ok {
		t.Fatalf("unknown target resolved")
	}
}
