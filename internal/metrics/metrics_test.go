package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ridecipher/internal/domain"
	"ridecipher/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("content type %q", ct)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func expectLines(t *testing.T, out string, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if !strings.Contains(out, l) {
			t.Fatalf("missing %q in output:\n%s", l, out)
		}
	}
}

func TestObserverCounters(t *testing.T) {
	m := metrics.New()
	m.SessionCreated()
	m.SessionCreated()
	m.SessionEnded()
	m.SessionEvicted(domain.EvictExpired)
	m.SessionEvicted(domain.EvictClosed)
	m.SessionEvicted(domain.EvictClosed)
	m.Encrypted()
	m.Decrypted(true)
	m.Decrypted(false)
	m.KeyExchangeFailed()
	m.VaultFull()

	expectLines(t, scrape(t, m),
		"ridecipher_sessions_created_total 2",
		"ridecipher_sessions_ended_total 1",
		`ridecipher_sessions_evicted_total{reason="expired"} 1`,
		`ridecipher_sessions_evicted_total{reason="closed"} 2`,
		"ridecipher_records_encrypted_total 1",
		`ridecipher_records_decrypted_total{result="ok"} 1`,
		`ridecipher_records_decrypted_total{result="auth_failed"} 1`,
		"ridecipher_key_exchange_failures_total 1",
		"ridecipher_vault_full_total 1",
	)
}

func TestVaultGaugesReadAtScrape(t *testing.T) {
	m := metrics.New()
	stats := domain.VaultStats{Total: 3, Active: 2, Expired: 1, Capacity: 10}
	m.WatchVault(func() domain.VaultStats { return stats })

	expectLines(t, scrape(t, m),
		"ridecipher_vault_sessions 3",
		"ridecipher_vault_active_sessions 2",
		"ridecipher_vault_capacity 10",
	)

	stats.Total = 7
	expectLines(t, scrape(t, m), "ridecipher_vault_sessions 7")
}

func TestObserveRequest(t *testing.T) {
	m := metrics.New()
	m.ObserveRequest("POST /v1/sessions", 201, 3*time.Millisecond)
	m.ObserveRequest("POST /v1/sessions", 429, time.Millisecond)

	expectLines(t, scrape(t, m),
		`ridecipher_http_requests_total{code="201",route="POST /v1/sessions"} 1`,
		`ridecipher_http_requests_total{code="429",route="POST /v1/sessions"} 1`,
		`ridecipher_http_request_duration_seconds_count{route="POST /v1/sessions"} 2`,
	)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.SessionCreated()
	expectLines(t, scrape(t, b), "ridecipher_sessions_created_total 0")
}
