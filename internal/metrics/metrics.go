package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridecipher/internal/domain"
)

const namespace = "ridecipher"

// Metrics holds every series the service exports.
type Metrics struct {
	reg *prometheus.Registry

	created   prometheus.Counter
	ended     prometheus.Counter
	evicted   *prometheus.CounterVec
	encrypted prometheus.Counter
	decrypted *prometheus.CounterVec
	kexFailed prometheus.Counter
	vaultFull prometheus.Counter

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var _ domain.Observer = (*Metrics)(nil)

// New registers all series on a fresh registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_created_total",
			Help: "Sessions established by key exchange.",
		}),
		ended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_ended_total",
			Help: "Sessions terminated on request.",
		}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_evicted_total",
			Help: "Sessions removed by the vault, by reason.",
		}, []string{"reason"}),
		encrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_encrypted_total",
			Help: "Location records sealed.",
		}),
		decrypted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_decrypted_total",
			Help: "Decryption attempts, by result.",
		}, []string{"result"}),
		kexFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "key_exchange_failures_total",
			Help: "Handshakes rejected for an invalid peer key.",
		}),
		vaultFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "vault_full_total",
			Help: "Session creations refused because the vault was full.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Gateway requests, by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Gateway request latency.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		m.created, m.ended, m.evicted, m.encrypted, m.decrypted,
		m.kexFailed, m.vaultFull, m.requests, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// WatchVault adds gauges that read stats at scrape time. Call it once.
func (m *Metrics) WatchVault(stats func() domain.VaultStats) {
	gauge := func(name, help string, pick func(domain.VaultStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "vault", Name: name, Help: help,
		}, func() float64 { return pick(stats()) })
	}
	m.reg.MustRegister(
		gauge("sessions", "Sessions currently stored.", func(s domain.VaultStats) float64 { return float64(s.Total) }),
		gauge("active_sessions", "Stored sessions not yet expired.", func(s domain.VaultStats) float64 { return float64(s.Active) }),
		gauge("capacity", "Maximum sessions the vault holds.", func(s domain.VaultStats) float64 { return float64(s.Capacity) }),
	)
}

// ObserveRequest records one gateway request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) SessionCreated()              { m.created.Inc() }
func (m *Metrics) SessionEnded()                { m.ended.Inc() }
func (m *Metrics) SessionEvicted(reason string) { m.evicted.WithLabelValues(reason).Inc() }
func (m *Metrics) Encrypted()                   { m.encrypted.Inc() }
func (m *Metrics) KeyExchangeFailed()           { m.kexFailed.Inc() }
func (m *Metrics) VaultFull()                   { m.vaultFull.Inc() }

func (m *Metrics) Decrypted(ok bool) {
	if ok {
		m.decrypted.WithLabelValues("ok").Inc()
		return
	}
	m.decrypted.WithLabelValues("auth_failed").Inc()
}
