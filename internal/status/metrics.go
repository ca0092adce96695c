package status

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by Service.
type Metrics struct {
	refreshes    *prometheus.CounterVec
	logins       *prometheus.CounterVec
	renderCache  *prometheus.CounterVec
	stations     prometheus.Gauge
	snapshotTime prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pms_refresh_total",
			Help: "Station list refresh attempts by result.",
		}, []string{"result"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pms_login_total",
			Help: "Upstream InitSession calls by result.",
		}, []string{"result"}),
		renderCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pms_render_cache_total",
			Help: "Rendered image cache lookups by result.",
		}, []string{"result"}),
		stations: f.NewGauge(prometheus.GaugeOpts{
			Name: "pms_stations",
			Help: "Number of stations in the current snapshot.",
		}),
		snapshotTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "pms_snapshot_timestamp_seconds",
			Help: "Unix time of the current snapshot.",
		}),
	}
}

const (
	refreshExistingSession = "existing_session"
	refreshNewSession      = "new_session"
	refreshFailure         = "failure"
)

func (m *Metrics) refreshed(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) login(ok bool) {
	if ok {
		m.logins.WithLabelValues("success").Inc()
		return
	}
	m.logins.WithLabelValues("failure").Inc()
}

func (m *Metrics) renderLookup(hit bool) {
	if hit {
		m.renderCache.WithLabelValues("hit").Inc()
		return
	}
	m.renderCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) snapshot(count int, at time.Time) {
	m.stations.Set(float64(count))
	m.snapshotTime.Set(float64(at.Unix()))
}
