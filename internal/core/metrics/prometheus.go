package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus instrumentation
type Collector struct {
	registry *prometheus.Registry

	RuleEvaluations   *prometheus.CounterVec
	AlertsCreated     *prometheus.CounterVec
	AlertsEscalated   prometheus.Counter
	AlertsResolved    prometheus.Counter
	Notifications     *prometheus.CounterVec
	ActiveAlerts      prometheus.Gauge
	SnapshotFailures  *prometheus.CounterVec
	CooldownSuppress  prometheus.Counter
}

// NewCollector creates a collector backed by its own registry so tests
// can construct engines without colliding on the global registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		RuleEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_rule_evaluations_total",
			Help: "Rule evaluations by outcome (triggered, passed, skipped)",
		}, []string{"outcome"}),
		AlertsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_alerts_created_total",
			Help: "Alerts created by severity",
		}, []string{"severity"}),
		AlertsEscalated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_alerts_escalated_total",
			Help: "Successful alert escalations",
		}),
		AlertsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_alerts_resolved_total",
			Help: "Alerts resolved",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_notifications_total",
			Help: "Notification dispatch attempts by channel and result",
		}, []string{"channel", "result"}),
		ActiveAlerts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_active_alerts",
			Help: "Alerts currently in an unresolved state",
		}),
		SnapshotFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_snapshot_failures_total",
			Help: "Snapshot provider failures by provider",
		}, []string{"provider"}),
		CooldownSuppress: factory.NewCounter(prometheus.CounterOpts{
			Name: "vigil_cooldown_suppressions_total",
			Help: "Alert creations suppressed by rule cooldown",
		}),
	}
}

// Handler exposes the collector's registry over HTTP
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
