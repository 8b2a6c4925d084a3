package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	wizardTransitions *prometheus.CounterVec
	wizardFinalize    *prometheus.CounterVec
	wizardStarts      prometheus.Counter
	bucketAssignments *prometheus.CounterVec
	cancellations     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	gatewayErrors     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		wizardTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_wizard_transitions_total",
			Help: "Wizard events applied, by event and result",
		}, []string{"event", "result"}),

		wizardFinalize: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_wizard_finalize_total",
			Help: "Terminal write attempts by status and branch",
		}, []string{"status", "branch"}),

		bucketAssignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_bucket_assignments_total",
			Help: "Downsell bucket assignments by bucket and whether the fallback was used",
		}, []string{"bucket", "fallback"}),

		cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_cancellations_recorded_total",
			Help: "Cancellation records written, by downsell variant",
		}, []string{"variant", "accepted_downsell"}),

		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_subscription_status_changes_total",
			Help: "Subscription status changes written",
		}, []string{"from", "to"}),

		gatewayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cancel_gateway_errors_total",
			Help: "Persistence errors by operation",
		}, []string{"operation"}),

		wizardStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cancel_wizard_sessions_started_total",
			Help: "Server-side wizard sessions started",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) WizardTransition(event, result string) {
	if m == nil {
		return
	}
	m.wizardTransitions.WithLabelValues(event, result).Inc()
}

func (m *Metrics) WizardFinalized(status, branch string) {
	if m == nil {
		return
	}
	m.wizardFinalize.WithLabelValues(status, branch).Inc()
}

func (m *Metrics) WizardStarted() {
	if m == nil {
		return
	}
	m.wizardStarts.Inc()
}

func (m *Metrics) BucketAssigned(bucket string, fallback bool) {
	if m == nil {
		return
	}
	m.bucketAssignments.WithLabelValues(bucket, boolLabel(fallback)).Inc()
}

func (m *Metrics) CancellationRecorded(variant string, acceptedDownsell bool) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(variant, boolLabel(acceptedDownsell)).Inc()
}

func (m *Metrics) StatusChanged(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) GatewayError(operation string) {
	if m == nil {
		return
	}
	m.gatewayErrors.WithLabelValues(operation).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
