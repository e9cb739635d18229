package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the wizard.
type Metrics struct {
	StepsSaved         *prometheus.CounterVec
	NoticesPublished   prometheus.Counter
	NoticesDeleted     prometheus.Counter
	GatewayFailures    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		StepsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_notice_steps_saved_total",
			Help: "Total number of wizard steps saved, by step",
		}, []string{"step"}),
		NoticesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "breach_notice_published_total",
			Help: "Total number of breach notices published",
		}),
		NoticesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "breach_notice_deleted_total",
			Help: "Total number of breach notices deleted",
		}),
		GatewayFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_notice_gateway_failures_total",
			Help: "Total number of upstream gateway failures, by class",
		}, []string{"class"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_notice_validation_failures_total",
			Help: "Total number of step submissions rejected by validation, by step",
		}, []string{"step"}),
	}
}

func (m *Metrics) IncrementStepSaved(step string) {
	if m != nil {
		m.StepsSaved.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncrementPublished() {
	if m != nil {
		m.NoticesPublished.Inc()
	}
}

func (m *Metrics) IncrementDeleted() {
	if m != nil {
		m.NoticesDeleted.Inc()
	}
}

func (m *Metrics) IncrementGatewayFailure(class string) {
	if m != nil {
		m.GatewayFailures.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncrementValidationFailure(step string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(step).Inc()
	}
}
