// Package metrics exports reminder scheduling counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gymbuddy"

// Trigger outcomes recorded by the arranger.
const (
	OutcomeRegistered = "registered"
	OutcomeSkipped    = "skipped"
	OutcomeDenied     = "denied"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	triggers   *prometheus.CounterVec
	armed      prometheus.Gauge
	deliveries *prometheus.CounterVec
	plans      *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Hydration triggers by arrangement outcome.",
		}, []string{"outcome"}),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "triggers_armed",
			Help:      "One-shot triggers currently waiting to fire.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_delivered_total",
			Help:      "Reminder payloads handed to notification handlers.",
		}, []string{"result"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Planning runs, split by whether anything was scheduled.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.triggers, m.armed, m.deliveries, m.plans} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Trigger(outcome string) {
	if m == nil {
		return
	}
	m.triggers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetArmed(n int) {
	if m == nil {
		return
	}
	m.armed.Set(float64(n))
}

func (m *Metrics) Delivered(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.deliveries.WithLabelValues("error").Inc()
		return
	}
	m.deliveries.WithLabelValues("ok").Inc()
}

func (m *Metrics) Planned(scheduled bool) {
	if m == nil {
		return
	}
	if scheduled {
		m.plans.WithLabelValues("scheduled").Inc()
		return
	}
	m.plans.WithLabelValues("empty").Inc()
}
