// Package metrics регистрирует Prometheus-метрики сервиса доступа.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics хранит счётчики решений о доступе и просмотров контактов.
type Metrics struct {
	decisions     *prometheus.CounterVec
	contactViews  *prometheus.CounterVec
	trialsExpired prometheus.Counter
}

// Исходы записи просмотра контакта.
const (
	OutcomeRecorded      = "recorded"
	OutcomeAlreadyViewed = "already_viewed"
	OutcomeLimitExceeded = "limit_exceeded"
	OutcomeError         = "error"
)

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "access_decisions_total",
			Help:      "Access decisions by action and reason.",
		}, []string{"action", "reason"}),
		contactViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "contact_views_total",
			Help:      "Contact view record attempts by outcome.",
		}, []string{"outcome"}),
		trialsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freight",
			Name:      "trials_expired_total",
			Help:      "Trial subscriptions transitioned to expired by the sweeper.",
		}),
	}
	reg.MustRegister(m.decisions, m.contactViews, m.trialsExpired)
	return m
}

// Decision учитывает решение о доступе.
func (m *Metrics) Decision(action, reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action, reason).Inc()
}

// ContactView учитывает исход записи просмотра.
func (m *Metrics) ContactView(outcome string) {
	if m == nil {
		return
	}
	m.contactViews.WithLabelValues(outcome).Inc()
}

// TrialsExpired учитывает число переведённых в expired подписок.
func (m *Metrics) TrialsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.trialsExpired.Add(float64(n))
}
