// Package metrics holds the prometheus counters of the shop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "design_shop"

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
)

//nolint:gochecknoglobals
var (
	checkoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_sessions_total",
		Help:      "Checkout sessions requested, by record kind and outcome.",
	}, []string{"kind", "outcome"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Received payment webhook events, by event type and outcome.",
	}, []string{"type", "outcome"})

	reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliations_total",
		Help:      "Records moved to paid or completed, by path and record kind.",
	}, []string{"path", "kind"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Admin login attempts, by provider and outcome.",
	}, []string{"provider", "outcome"})
)

// CheckoutSession counts a checkout session request.
func CheckoutSession(kind, outcome string) {
	checkoutSessions.WithLabelValues(kind, outcome).Inc()
}

// WebhookEvent counts a received webhook event.
func WebhookEvent(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// Reconciled counts a record that was marked paid.
func Reconciled(path, kind string) {
	reconciliations.WithLabelValues(path, kind).Inc()
}

// Login counts an admin login attempt.
func Login(provider, outcome string) {
	logins.WithLabelValues(provider, outcome).Inc()
}
