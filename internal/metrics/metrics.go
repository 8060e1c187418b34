// Package metrics counts collaboration outcomes for prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "laminotes"

// Edit outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeStale    = "stale"
	OutcomeRejected = "rejected"
	OutcomeDenied   = "denied"
)

// Collector owns a private registry so several collectors can coexist in
// one process, as they do in tests.
type Collector struct {
	registry              *prometheus.Registry
	edits                 *prometheus.CounterVec
	staleWrites           prometheus.Counter
	invitationTransitions *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "edits_total",
			Help:      "Document edits by outcome",
		}, []string{"outcome"}),
		staleWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "stale_writes_total",
			Help:      "Edits rejected because the version token was out of date",
		}),
		invitationTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invitations",
			Name:      "transitions_total",
			Help:      "Invitation status transitions by target status",
		}, []string{"status"}),
	}
	c.registry.MustRegister(c.edits, c.staleWrites, c.invitationTransitions)
	return c
}

// RecordEdit counts one edit attempt. Stale outcomes also bump the stale
// write counter.
func (c *Collector) RecordEdit(outcome string) {
	if c == nil {
		return
	}
	c.edits.With(prometheus.Labels{"outcome": outcome}).Inc()
	if outcome == OutcomeStale {
		c.staleWrites.Inc()
	}
}

// RecordInvitationTransition counts an invitation moving to status.
func (c *Collector) RecordInvitationTransition(status string) {
	if c == nil {
		return
	}
	c.invitationTransitions.With(prometheus.Labels{"status": status}).Inc()
}

// Handler serves the collector in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
