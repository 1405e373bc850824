// Package metrics counts what the pipeline produced during a run. Counters
// live on a private registry so replays never leak state into each other;
// the summary renders from a gather, not from shadow accounting.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Set is one run's counter family.
type Set struct {
	registry  *prometheus.Registry
	snapshots *prometheus.CounterVec
	intents   *prometheus.CounterVec
	decisions *prometheus.CounterVec
	actions   *prometheus.CounterVec
}

// NewSet builds a fresh counter set on its own registry.
func NewSet() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_snapshots_total",
			Help: "Market snapshots classified, by severity.",
		}, []string{"severity"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_intents_total",
			Help: "Trade intents emitted, by brain.",
		}, []string{"brain"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_decisions_total",
			Help: "Portfolio decisions, by verdict.",
		}, []string{"verdict"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_health_actions_total",
			Help: "Health monitor actions, by type.",
		}, []string{"action"}),
	}
	s.registry.MustRegister(s.snapshots, s.intents, s.decisions, s.actions)
	return s
}

// CountSnapshot records one classified snapshot.
func (s *Set) CountSnapshot(severity string) { s.snapshots.WithLabelValues(severity).Inc() }

// CountIntent records one emitted intent.
func (s *Set) CountIntent(brain string) { s.intents.WithLabelValues(brain).Inc() }

// CountDecision records one portfolio verdict.
func (s *Set) CountDecision(verdict string) { s.decisions.WithLabelValues(verdict).Inc() }

// CountAction records one health action.
func (s *Set) CountAction(action string) { s.actions.WithLabelValues(action).Inc() }

// Summary renders the counters as sorted "name{label} value" lines for the
// end-of-run report.
func (s *Set) Summary() string {
	families, err := s.registry.Gather()
	if err != nil {
		return fmt.Sprintf("metrics unavailable: %v", err)
	}
	var lines []string
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %.0f",
				fam.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
