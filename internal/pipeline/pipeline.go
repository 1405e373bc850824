// Package pipeline composes the four decision stages for one cycle. It is
// the only place the classify → signal → authorize → monitor ordering
// lives, and it is as pure as the stages it composes: no I/O, no clock, no
// state between calls.
package pipeline

import (
	"fmt"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/health"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
)

// IDs carries the caller-injected identity for one evaluation step.
type IDs struct {
	EventID       string
	CorrelationID string
}

// Engine wires one classifier, the brain set, one manager, and one monitor.
type Engine struct {
	classifier *market.Classifier
	brains     []brains.Brain
	manager    *portfolio.Manager
	monitor    *health.Monitor
}

// New builds an engine from the stage implementations.
func New(classifier *market.Classifier, brainSet []brains.Brain, manager *portfolio.Manager, monitor *health.Monitor) *Engine {
	return &Engine{classifier: classifier, brains: brainSet, manager: manager, monitor: monitor}
}

// BrainOutcome pairs a brain with what it produced for one snapshot.
type BrainOutcome struct {
	BrainID  string
	Intent   *brains.Intent // nil when the brain abstained
	Decision *portfolio.Decision
}

// CycleReport is everything one symbol cycle produced.
type CycleReport struct {
	Snapshot market.Snapshot
	Outcomes []BrainOutcome
}

// RunCycle classifies one symbol's observations, runs every brain over the
// snapshot, and authorizes each emitted intent against the same portfolio
// state. Ids are consumed one pair per step in brain order, so a replay
// with the same id stream reproduces the report byte for byte.
func (e *Engine) RunCycle(in market.Input, state portfolio.State, ids []IDs) (*CycleReport, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	need := 1 + 2*len(e.brains)
	if len(ids) < need {
		return nil, fmt.Errorf("pipeline: cycle for %s needs %d id pairs, got %d", in.Symbol, need, len(ids))
	}

	in.EventID = ids[0].EventID
	in.CorrelationID = ids[0].CorrelationID
	snap := e.classifier.Classify(in)

	report := &CycleReport{Snapshot: snap}
	next := 1
	for _, b := range e.brains {
		ref := brains.Ref{
			Symbol:        in.Symbol,
			Timestamp:     in.Timestamp,
			EventID:       ids[next].EventID,
			CorrelationID: ids[next].CorrelationID,
		}
		next++
		intent, err := b.Evaluate(snap, ref)
		if err != nil {
			return nil, fmt.Errorf("pipeline: brain %s: %w", b.ID(), err)
		}
		outcome := BrainOutcome{BrainID: b.ID(), Intent: intent}
		if intent != nil {
			decision, err := e.manager.Evaluate(*intent, state, in.Timestamp,
				ids[next].EventID, ids[next].CorrelationID)
			if err != nil {
				return nil, fmt.Errorf("pipeline: manager for %s: %w", b.ID(), err)
			}
			outcome.Decision = decision
		}
		next++
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// CheckPosition runs the health monitor for one open position against the
// current snapshot.
func (e *Engine) CheckPosition(pos health.PositionState, history []health.TradeResult,
	snap market.Snapshot, ts time.Time, id IDs) (*health.Action, error) {
	return e.monitor.Evaluate(pos, history, snap, ts, id.EventID, id.CorrelationID)
}
