// Package health monitors open positions for edge decay and recommends
// defensive actions: reduce risk, exit now, or cool a brain down.
package health

import (
	"fmt"
	"math"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
	"github.com/quantpulse/tradecore/internal/reason"
)

// ActionType enumerates what the monitor can recommend.
type ActionType string

const (
	ActionReduceRisk ActionType = "REDUCE_RISK"
	ActionExitNow    ActionType = "EXIT_NOW"
	ActionCooldown   ActionType = "COOLDOWN"
)

// Action is one recommendation for an existing position. The optional
// cooldown block feeds back into the portfolio manager's gating state on
// the next cycle, through the orchestrator.
type Action struct {
	Type          ActionType          `json:"type"`
	BrainID       string              `json:"brain_id"`
	Symbol        string              `json:"symbol"`
	Cooldown      *portfolio.Cooldown `json:"cooldown,omitempty"`
	Rationale     market.Rationale    `json:"rationale"`
	EventID       string              `json:"event_id"`
	CorrelationID string              `json:"correlation_id"`
	Timestamp     time.Time           `json:"timestamp"`
}

// PositionState is a read-only snapshot of one live position.
type PositionState struct {
	Symbol          string        `json:"symbol"`
	BrainID         string        `json:"brain_id"`
	Long            bool          `json:"long"`
	Entry           float64       `json:"entry"`
	Current         float64       `json:"current"`
	Stop            float64       `json:"stop"`
	Target          float64       `json:"target"`
	UnrealizedPct   float64       `json:"unrealized_pct"`
	Duration        time.Duration `json:"duration"`
	MaxFavorablePct float64       `json:"max_favorable_pct"`
	MaxAdversePct   float64       `json:"max_adverse_pct"`
}

// Validate rejects malformed position shape.
func (p PositionState) Validate() error {
	if p.Symbol == "" || p.BrainID == "" {
		return fmt.Errorf("position state: missing symbol or brain id")
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"entry", p.Entry}, {"current", p.Current},
		{"unrealized_pct", p.UnrealizedPct},
		{"max_favorable_pct", p.MaxFavorablePct},
		{"max_adverse_pct", p.MaxAdversePct},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("position state %s: %s is not finite", p.Symbol, v.name)
		}
	}
	if p.Entry < 0 || p.Current < 0 {
		return fmt.Errorf("position state %s: negative price", p.Symbol)
	}
	return nil
}

// TradeResult is one closed trade, supplied most-recent-last.
type TradeResult struct {
	BrainID  string    `json:"brain_id"`
	Symbol   string    `json:"symbol"`
	PnLPct   float64   `json:"pnl_pct"`
	ClosedAt time.Time `json:"closed_at"`
}

// MonitorConfig holds the health thresholds.
type MonitorConfig struct {
	CriticalLossPct   float64       `yaml:"critical_loss_pct"`   // at or below: exit now
	ReducePct         float64       `yaml:"reduce_pct"`          // at or below: reduce risk
	DeadAgeMinutes    float64       `yaml:"dead_age_minutes"`    // stale position age
	DeadMinFavorable  float64       `yaml:"dead_min_favorable"`  // MFE below this while stale
	DeadAdverseRatio  float64       `yaml:"dead_adverse_ratio"`  // MAE/MFE above this
	DeadFlatFavorable float64       `yaml:"dead_flat_favorable"` // MFE below this while underwater
	DeadFlatLossPct   float64       `yaml:"dead_flat_loss_pct"`
	LossStreak        int           `yaml:"loss_streak"`
	CooldownDuration  time.Duration `yaml:"cooldown_duration"`
}

// DefaultMonitorConfig returns the production health thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CriticalLossPct:   -3.0,
		ReducePct:         -1.5,
		DeadAgeMinutes:    240,
		DeadMinFavorable:  0.3,
		DeadAdverseRatio:  3.0,
		DeadFlatFavorable: 0.1,
		DeadFlatLossPct:   -0.5,
		LossStreak:        3,
		CooldownDuration:  120 * time.Minute,
	}
}

// Monitor evaluates position health. Stateless; safe to share.
type Monitor struct {
	config MonitorConfig
}

// NewMonitor builds an edge health monitor.
func NewMonitor(config MonitorConfig) *Monitor {
	return &Monitor{config: config}
}

// Evaluate walks the ordered health chain, first match wins. A healthy
// position returns (nil, nil); errors are reserved for malformed shape.
func (m *Monitor) Evaluate(pos PositionState, history []TradeResult, snap market.Snapshot,
	ts time.Time, eventID, correlationID string) (*Action, error) {

	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if ts.IsZero() {
		return nil, fmt.Errorf("health: evaluation timestamp is zero")
	}

	act := func(t ActionType, code reason.Code, msg string) *Action {
		return &Action{
			Type:          t,
			BrainID:       pos.BrainID,
			Symbol:        pos.Symbol,
			Rationale:     market.Rationale{Code: code, Message: msg},
			EventID:       eventID,
			CorrelationID: correlationID,
			Timestamp:     ts,
		}
	}

	// 1. Critical loss, boundary inclusive.
	if pos.UnrealizedPct <= m.config.CriticalLossPct {
		return act(ActionExitNow, reason.EHMCriticalLoss,
			fmt.Sprintf("unrealized %.2f%% at or below %.2f%% critical loss", pos.UnrealizedPct, m.config.CriticalLossPct)), nil
	}

	// 2. Dead edge: the trade never went anywhere, or adverse excursion
	// dwarfs favorable.
	if dead, why := m.deadEdge(pos); dead {
		return act(ActionExitNow, reason.EHMDeadEdge, why), nil
	}

	// 3. Meaningful drawdown short of critical.
	if pos.UnrealizedPct <= m.config.ReducePct {
		return act(ActionReduceRisk, reason.EHMDrawdownReduce,
			fmt.Sprintf("unrealized %.2f%% at or below %.2f%% reduce threshold", pos.UnrealizedPct, m.config.ReducePct)), nil
	}

	// 4. Consecutive losses for this brain trip a timed cooldown.
	if streak := lossStreak(history, pos.BrainID); streak >= m.config.LossStreak {
		a := act(ActionCooldown, reason.EHMLossStreak,
			fmt.Sprintf("%d consecutive losses for %s; cooling down", streak, pos.BrainID))
		a.Cooldown = &portfolio.Cooldown{
			Scope:  portfolio.ScopeBrain,
			Target: pos.BrainID,
			Expiry: ts.Add(m.config.CooldownDuration),
		}
		return a, nil
	}

	// 5. Execution quality.
	switch snap.Execution {
	case market.ExecutionBroken:
		return act(ActionExitNow, reason.EHMExecutionBroken, "execution broken; exiting while still possible"), nil
	case market.ExecutionDegraded:
		return act(ActionReduceRisk, reason.EHMExecutionDegrade, "execution degraded; shrinking exposure"), nil
	}

	// 6. Elevated volatility against an underwater position.
	if snap.Volatility == market.VolatilityHigh && pos.UnrealizedPct < 0 {
		return act(ActionReduceRisk, reason.EHMVolatilityRisk,
			fmt.Sprintf("high volatility with unrealized %.2f%%", pos.UnrealizedPct)), nil
	}

	return nil, nil
}

// deadEdge reports whether the position shows no remaining edge.
func (m *Monitor) deadEdge(pos PositionState) (bool, string) {
	minutes := pos.Duration.Minutes()
	if minutes > m.config.DeadAgeMinutes && pos.MaxFavorablePct < m.config.DeadMinFavorable {
		return true, fmt.Sprintf("%.0f minutes old with max favorable %.2f%%; edge never showed", minutes, pos.MaxFavorablePct)
	}
	if pos.MaxFavorablePct > 0 && pos.MaxAdversePct/pos.MaxFavorablePct > m.config.DeadAdverseRatio {
		return true, fmt.Sprintf("adverse/favorable %.1f exceeds %.1f; excursion profile inverted",
			pos.MaxAdversePct/pos.MaxFavorablePct, m.config.DeadAdverseRatio)
	}
	if pos.MaxFavorablePct < m.config.DeadFlatFavorable && pos.UnrealizedPct < m.config.DeadFlatLossPct {
		return true, fmt.Sprintf("max favorable %.2f%% with unrealized %.2f%%; flat and bleeding",
			pos.MaxFavorablePct, pos.UnrealizedPct)
	}
	return false, ""
}

// lossStreak counts consecutive losing trades for one brain, scanning the
// most-recent-last history backward and stopping at that brain's first
// non-loss.
func lossStreak(history []TradeResult, brainID string) int {
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].BrainID != brainID {
			continue
		}
		if history[i].PnLPct < 0 {
			streak++
			continue
		}
		break
	}
	return streak
}
