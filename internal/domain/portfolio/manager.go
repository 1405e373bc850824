package portfolio

import (
	"fmt"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/reason"
)

// ManagerConfig holds the decision-chain knobs that are not account limits:
// the global-mode risk multipliers and the minimum headroom below which the
// governor denies instead of clipping.
type ManagerConfig struct {
	EventClusterFactor float64 `yaml:"event_cluster_factor"`
	CorrBreakFactor    float64 `yaml:"corr_break_factor"`
	FlowPayingFactor   float64 `yaml:"flow_paying_factor"`
	MinClipHeadroomPct float64 `yaml:"min_clip_headroom_pct"`
}

// DefaultManagerConfig returns the production multipliers.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		EventClusterFactor: 0.5,
		CorrBreakFactor:    0.3,
		FlowPayingFactor:   0.8,
		MinClipHeadroomPct: 0.1,
	}
}

// Manager evaluates one intent against portfolio state. Stateless between
// calls; the caller owns and persists the state.
type Manager struct {
	config ManagerConfig
}

// NewManager builds a portfolio manager.
func NewManager(config ManagerConfig) *Manager {
	return &Manager{config: config}
}

// Evaluate walks the ordered decision chain and returns exactly one
// decision. First applicable rule wins; every branch echoes the risk state
// unchanged.
func (m *Manager) Evaluate(intent brains.Intent, state State, ts time.Time, eventID, correlationID string) (*Decision, error) {
	if intent.Symbol == "" || intent.BrainID == "" {
		return nil, fmt.Errorf("portfolio: intent missing symbol or brain id")
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if ts.IsZero() {
		return nil, fmt.Errorf("portfolio: evaluation timestamp is zero")
	}

	base := Decision{
		Symbol:        intent.Symbol,
		BrainID:       intent.BrainID,
		IntentType:    intent.Type,
		Risk:          state.Risk,
		EventID:       eventID,
		CorrelationID: correlationID,
		Timestamp:     ts,
	}

	// 1. Risk-off posture denies everything.
	if state.Mode == ModeRiskOff {
		return deny(base, reason.PMRiskOff, "global mode RISK_OFF; no new authorizations"), nil
	}

	// 2. Active cooldowns queue rather than deny; the intent may retry
	// once the window lapses.
	for _, cd := range state.Cooldowns {
		if cd.Covers(intent.BrainID, intent.Symbol, ts) {
			d := base
			d.Verdict = VerdictQueue
			d.Rationale = market.Rationale{
				Code:    reason.PMCooldownActive,
				Message: fmt.Sprintf("cooldown %s/%s active until %s", cd.Scope, cd.Target, cd.Expiry.Format(time.RFC3339)),
			}
			return &d, nil
		}
	}

	// 3. Hand-offs require a matching open position.
	if intent.Type.IsHandoff() {
		if d, done := m.authorizeHandoff(intent, state, base); done {
			return d, nil
		}
		// SCALE_IN falls through to exposure checking.
	}

	// 4. Exposure governor: ordered hard limits, clip where allowed.
	effectiveRisk := intent.ProposedRisk
	clipCode := reason.PMExposureClipped
	if d, clipped := m.governExposure(intent, state, base); d != nil {
		return d, nil
	} else if clipped != nil {
		effectiveRisk = clipped.riskPct
		clipCode = clipped.code
	}

	// 5. Global-mode multiplier on whatever risk survived the governor.
	factor := m.modeFactor(state.Mode)
	scaled := effectiveRisk * factor

	d := base
	switch {
	case factor != 1.0:
		d.Verdict = VerdictModify
		d.Adjustment = &RiskAdjustment{
			OriginalPct: intent.ProposedRisk,
			AdjustedPct: scaled,
			Reason:      fmt.Sprintf("mode %s multiplier %.1f", state.Mode, factor),
		}
		d.Rationale = market.Rationale{
			Code:    reason.PMModeScaled,
			Message: fmt.Sprintf("approved at %.2f%% after %s scaling", scaled, state.Mode),
		}
	case effectiveRisk != intent.ProposedRisk:
		d.Verdict = VerdictModify
		d.Adjustment = &RiskAdjustment{
			OriginalPct: intent.ProposedRisk,
			AdjustedPct: effectiveRisk,
			Reason:      "clipped to exposure headroom",
		}
		d.Rationale = market.Rationale{
			Code:    clipCode,
			Message: fmt.Sprintf("risk clipped from %.2f%% to %.2f%% against exposure headroom", intent.ProposedRisk, effectiveRisk),
		}
	default:
		d.Verdict = VerdictAllow
		d.Rationale = market.Rationale{
			Code:    reason.PMApproved,
			Message: fmt.Sprintf("approved at %.2f%% within all limits", intent.ProposedRisk),
		}
	}
	return &d, nil
}

func (m *Manager) modeFactor(mode Mode) float64 {
	switch mode {
	case ModeEventCluster:
		return m.config.EventClusterFactor
	case ModeCorrBreak:
		return m.config.CorrBreakFactor
	case ModeFlowPaying:
		return m.config.FlowPayingFactor
	default:
		return 1.0
	}
}

// authorizeHandoff applies the rules for intents that act on an existing
// position. The returned bool is true when the decision is final; SCALE_IN
// with a matching position continues to the exposure governor.
func (m *Manager) authorizeHandoff(intent brains.Intent, state State, base Decision) (*Decision, bool) {
	_, held := state.find(intent.Symbol, intent.BrainID)
	if !held {
		return deny(base, reason.PMHandoffNoMatch,
			fmt.Sprintf("no open %s position owned by %s", intent.Symbol, intent.BrainID)), true
	}
	if intent.Type == brains.IntentClose || intent.Type == brains.IntentScaleOut {
		d := base
		d.Verdict = VerdictAllow
		d.Rationale = market.Rationale{
			Code:    reason.PMHandoffApproved,
			Message: fmt.Sprintf("%s authorized against held position", intent.Type),
		}
		return &d, true
	}
	return nil, false
}

func deny(base Decision, code reason.Code, msg string) *Decision {
	d := base
	d.Verdict = VerdictDeny
	d.Rationale = market.Rationale{Code: code, Message: msg}
	return &d
}
