// Package brains holds the four signal generators. Each brain reads one
// market snapshot and either emits a trade intent or abstains; brains never
// see portfolio state or each other's output.
package brains

import (
	"fmt"
	"math"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
)

// IntentType enumerates what an intent asks the portfolio manager for.
type IntentType string

const (
	IntentOpenLong  IntentType = "OPEN_LONG"
	IntentOpenShort IntentType = "OPEN_SHORT"
	IntentHedge     IntentType = "HEDGE"
	IntentScaleIn   IntentType = "SCALE_IN"
	IntentScaleOut  IntentType = "SCALE_OUT"
	IntentClose     IntentType = "CLOSE"
)

// IsHandoff reports whether the intent targets an existing position rather
// than opening a new one.
func (t IntentType) IsHandoff() bool {
	return t == IntentScaleIn || t == IntentScaleOut || t == IntentClose
}

// Plan is the proposed trade geometry.
type Plan struct {
	Entry     float64 `json:"entry"`
	Stop      float64 `json:"stop"`
	Target    float64 `json:"target"`
	Timeframe string  `json:"timeframe"`
}

// RewardRisk is the distance from entry to target over the distance from
// entry to stop. Zero stop distance yields zero, never a division error.
func (p Plan) RewardRisk() float64 {
	risk := math.Abs(p.Entry - p.Stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(p.Target-p.Entry) / risk
}

// Constraints bound how the executor may fill the intent.
type Constraints struct {
	MaxSlippageBps float64   `json:"max_slippage_bps"`
	MinRewardRisk  float64   `json:"min_reward_risk"`
	ValidUntil     time.Time `json:"valid_until"`
}

// Intent is a brain's proposed trade, not yet authorized.
type Intent struct {
	Symbol        string           `json:"symbol"`
	BrainID       string           `json:"brain_id"`
	Type          IntentType       `json:"type"`
	ProposedRisk  float64          `json:"proposed_risk_pct"`
	Plan          Plan             `json:"plan"`
	Constraints   Constraints      `json:"constraints"`
	Rationale     market.Rationale `json:"rationale"`
	EventID       string           `json:"event_id"`
	CorrelationID string           `json:"correlation_id"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Ref carries the caller-injected identity for one evaluation. Brains never
// generate ids or read clocks.
type Ref struct {
	Symbol        string
	Timestamp     time.Time
	EventID       string
	CorrelationID string
}

// Validate rejects structurally incomplete refs.
func (r Ref) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("brain ref: symbol is empty")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("brain ref %s: timestamp is zero", r.Symbol)
	}
	return nil
}

// Brain is one signal generator. Evaluate returns (nil, nil) to abstain;
// errors are reserved for malformed input, never for "no edge".
type Brain interface {
	ID() string
	Evaluate(snap market.Snapshot, ref Ref) (*Intent, error)
}

// rrTolerance absorbs float error when checking a plan against its minimum
// reward:risk.
const rrTolerance = 1e-9

// buildIntent assembles a plan from ATR multiples off the snapshot's
// reference price and refuses to emit anything out of contract: a
// non-positive stop or target, or an under-ratio plan, returns nil.
func buildIntent(snap market.Snapshot, ref Ref, brainID string, typ IntentType, long bool,
	riskPct, stopATR, targetATR, maxSlippageBps, minRR float64,
	validity time.Duration, timeframe string, why market.Rationale) *Intent {

	entry := snap.Metrics.RefPrice
	atr := snap.Metrics.ATR
	if entry <= 0 || atr <= 0 {
		return nil
	}

	var stop, target float64
	if long {
		stop = entry - stopATR*atr
		target = entry + targetATR*atr
	} else {
		stop = entry + stopATR*atr
		target = entry - targetATR*atr
	}
	if stop <= 0 || target <= 0 {
		return nil
	}

	plan := Plan{Entry: entry, Stop: stop, Target: target, Timeframe: timeframe}
	if plan.RewardRisk() < minRR-rrTolerance {
		return nil
	}

	return &Intent{
		Symbol:       ref.Symbol,
		BrainID:      brainID,
		Type:         typ,
		ProposedRisk: riskPct,
		Plan:         plan,
		Constraints: Constraints{
			MaxSlippageBps: maxSlippageBps,
			MinRewardRisk:  minRR,
			ValidUntil:     ref.Timestamp.Add(validity),
		},
		Rationale:     why,
		EventID:       ref.EventID,
		CorrelationID: ref.CorrelationID,
		Timestamp:     ref.Timestamp,
	}
}

// All returns the four production brains in evaluation order.
func All(cfg Config) []Brain {
	return []Brain{
		NewA2(cfg.A2),
		NewB3(cfg.B3),
		NewC3(cfg.C3),
		NewD2(cfg.D2),
	}
}

// Config aggregates the per-brain threshold blocks.
type Config struct {
	A2 A2Config `yaml:"a2"`
	B3 B3Config `yaml:"b3"`
	C3 C3Config `yaml:"c3"`
	D2 D2Config `yaml:"d2"`
}

// DefaultConfig returns the production brain thresholds.
func DefaultConfig() Config {
	return Config{
		A2: DefaultA2Config(),
		B3: DefaultB3Config(),
		C3: DefaultC3Config(),
		D2: DefaultD2Config(),
	}
}
