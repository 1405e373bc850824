package brains

import (
	"fmt"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/reason"
)

// C3Config holds the two-speed momentum thresholds.
type C3Config struct {
	ConfirmedVolumeRatio float64       `yaml:"confirmed_volume_ratio"` // full-size continuation
	EarlyVolumeRatio     float64       `yaml:"early_volume_ratio"`     // half-size continuation
	FullRiskPct          float64       `yaml:"full_risk_pct"`
	StopATR              float64       `yaml:"stop_atr"`
	TargetATR            float64       `yaml:"target_atr"`
	MaxSlippageBps       float64       `yaml:"max_slippage_bps"`
	MinRewardRisk        float64       `yaml:"min_reward_risk"`
	Validity             time.Duration `yaml:"validity"`
}

// DefaultC3Config returns production thresholds for C3.
func DefaultC3Config() C3Config {
	return C3Config{
		ConfirmedVolumeRatio: 1.3,
		EarlyVolumeRatio:     0.9,
		FullRiskPct:          1.0,
		StopATR:              1.0,
		TargetATR:            2.0,
		MaxSlippageBps:       20.0,
		MinRewardRisk:        2.0,
		Validity:             60 * time.Minute,
	}
}

// C3 is the two-speed momentum brain: it only trades clean, trending
// conditions, full size on confirmed continuation and half size on early
// continuation.
type C3 struct {
	config C3Config
}

func NewC3(config C3Config) *C3 { return &C3{config: config} }

func (b *C3) ID() string { return "C3" }

func (b *C3) Evaluate(snap market.Snapshot, ref Ref) (*Intent, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("c3: %w", err)
	}

	// Hard gates: no event window, trend structure, clean tape, pristine
	// execution, a usable ATR, and a spread the slippage budget can absorb.
	if snap.EventProximity != market.EventProximityNone {
		return nil, nil
	}
	if snap.Structure != market.StructureTrend {
		return nil, nil
	}
	if snap.Liquidity != market.LiquidityClean {
		return nil, nil
	}
	if snap.Execution != market.ExecutionOK {
		return nil, nil
	}
	if snap.Metrics.ATR <= 0 {
		return nil, nil
	}
	if snap.Metrics.SpreadBps > 2*b.config.MaxSlippageBps {
		return nil, nil
	}

	var risk float64
	var label string
	switch {
	case snap.Metrics.VolumeRatio >= b.config.ConfirmedVolumeRatio:
		risk = b.config.FullRiskPct
		label = "confirmed"
	case snap.Metrics.VolumeRatio >= b.config.EarlyVolumeRatio:
		// Early continuation is too fragile to chase into a volatile tape.
		if snap.Volatility == market.VolatilityHigh {
			return nil, nil
		}
		risk = b.config.FullRiskPct / 2
		label = "early"
	default:
		return nil, nil
	}

	long := snap.Metrics.Correlation >= 0
	typ := IntentOpenLong
	if !long {
		typ = IntentOpenShort
	}
	why := market.Rationale{
		Code:    reason.BrainContinuation,
		Message: fmt.Sprintf("%s continuation on %.2fx volume", label, snap.Metrics.VolumeRatio),
	}
	return buildIntent(snap, ref, b.ID(), typ, long, risk,
		b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
		b.config.MinRewardRisk, b.config.Validity, "H1", why), nil
}
