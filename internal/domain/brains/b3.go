package brains

import (
	"fmt"
	"math"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/reason"
)

// B3Config holds the relative-value thresholds.
type B3Config struct {
	DivergenceCorrMax float64       `yaml:"divergence_corr_max"` // |corr| below this is a divergence hedge
	SpreadCorrMin     float64       `yaml:"spread_corr_min"`     // |corr| above this is a spread trade
	MinVolumeRatio    float64       `yaml:"min_volume_ratio"`
	SpreadRiskPct     float64       `yaml:"spread_risk_pct"`
	HedgeRiskPct      float64       `yaml:"hedge_risk_pct"`
	StopATR           float64       `yaml:"stop_atr"`
	TargetATR         float64       `yaml:"target_atr"`
	MaxSlippageBps    float64       `yaml:"max_slippage_bps"`
	MinRewardRisk     float64       `yaml:"min_reward_risk"`
	Validity          time.Duration `yaml:"validity"`
}

// DefaultB3Config returns production thresholds for B3.
func DefaultB3Config() B3Config {
	return B3Config{
		DivergenceCorrMax: 0.3,
		SpreadCorrMin:     0.7,
		MinVolumeRatio:    0.5,
		SpreadRiskPct:     0.8,
		HedgeRiskPct:      0.5,
		StopATR:           1.2,
		TargetATR:         1.5,
		MaxSlippageBps:    12.0,
		MinRewardRisk:     1.2,
		Validity:          60 * time.Minute,
	}
}

// B3 is the relative-value brain: it hedges correlation breakdowns and
// trades spreads when correlation is tight, abstaining in the neutral band.
type B3 struct {
	config B3Config
}

func NewB3(config B3Config) *B3 { return &B3{config: config} }

func (b *B3) ID() string { return "B3" }

func (b *B3) Evaluate(snap market.Snapshot, ref Ref) (*Intent, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("b3: %w", err)
	}

	// Hard gates.
	if snap.Volatility == market.VolatilityHigh {
		return nil, nil
	}
	if snap.EventProximity != market.EventProximityNone {
		return nil, nil
	}
	if snap.Execution == market.ExecutionBroken {
		return nil, nil
	}
	if snap.Metrics.VolumeRatio < b.config.MinVolumeRatio {
		return nil, nil
	}

	absCorr := math.Abs(snap.Metrics.Correlation)
	switch {
	case absCorr < b.config.DivergenceCorrMax:
		// Correlation has broken down; hedge against the dislocation.
		why := market.Rationale{
			Code:    reason.BrainDivergenceEdge,
			Message: fmt.Sprintf("correlation %.2f broke down; hedging dislocation", snap.Metrics.Correlation),
		}
		long := snap.Metrics.Correlation < 0
		return buildIntent(snap, ref, b.ID(), IntentHedge, long, b.config.HedgeRiskPct,
			b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
			b.config.MinRewardRisk, b.config.Validity, "H1", why), nil

	case absCorr > b.config.SpreadCorrMin:
		// Tight correlation; trade the spread in the direction flow is
		// paying.
		long := snap.Metrics.VolumeRatio >= 1.0
		typ := IntentOpenLong
		if !long {
			typ = IntentOpenShort
		}
		why := market.Rationale{
			Code:    reason.BrainSpreadEdge,
			Message: fmt.Sprintf("correlation %.2f tight; spread trade with %.2fx volume", snap.Metrics.Correlation, snap.Metrics.VolumeRatio),
		}
		return buildIntent(snap, ref, b.ID(), typ, long, b.config.SpreadRiskPct,
			b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
			b.config.MinRewardRisk, b.config.Validity, "H1", why), nil

	default:
		// Neutral band: no relative-value edge either way.
		return nil, nil
	}
}
