package brains

import (
	"fmt"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/reason"
)

// D2Config holds the news-window thresholds.
type D2Config struct {
	HedgeRiskPct      float64       `yaml:"hedge_risk_pct"`
	FollowRiskPct     float64       `yaml:"follow_risk_pct"`
	FollowVolumeRatio float64       `yaml:"follow_volume_ratio"`
	StopATR           float64       `yaml:"stop_atr"`
	TargetATR         float64       `yaml:"target_atr"`
	MaxSlippageBps    float64       `yaml:"max_slippage_bps"`
	MinRewardRisk     float64       `yaml:"min_reward_risk"`
	PreEventValidity  time.Duration `yaml:"pre_event_validity"`
	PostEventValidity time.Duration `yaml:"post_event_validity"`
}

// DefaultD2Config returns production thresholds for D2.
func DefaultD2Config() D2Config {
	return D2Config{
		HedgeRiskPct:      0.4,
		FollowRiskPct:     0.8,
		FollowVolumeRatio: 1.0,
		StopATR:           1.5,
		TargetATR:         1.5,
		MaxSlippageBps:    25.0,
		MinRewardRisk:     1.0,
		PreEventValidity:  15 * time.Minute,
		PostEventValidity: 30 * time.Minute,
	}
}

// D2 is the news brain, the only generator allowed to act inside an event
// window. Outside one it always abstains; that rule is never relaxed.
type D2 struct {
	config D2Config
}

func NewD2(config D2Config) *D2 { return &D2{config: config} }

func (b *D2) ID() string { return "D2" }

func (b *D2) Evaluate(snap market.Snapshot, ref Ref) (*Intent, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("d2: %w", err)
	}

	if snap.EventProximity == market.EventProximityNone {
		return nil, nil
	}
	if snap.Execution == market.ExecutionBroken {
		return nil, nil
	}

	if snap.EventProximity == market.EventProximityPre {
		// Ahead of the release: defensive hedge, small and short-lived.
		long := snap.Metrics.Correlation < 0
		why := market.Rationale{
			Code:    reason.BrainEventHedge,
			Message: "pre-event window; defensive hedge ahead of release",
		}
		return buildIntent(snap, ref, b.ID(), IntentHedge, long, b.config.HedgeRiskPct,
			b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
			b.config.MinRewardRisk, b.config.PreEventValidity, "M15", why), nil
	}

	// Post-event: follow the repricing only when flow confirms it.
	if snap.Metrics.VolumeRatio < b.config.FollowVolumeRatio {
		return nil, nil
	}
	risk := b.config.FollowRiskPct
	if snap.Volatility == market.VolatilityHigh {
		risk /= 2
	}
	long := snap.Metrics.Correlation >= 0
	typ := IntentOpenLong
	if !long {
		typ = IntentOpenShort
	}
	why := market.Rationale{
		Code:    reason.BrainEventFollow,
		Message: fmt.Sprintf("post-event repricing on %.2fx volume", snap.Metrics.VolumeRatio),
	}
	return buildIntent(snap, ref, b.ID(), typ, long, risk,
		b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
		b.config.MinRewardRisk, b.config.PostEventValidity, "M15", why), nil
}
