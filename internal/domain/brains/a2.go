package brains

import (
	"fmt"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/reason"
)

// A2Config holds the liquidity-predator thresholds.
type A2Config struct {
	BuildupRiskPct float64       `yaml:"buildup_risk_pct"`
	RaidRiskFactor float64       `yaml:"raid_risk_factor"` // fraction of buildup risk kept during a raid
	StopATR        float64       `yaml:"stop_atr"`
	TargetATR      float64       `yaml:"target_atr"`
	MaxSlippageBps float64       `yaml:"max_slippage_bps"`
	MinRewardRisk  float64       `yaml:"min_reward_risk"`
	Validity       time.Duration `yaml:"validity"`
}

// DefaultA2Config returns production thresholds for A2.
func DefaultA2Config() A2Config {
	return A2Config{
		BuildupRiskPct: 1.0,
		RaidRiskFactor: 0.75,
		StopATR:        1.0,
		TargetATR:      1.5,
		MaxSlippageBps: 15.0,
		MinRewardRisk:  1.5,
		Validity:       60 * time.Minute,
	}
}

// A2 is the liquidity predator: it trades liquidity buildups and raids in
// calm conditions, long into accumulation, with the raid side sized down.
type A2 struct {
	config A2Config
}

func NewA2(config A2Config) *A2 { return &A2{config: config} }

func (b *A2) ID() string { return "A2" }

func (b *A2) Evaluate(snap market.Snapshot, ref Ref) (*Intent, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("a2: %w", err)
	}

	// Hard gates: no event windows, no elevated volatility, pristine
	// execution only.
	if snap.EventProximity != market.EventProximityNone {
		return nil, nil
	}
	if snap.Volatility == market.VolatilityHigh {
		return nil, nil
	}
	if snap.Execution != market.ExecutionOK {
		return nil, nil
	}
	if snap.Liquidity != market.LiquidityBuildup && snap.Liquidity != market.LiquidityRaid {
		return nil, nil
	}

	long := true
	risk := b.config.BuildupRiskPct
	why := market.Rationale{
		Code:    reason.BrainLiquidityEdge,
		Message: "buildup absorption; positioning with accumulation",
	}
	if snap.Liquidity == market.LiquidityRaid {
		long = snap.Metrics.Correlation >= 0
		risk = b.config.BuildupRiskPct * b.config.RaidRiskFactor
		why.Message = fmt.Sprintf("raid sweep; fading with correlation %.2f at reduced size", snap.Metrics.Correlation)
	}

	typ := IntentOpenLong
	if !long {
		typ = IntentOpenShort
	}
	intent := buildIntent(snap, ref, b.ID(), typ, long, risk,
		b.config.StopATR, b.config.TargetATR, b.config.MaxSlippageBps,
		b.config.MinRewardRisk, b.config.Validity, "M15", why)
	return intent, nil
}
