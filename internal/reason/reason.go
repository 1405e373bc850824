// Package reason holds the closed reason-code vocabulary shared by the
// classifier, the brains, the portfolio manager, and the edge health
// monitor. Downstream systems key off these identifiers; a code, once
// shipped, is never repurposed.
package reason

// Code is a stable identifier attached to every rationale the pipeline
// emits. The free-text message beside it is for humans; machines branch
// on the code alone.
type Code string

// Market context classifier codes.
const (
	MCLEventWindow     Code = "MCL_EVENT_WINDOW"
	MCLVolatilitySpike Code = "MCL_VOLATILITY_SPIKE"
	MCLVolatilityFloor Code = "MCL_VOLATILITY_FLOOR"
	MCLLiquidityRaid   Code = "MCL_LIQUIDITY_RAID"
	MCLLiquidityBuild  Code = "MCL_LIQUIDITY_BUILDUP"
	MCLTrendStructure  Code = "MCL_TREND_STRUCTURE"
	MCLTransition      Code = "MCL_STRUCTURE_TRANSITION"
	MCLRangeQuiet      Code = "MCL_RANGE_QUIET"
)

// Brain codes.
const (
	BrainLiquidityEdge  Code = "BRAIN_A2_LIQUIDITY_EDGE"
	BrainDivergenceEdge Code = "BRAIN_B3_DIVERGENCE_EDGE"
	BrainSpreadEdge     Code = "BRAIN_B3_SPREAD_EDGE"
	BrainContinuation   Code = "BRAIN_C3_CONTINUATION"
	BrainEventHedge     Code = "BRAIN_D2_EVENT_HEDGE"
	BrainEventFollow    Code = "BRAIN_D2_EVENT_FOLLOW"
)

// Portfolio manager codes.
const (
	PMRiskOff          Code = "PM_RISK_OFF"
	PMCooldownActive   Code = "PM_COOLDOWN_ACTIVE"
	PMHandoffApproved  Code = "PM_HANDOFF_APPROVED"
	PMHandoffNoMatch   Code = "PM_HANDOFF_NO_POSITION"
	PMMaxPositions     Code = "PM_MAX_POSITIONS"
	PMDrawdownLimit    Code = "PM_DRAWDOWN_LIMIT"
	PMDailyLossLimit   Code = "PM_DAILY_LOSS_LIMIT"
	PMExposureLimit    Code = "PM_EXPOSURE_LIMIT"
	PMExposureClipped  Code = "PM_EXPOSURE_CLIPPED"
	PMSymbolLimit      Code = "PM_SYMBOL_LIMIT"
	PMSymbolClipped    Code = "PM_SYMBOL_CLIPPED"
	PMCurrencyLimit    Code = "PM_CURRENCY_LIMIT"
	PMCorrelationBlock Code = "PM_CORRELATION_BLOCK"
	PMModeScaled       Code = "PM_MODE_SCALED"
	PMApproved         Code = "PM_APPROVED"
)

// Edge health monitor codes.
const (
	EHMCriticalLoss     Code = "EHM_CRITICAL_LOSS"
	EHMDeadEdge         Code = "EHM_DEAD_EDGE"
	EHMDrawdownReduce   Code = "EHM_DRAWDOWN_REDUCE"
	EHMLossStreak       Code = "EHM_LOSS_STREAK"
	EHMExecutionDegrade Code = "EHM_EXECUTION_DEGRADED"
	EHMExecutionBroken  Code = "EHM_EXECUTION_BROKEN"
	EHMVolatilityRisk   Code = "EHM_VOLATILITY_RISK"
)

func (c Code) String() string { return string(c) }

// Component returns the pipeline stage a code belongs to, derived from its
// prefix. Unknown prefixes return the empty string.
func (c Code) Component() string {
	s := string(c)
	for _, p := range []string{"MCL", "BRAIN", "PM", "EHM"} {
		if len(s) > len(p) && s[:len(p)] == p && s[len(p)] == '_' {
			return p
		}
	}
	return ""
}

// Catalog lists every code the pipeline can emit, in stable order. The
// explain command dumps this; tests assert it stays duplicate-free.
func Catalog() []Code {
	return []Code{
		MCLEventWindow, MCLVolatilitySpike, MCLVolatilityFloor,
		MCLLiquidityRaid, MCLLiquidityBuild,
		MCLTrendStructure, MCLTransition, MCLRangeQuiet,

		BrainLiquidityEdge, BrainDivergenceEdge, BrainSpreadEdge,
		BrainContinuation, BrainEventHedge, BrainEventFollow,

		PMRiskOff, PMCooldownActive, PMHandoffApproved, PMHandoffNoMatch,
		PMMaxPositions, PMDrawdownLimit, PMDailyLossLimit,
		PMExposureLimit, PMExposureClipped, PMSymbolLimit, PMSymbolClipped,
		PMCurrencyLimit, PMCorrelationBlock, PMModeScaled, PMApproved,

		EHMCriticalLoss, EHMDeadEdge, EHMDrawdownReduce, EHMLossStreak,
		EHMExecutionDegrade, EHMExecutionBroken, EHMVolatilityRisk,
	}
}
