package market

import (
	"fmt"

	"github.com/quantpulse/tradecore/internal/reason"
)

// ClassifierConfig holds the fixed thresholds for every classification
// axis. Defaults are the production values; replay fixtures may override
// them through the config file.
type ClassifierConfig struct {
	// Structure axis
	TrendVolumeRatio  float64 `yaml:"trend_volume_ratio"`  // TREND needs volume ratio at or above this
	RangeExpansionMin float64 `yaml:"range_expansion_min"` // TRANSITION trigger
	StructureBarsH1   int     `yaml:"structure_bars_h1"`   // bars inspected for the swing pattern

	// Volatility axis, thresholds on ATR normalized by the last H1 close
	VolHighRatio float64 `yaml:"vol_high_ratio"`
	VolLowRatio  float64 `yaml:"vol_low_ratio"`

	// Liquidity axis
	RaidWickRatioMax   float64 `yaml:"raid_wick_ratio_max"`
	RaidVolumeRatioMin float64 `yaml:"raid_volume_ratio_min"`
	RaidOverlapMax     float64 `yaml:"raid_overlap_max"`
	BuildupCompression float64 `yaml:"buildup_compression"` // latest range below this fraction of prior range
	BuildupVolumeMax   float64 `yaml:"buildup_volume_max"`
	BuildupOverlapMin  float64 `yaml:"buildup_overlap_min"`

	// Execution axis
	DegradedSpreadBps float64 `yaml:"degraded_spread_bps"`
}

// DefaultClassifierConfig returns the production thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		TrendVolumeRatio:  1.2,
		RangeExpansionMin: 1.5,
		StructureBarsH1:   3,

		VolHighRatio: 0.02,
		VolLowRatio:  0.005,

		RaidWickRatioMax:   0.3,
		RaidVolumeRatioMin: 1.5,
		RaidOverlapMax:     0.5,
		BuildupCompression: 0.6,
		BuildupVolumeMax:   0.8,
		BuildupOverlapMin:  0.3,

		DegradedSpreadBps: 30.0,
	}
}

// Classifier turns raw observations into a Snapshot. Stateless; safe to
// share across goroutines.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier builds a classifier with the given thresholds.
func NewClassifier(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

// Classify evaluates each axis independently and assembles the snapshot.
// Total function: degenerate inputs map to safe defaults, never a panic or
// an error. Calling twice with identical inputs yields identical output.
func (c *Classifier) Classify(in Input) Snapshot {
	structure := c.classifyStructure(in)
	volatility := c.classifyVolatility(in)
	liquidity := c.classifyLiquidity(in)
	execution := c.classifyExecution(in.Telemetry)
	severity := c.severity(volatility, execution, in.Proximity)

	snap := Snapshot{
		Symbol:         in.Symbol,
		Timestamp:      in.Timestamp,
		EventID:        in.EventID,
		CorrelationID:  in.CorrelationID,
		Structure:      structure,
		Volatility:     volatility,
		Liquidity:      liquidity,
		EventProximity: in.Proximity,
		Execution:      execution,
		Session:        in.Session,
		Metrics:        in.Metrics,
		Severity:       severity,
	}
	snap.Rationale = c.rationale(snap)
	return snap
}

type swingPattern int

const (
	swingNone swingPattern = iota
	swingUp                // higher highs and higher lows
	swingDown              // lower highs and lower lows
)

func (c *Classifier) swing(bars []Bar) swingPattern {
	n := c.config.StructureBarsH1
	if len(bars) < n {
		return swingNone
	}
	last := bars[len(bars)-n:]
	up, down := true, true
	for i := 1; i < len(last); i++ {
		if !(last[i].High > last[i-1].High && last[i].Low > last[i-1].Low) {
			up = false
		}
		if !(last[i].High < last[i-1].High && last[i].Low < last[i-1].Low) {
			down = false
		}
	}
	switch {
	case up:
		return swingUp
	case down:
		return swingDown
	default:
		return swingNone
	}
}

func (c *Classifier) classifyStructure(in Input) Structure {
	pattern := c.swing(in.BarsH1)
	if pattern != swingNone && in.Metrics.VolumeRatio >= c.config.TrendVolumeRatio {
		return StructureTrend
	}
	if in.Metrics.RangeExpansion >= c.config.RangeExpansionMin || pattern != swingNone {
		return StructureTransition
	}
	return StructureRange
}

func (c *Classifier) classifyVolatility(in Input) Volatility {
	ref := 0.0
	if len(in.BarsH1) > 0 {
		ref = in.BarsH1[len(in.BarsH1)-1].Close
	}
	if ref <= 0 {
		// Cannot normalize; refuse to guess an extreme.
		return VolatilityNormal
	}
	ratio := in.Metrics.ATR / ref
	switch {
	case ratio >= c.config.VolHighRatio:
		return VolatilityHigh
	case ratio <= c.config.VolLowRatio:
		return VolatilityLow
	default:
		return VolatilityNormal
	}
}

func (c *Classifier) classifyLiquidity(in Input) LiquidityPhase {
	if len(in.BarsM15) < 2 {
		return LiquidityClean
	}
	prior := in.BarsM15[len(in.BarsM15)-2]
	latest := in.BarsM15[len(in.BarsM15)-1]

	latestRange := latest.High - latest.Low
	priorRange := prior.High - prior.Low

	wickRatio := 1.0 // degenerate zero-range bar counts as all body
	if latestRange > 0 {
		body := latest.Close - latest.Open
		if body < 0 {
			body = -body
		}
		wickRatio = body / latestRange
	}

	if wickRatio < c.config.RaidWickRatioMax &&
		in.Metrics.VolumeRatio > c.config.RaidVolumeRatioMin &&
		in.Metrics.SessionOverlap < c.config.RaidOverlapMax {
		return LiquidityRaid
	}
	if priorRange > 0 && latestRange < c.config.BuildupCompression*priorRange &&
		in.Metrics.VolumeRatio < c.config.BuildupVolumeMax &&
		in.Metrics.SessionOverlap > c.config.BuildupOverlapMin {
		return LiquidityBuildup
	}
	return LiquidityClean
}

func (c *Classifier) classifyExecution(t Telemetry) ExecutionHealth {
	// BROKEN is owned by the telemetry source; never downgraded here.
	if t.Health == ExecutionBroken {
		return ExecutionBroken
	}
	if t.LastSpread > c.config.DegradedSpreadBps {
		return ExecutionDegraded
	}
	return t.Health
}

func (c *Classifier) severity(vol Volatility, exec ExecutionHealth, prox EventProximity) Severity {
	switch {
	case exec == ExecutionBroken:
		return SeverityError
	case vol == VolatilityHigh || exec == ExecutionDegraded || prox == EventProximityPre:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// rationale picks the single most pressing reason code for the snapshot.
// Priority: event proximity, then volatility extremes, then notable
// liquidity phases, then structure, then the quiet-range default.
func (c *Classifier) rationale(s Snapshot) Rationale {
	switch {
	case s.EventProximity == EventProximityPre:
		return Rationale{Code: reason.MCLEventWindow, Message: fmt.Sprintf("%s inside pre-event window (%s session)", s.Symbol, s.Session)}
	case s.EventProximity == EventProximityPost:
		return Rationale{Code: reason.MCLEventWindow, Message: fmt.Sprintf("%s inside post-event window (%s session)", s.Symbol, s.Session)}
	case s.Volatility == VolatilityHigh:
		return Rationale{Code: reason.MCLVolatilitySpike, Message: fmt.Sprintf("ATR %.5f elevated against last close", s.Metrics.ATR)}
	case s.Volatility == VolatilityLow:
		return Rationale{Code: reason.MCLVolatilityFloor, Message: fmt.Sprintf("ATR %.5f compressed against last close", s.Metrics.ATR)}
	case s.Liquidity == LiquidityRaid:
		return Rationale{Code: reason.MCLLiquidityRaid, Message: fmt.Sprintf("wick-heavy bar on %.2fx volume outside session overlap", s.Metrics.VolumeRatio)}
	case s.Liquidity == LiquidityBuildup:
		return Rationale{Code: reason.MCLLiquidityBuild, Message: fmt.Sprintf("range compression on %.2fx volume during overlap", s.Metrics.VolumeRatio)}
	case s.Structure == StructureTrend:
		return Rationale{Code: reason.MCLTrendStructure, Message: fmt.Sprintf("monotonic swing structure confirmed by %.2fx volume", s.Metrics.VolumeRatio)}
	case s.Structure == StructureTransition:
		return Rationale{Code: reason.MCLTransition, Message: fmt.Sprintf("range expansion %.2fx without confirmed trend", s.Metrics.RangeExpansion)}
	default:
		return Rationale{Code: reason.MCLRangeQuiet, Message: "no notable context; ranging market"}
	}
}
