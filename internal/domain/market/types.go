// Package market classifies raw observations for one symbol/timestamp into
// a discrete market snapshot consumed by every downstream stage.
package market

import (
	"fmt"
	"math"
	"time"

	"github.com/quantpulse/tradecore/internal/reason"
)

// Structure labels the price structure axis.
type Structure string

const (
	StructureTrend      Structure = "TREND"
	StructureRange      Structure = "RANGE"
	StructureTransition Structure = "TRANSITION"
)

// Volatility labels the volatility axis.
type Volatility string

const (
	VolatilityLow    Volatility = "LOW"
	VolatilityNormal Volatility = "NORMAL"
	VolatilityHigh   Volatility = "HIGH"
)

// LiquidityPhase labels the liquidity axis.
type LiquidityPhase string

const (
	LiquidityClean   LiquidityPhase = "CLEAN"
	LiquidityBuildup LiquidityPhase = "BUILDUP"
	LiquidityRaid    LiquidityPhase = "RAID"
)

// EventProximity labels distance to a scheduled market event.
type EventProximity string

const (
	EventProximityNone EventProximity = "NONE"
	EventProximityPre  EventProximity = "PRE_EVENT"
	EventProximityPost EventProximity = "POST_EVENT"
)

// ExecutionHealth labels venue/broker execution quality.
type ExecutionHealth string

const (
	ExecutionOK       ExecutionHealth = "OK"
	ExecutionDegraded ExecutionHealth = "DEGRADED"
	ExecutionBroken   ExecutionHealth = "BROKEN"
)

// Severity grades how much attention a snapshot deserves.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Rationale pairs a stable reason code with a human-readable message. The
// message is for display only; nothing downstream branches on it.
type Rationale struct {
	Code    reason.Code `json:"code"`
	Message string      `json:"message"`
}

// Bar is one pre-aggregated OHLC candle. Volume is in venue-native units.
type Bar struct {
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Start  time.Time `json:"start"`
}

// Metrics is the precomputed numeric block. The core never derives these;
// they arrive from the feed layer.
type Metrics struct {
	ATR            float64 `json:"atr"`
	SpreadBps      float64 `json:"spread_bps"`
	VolumeRatio    float64 `json:"volume_ratio"`
	Correlation    float64 `json:"correlation"`
	SessionOverlap float64 `json:"session_overlap"`
	RangeExpansion float64 `json:"range_expansion"`
	RefPrice       float64 `json:"ref_price"`
}

// Telemetry is the execution-quality report from the order path.
type Telemetry struct {
	Health       ExecutionHealth `json:"health"`
	LatencyMs    float64         `json:"latency_ms"`
	LastSpread   float64         `json:"last_spread_bps"`
	LastSlippage float64         `json:"last_slippage_bps"`
}

// Snapshot is the classified market context for one symbol at one instant.
// Immutable once built; every brain and the health monitor read it.
type Snapshot struct {
	Symbol        string    `json:"symbol"`
	Timestamp     time.Time `json:"timestamp"`
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`

	Structure      Structure       `json:"structure"`
	Volatility     Volatility      `json:"volatility"`
	Liquidity      LiquidityPhase  `json:"liquidity"`
	EventProximity EventProximity  `json:"event_proximity"`
	Execution      ExecutionHealth `json:"execution"`

	Session   string    `json:"session"`
	Metrics   Metrics   `json:"metrics"`
	Severity  Severity  `json:"severity"`
	Rationale Rationale `json:"rationale"`
}

// Input bundles everything the classifier consumes for one call. Identity
// and time are injected by the caller; the classifier never reads a clock.
type Input struct {
	Symbol        string
	Timestamp     time.Time
	EventID       string
	CorrelationID string

	BarsH1  []Bar
	BarsM15 []Bar

	Metrics   Metrics
	Session   string
	Proximity EventProximity
	Telemetry Telemetry
}

// Validate rejects malformed shape before classification: non-finite
// numbers, negative prices, unknown labels. Business-degenerate inputs
// (too few bars, zero ATR) are not errors; the classifier maps those to
// safe defaults.
func (in Input) Validate() error {
	if in.Symbol == "" {
		return fmt.Errorf("market input: symbol is empty")
	}
	if in.Timestamp.IsZero() {
		return fmt.Errorf("market input %s: timestamp is zero", in.Symbol)
	}
	switch in.Proximity {
	case EventProximityNone, EventProximityPre, EventProximityPost:
	default:
		return fmt.Errorf("market input %s: unknown event proximity %q", in.Symbol, in.Proximity)
	}
	switch in.Telemetry.Health {
	case ExecutionOK, ExecutionDegraded, ExecutionBroken:
	default:
		return fmt.Errorf("market input %s: unknown execution health %q", in.Symbol, in.Telemetry.Health)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"atr", in.Metrics.ATR},
		{"spread_bps", in.Metrics.SpreadBps},
		{"volume_ratio", in.Metrics.VolumeRatio},
		{"correlation", in.Metrics.Correlation},
		{"session_overlap", in.Metrics.SessionOverlap},
		{"range_expansion", in.Metrics.RangeExpansion},
		{"ref_price", in.Metrics.RefPrice},
		{"latency_ms", in.Telemetry.LatencyMs},
		{"last_spread_bps", in.Telemetry.LastSpread},
		{"last_slippage_bps", in.Telemetry.LastSlippage},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("market input %s: %s is not finite", in.Symbol, v.name)
		}
	}
	if in.Metrics.RefPrice < 0 {
		return fmt.Errorf("market input %s: negative reference price %.6f", in.Symbol, in.Metrics.RefPrice)
	}
	if err := validateBars(in.Symbol, "h1", in.BarsH1); err != nil {
		return err
	}
	return validateBars(in.Symbol, "m15", in.BarsM15)
}

func validateBars(symbol, tf string, bars []Bar) error {
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("market input %s: %s bar %d has non-finite field", symbol, tf, i)
			}
		}
		if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 {
			return fmt.Errorf("market input %s: %s bar %d has negative price", symbol, tf, i)
		}
		if b.High < b.Low {
			return fmt.Errorf("market input %s: %s bar %d high %.6f below low %.6f", symbol, tf, i, b.High, b.Low)
		}
	}
	return nil
}
