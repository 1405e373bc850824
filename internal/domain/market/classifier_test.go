package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpulse/tradecore/internal/reason"
)

var testTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func upBars(n int, base float64) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		step := float64(i) * 0.01
		bars[i] = Bar{
			Open: base + step, High: base + step + 0.015,
			Low: base + step - 0.005, Close: base + step + 0.01,
			Volume: 1000,
			Start:  testTime.Add(time.Duration(i-n) * time.Hour),
		}
	}
	return bars
}

func flatBars(n int, base float64) []Bar {
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			Open: base, High: base + 0.01, Low: base - 0.01, Close: base,
			Volume: 1000,
			Start:  testTime.Add(time.Duration(i-n) * time.Hour),
		}
	}
	return bars
}

func baseInput() Input {
	return Input{
		Symbol:    "EURUSD",
		Timestamp: testTime,
		BarsH1:    flatBars(3, 1.10),
		BarsM15:   flatBars(2, 1.10),
		Metrics: Metrics{
			ATR:            0.010,
			SpreadBps:      8,
			VolumeRatio:    1.0,
			Correlation:    0.2,
			SessionOverlap: 0.6,
			RangeExpansion: 1.0,
			RefPrice:       1.10,
		},
		Session:   "LONDON",
		Proximity: EventProximityNone,
		Telemetry: Telemetry{Health: ExecutionOK, LatencyMs: 40, LastSpread: 8},
	}
}

func TestClassifier_Structure(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	in := baseInput()
	in.BarsH1 = upBars(3, 1.10)
	in.Metrics.VolumeRatio = 1.2
	assert.Equal(t, StructureTrend, c.Classify(in).Structure, "HH/HL with confirming volume is a trend")

	in.Metrics.VolumeRatio = 1.1
	assert.Equal(t, StructureTransition, c.Classify(in).Structure, "pattern without volume confirmation is a transition")

	in = baseInput()
	in.Metrics.RangeExpansion = 1.5
	assert.Equal(t, StructureTransition, c.Classify(in).Structure, "range expansion alone marks a transition")

	in = baseInput()
	assert.Equal(t, StructureRange, c.Classify(in).Structure)

	in.BarsH1 = upBars(2, 1.10)
	in.Metrics.VolumeRatio = 2.0
	assert.Equal(t, StructureRange, c.Classify(in).Structure, "fewer than three H1 bars degrades to RANGE")
}

func TestClassifier_Volatility(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	cases := []struct {
		name string
		atr  float64
		want Volatility
	}{
		{"high", 0.030, VolatilityHigh}, // 0.030/1.10 ≈ 0.027
		{"low", 0.005, VolatilityLow},   // 0.005/1.10 ≈ 0.0045
		{"normal between", 0.010, VolatilityNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput()
			in.Metrics.ATR = tc.atr
			assert.Equal(t, tc.want, c.Classify(in).Volatility)
		})
	}

	in := baseInput()
	in.BarsH1 = nil
	in.Metrics.ATR = 5.0
	assert.Equal(t, VolatilityNormal, c.Classify(in).Volatility, "no reference price forces NORMAL")
}

func TestClassifier_Liquidity(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	in := baseInput()
	// Latest M15 bar: wide range, tiny body, heavy volume, thin overlap.
	in.BarsM15 = []Bar{
		{Open: 1.10, High: 1.102, Low: 1.098, Close: 1.10, Volume: 900},
		{Open: 1.100, High: 1.105, Low: 1.095, Close: 1.1005, Volume: 3000},
	}
	in.Metrics.VolumeRatio = 1.6
	in.Metrics.SessionOverlap = 0.2
	assert.Equal(t, LiquidityRaid, c.Classify(in).Liquidity)

	in = baseInput()
	// Compressed latest bar on quiet volume during overlap.
	in.BarsM15 = []Bar{
		{Open: 1.10, High: 1.105, Low: 1.095, Close: 1.10, Volume: 900},
		{Open: 1.100, High: 1.101, Low: 1.099, Close: 1.1005, Volume: 400},
	}
	in.Metrics.VolumeRatio = 0.6
	in.Metrics.SessionOverlap = 0.5
	assert.Equal(t, LiquidityBuildup, c.Classify(in).Liquidity)

	in = baseInput()
	in.BarsM15 = in.BarsM15[:1]
	assert.Equal(t, LiquidityClean, c.Classify(in).Liquidity, "fewer than two M15 bars defaults to CLEAN")
}

func TestClassifier_ExecutionHealth(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	in := baseInput()
	in.Telemetry.LastSpread = 35
	assert.Equal(t, ExecutionDegraded, c.Classify(in).Execution, "wide spread degrades OK")

	in.Telemetry.Health = ExecutionBroken
	in.Telemetry.LastSpread = 5
	assert.Equal(t, ExecutionBroken, c.Classify(in).Execution, "BROKEN passes through untouched")
}

func TestClassifier_SeverityAndReason(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	in := baseInput()
	snap := c.Classify(in)
	assert.Equal(t, SeverityInfo, snap.Severity)
	assert.Equal(t, reason.MCLRangeQuiet, snap.Rationale.Code)

	in.Proximity = EventProximityPre
	snap = c.Classify(in)
	assert.Equal(t, SeverityWarn, snap.Severity)
	assert.Equal(t, reason.MCLEventWindow, snap.Rationale.Code, "event proximity outranks everything")

	in = baseInput()
	in.Metrics.ATR = 0.03
	snap = c.Classify(in)
	assert.Equal(t, SeverityWarn, snap.Severity)
	assert.Equal(t, reason.MCLVolatilitySpike, snap.Rationale.Code)

	in = baseInput()
	in.Telemetry.Health = ExecutionBroken
	assert.Equal(t, SeverityError, c.Classify(in).Severity)
}

func TestClassifier_Idempotent(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())
	in := baseInput()
	in.EventID = "evt-1"
	in.CorrelationID = "corr-1"

	first := c.Classify(in)
	second := c.Classify(in)
	assert.Equal(t, first, second, "identical inputs must classify identically")
}

func TestInput_Validate(t *testing.T) {
	in := baseInput()
	require.NoError(t, in.Validate())

	bad := baseInput()
	bad.Metrics.ATR = math.NaN()
	assert.Error(t, bad.Validate(), "NaN metric is a structural error")

	bad = baseInput()
	bad.BarsH1[0].Low = -1
	assert.Error(t, bad.Validate(), "negative price is a structural error")

	bad = baseInput()
	bad.Proximity = "SOON"
	assert.Error(t, bad.Validate(), "unknown enum label is a structural error")

	bad = baseInput()
	bad.BarsM15[0].High = bad.BarsM15[0].Low - 0.01
	assert.Error(t, bad.Validate())

	bad = baseInput()
	bad.Metrics.RefPrice = -1.0
	assert.Error(t, bad.Validate(), "negative reference price is a structural error")
}
