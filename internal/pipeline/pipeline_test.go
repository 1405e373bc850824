package pipeline

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/health"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
	"github.com/quantpulse/tradecore/internal/reason"
)

var testTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return New(
		market.NewClassifier(market.DefaultClassifierConfig()),
		brains.All(brains.DefaultConfig()),
		portfolio.NewManager(portfolio.DefaultManagerConfig()),
		health.NewMonitor(health.DefaultMonitorConfig()),
	)
}

// trendInput classifies as TREND / NORMAL / CLEAN / OK with the correlation
// in the relative-value brain's neutral band, so only the continuation
// brain emits.
func trendInput() market.Input {
	h1 := make([]market.Bar, 3)
	for i := range h1 {
		step := float64(i) * 0.01
		h1[i] = market.Bar{
			Open: 1.10 + step, High: 1.10 + step + 0.015,
			Low: 1.10 + step - 0.005, Close: 1.10 + step + 0.01,
			Volume: 1000,
			Start:  testTime.Add(time.Duration(i-3) * time.Hour),
		}
	}
	m15 := make([]market.Bar, 2)
	for i := range m15 {
		m15[i] = market.Bar{
			Open: 1.12, High: 1.13, Low: 1.11, Close: 1.12,
			Volume: 500,
			Start:  testTime.Add(time.Duration(i-2) * 15 * time.Minute),
		}
	}
	return market.Input{
		Symbol:    "EURUSD",
		Timestamp: testTime,
		BarsH1:    h1,
		BarsM15:   m15,
		Metrics: market.Metrics{
			ATR:            0.010,
			SpreadBps:      8,
			VolumeRatio:    1.4,
			Correlation:    0.5,
			SessionOverlap: 0.6,
			RangeExpansion: 1.0,
			RefPrice:       1.12,
		},
		Session:   "LONDON",
		Proximity: market.EventProximityNone,
		Telemetry: market.Telemetry{Health: market.ExecutionOK, LatencyMs: 40, LastSpread: 8},
	}
}

func normalState() portfolio.State {
	return portfolio.State{
		Risk:   portfolio.RiskState{TotalExposurePct: 2.0, OpenPositions: 1, AvailableRiskPct: 8.0},
		Limits: portfolio.DefaultLimits(),
		Mode:   portfolio.ModeNormal,
	}
}

func makeIDs(n int) []IDs {
	ids := make([]IDs, n)
	for i := range ids {
		ids[i] = IDs{
			EventID:       fmt.Sprintf("evt-%d", i),
			CorrelationID: fmt.Sprintf("corr-%d", i),
		}
	}
	return ids
}

func TestRunCycle_TrendContinuation(t *testing.T) {
	e := testEngine()
	report, err := e.RunCycle(trendInput(), normalState(), makeIDs(9))
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, market.StructureTrend, report.Snapshot.Structure)
	assert.Equal(t, market.VolatilityNormal, report.Snapshot.Volatility)
	assert.Equal(t, market.LiquidityClean, report.Snapshot.Liquidity)
	assert.Equal(t, "evt-0", report.Snapshot.EventID)

	require.Len(t, report.Outcomes, 4)
	byBrain := map[string]BrainOutcome{}
	for _, o := range report.Outcomes {
		byBrain[o.BrainID] = o
	}

	for _, id := range []string{"A2", "B3", "D2"} {
		assert.Nil(t, byBrain[id].Intent, "%s should abstain on a clean trend", id)
		assert.Nil(t, byBrain[id].Decision)
	}

	c3 := byBrain["C3"]
	require.NotNil(t, c3.Intent)
	assert.Equal(t, brains.IntentOpenLong, c3.Intent.Type)
	assert.Equal(t, 1.0, c3.Intent.ProposedRisk)
	assert.Equal(t, "evt-5", c3.Intent.EventID, "third brain consumes the sixth id pair")

	require.NotNil(t, c3.Decision)
	assert.Equal(t, portfolio.VerdictAllow, c3.Decision.Verdict)
	assert.Equal(t, reason.PMApproved, c3.Decision.Rationale.Code)
	assert.Equal(t, "evt-6", c3.Decision.EventID)
}

func TestRunCycle_OrderIsStable(t *testing.T) {
	e := testEngine()
	report, err := e.RunCycle(trendInput(), normalState(), makeIDs(9))
	require.NoError(t, err)

	var order []string
	for _, o := range report.Outcomes {
		order = append(order, o.BrainID)
	}
	assert.Equal(t, []string{"A2", "B3", "C3", "D2"}, order)
}

func TestRunCycle_Deterministic(t *testing.T) {
	e := testEngine()
	first, err := e.RunCycle(trendInput(), normalState(), makeIDs(9))
	require.NoError(t, err)
	second, err := e.RunCycle(trendInput(), normalState(), makeIDs(9))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunCycle_IDShortfall(t *testing.T) {
	e := testEngine()
	_, err := e.RunCycle(trendInput(), normalState(), makeIDs(8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 9 id pairs")
}

func TestRunCycle_RejectsMalformedInput(t *testing.T) {
	e := testEngine()
	in := trendInput()
	in.Metrics.ATR = math.NaN()
	_, err := e.RunCycle(in, normalState(), makeIDs(9))
	assert.Error(t, err)
}

func TestCheckPosition(t *testing.T) {
	e := testEngine()
	report, err := e.RunCycle(trendInput(), normalState(), makeIDs(9))
	require.NoError(t, err)

	pos := health.PositionState{
		Symbol:          "EURUSD",
		BrainID:         "C3",
		Long:            true,
		Entry:           1.1000,
		Current:         1.0640,
		Stop:            1.0900,
		Target:          1.1200,
		UnrealizedPct:   -3.3,
		Duration:        2 * time.Hour,
		MaxFavorablePct: 0.2,
		MaxAdversePct:   3.3,
	}
	a, err := e.CheckPosition(pos, nil, report.Snapshot, testTime, IDs{EventID: "evt-9", CorrelationID: "corr-9"})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, health.ActionExitNow, a.Type)
	assert.Equal(t, reason.EHMCriticalLoss, a.Rationale.Code)
	assert.Equal(t, "evt-9", a.EventID)
}
