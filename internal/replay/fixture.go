// Package replay drives the pipeline from a recorded day file. It owns
// everything the pure core refuses to do: reading files, generating ids,
// logging, and counting. Timestamps always come from the fixture, never
// from the wall clock, so a rerun reproduces the original decisions.
package replay

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantpulse/tradecore/internal/domain/health"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
)

// Fixture is one replay day: the portfolio state as of the first cycle,
// the per-symbol cycle inputs in order, and the open positions to health
// check after the cycles ran.
type Fixture struct {
	Portfolio PortfolioDoc `yaml:"portfolio"`
	Cycles    []CycleDoc   `yaml:"cycles"`
	Positions []MonitorDoc `yaml:"positions"`
}

// PortfolioDoc mirrors portfolio.State for yaml decoding.
type PortfolioDoc struct {
	Risk struct {
		DrawdownPct      float64 `yaml:"drawdown_pct"`
		TotalExposurePct float64 `yaml:"total_exposure_pct"`
		OpenPositions    int     `yaml:"open_positions"`
		DailyLossPct     float64 `yaml:"daily_loss_pct"`
		AvailableRiskPct float64 `yaml:"available_risk_pct"`
	} `yaml:"risk"`
	Positions []struct {
		Symbol  string  `yaml:"symbol"`
		BrainID string  `yaml:"brain_id"`
		Long    bool    `yaml:"long"`
		RiskPct float64 `yaml:"risk_pct"`
		Entry   float64 `yaml:"entry"`
		Current float64 `yaml:"current"`
	} `yaml:"open_positions"`
	Mode      string `yaml:"mode"`
	Cooldowns []struct {
		Scope  string    `yaml:"scope"`
		Target string    `yaml:"target"`
		Expiry time.Time `yaml:"expiry"`
	} `yaml:"cooldowns"`
}

// BarDoc mirrors market.Bar.
type BarDoc struct {
	Open   float64   `yaml:"open"`
	High   float64   `yaml:"high"`
	Low    float64   `yaml:"low"`
	Close  float64   `yaml:"close"`
	Volume float64   `yaml:"volume"`
	Start  time.Time `yaml:"start"`
}

// CycleDoc is one classification cycle's raw inputs.
type CycleDoc struct {
	Symbol    string    `yaml:"symbol"`
	Timestamp time.Time `yaml:"timestamp"`
	Session   string    `yaml:"session"`
	Proximity string    `yaml:"event_proximity"`
	BarsH1    []BarDoc  `yaml:"bars_h1"`
	BarsM15   []BarDoc  `yaml:"bars_m15"`
	Metrics   struct {
		ATR            float64 `yaml:"atr"`
		SpreadBps      float64 `yaml:"spread_bps"`
		VolumeRatio    float64 `yaml:"volume_ratio"`
		Correlation    float64 `yaml:"correlation"`
		SessionOverlap float64 `yaml:"session_overlap"`
		RangeExpansion float64 `yaml:"range_expansion"`
		RefPrice       float64 `yaml:"ref_price"`
	} `yaml:"metrics"`
	Telemetry struct {
		Health       string  `yaml:"health"`
		LatencyMs    float64 `yaml:"latency_ms"`
		LastSpread   float64 `yaml:"last_spread_bps"`
		LastSlippage float64 `yaml:"last_slippage_bps"`
	} `yaml:"telemetry"`
}

// MonitorDoc is one open position plus its brain's recent closed trades.
type MonitorDoc struct {
	Symbol          string    `yaml:"symbol"`
	BrainID         string    `yaml:"brain_id"`
	Long            bool      `yaml:"long"`
	Entry           float64   `yaml:"entry"`
	Current         float64   `yaml:"current"`
	Stop            float64   `yaml:"stop"`
	Target          float64   `yaml:"target"`
	UnrealizedPct   float64   `yaml:"unrealized_pct"`
	DurationMinutes float64   `yaml:"duration_minutes"`
	MaxFavorablePct float64   `yaml:"max_favorable_pct"`
	MaxAdversePct   float64   `yaml:"max_adverse_pct"`
	Timestamp       time.Time `yaml:"timestamp"`
	History         []struct {
		BrainID  string    `yaml:"brain_id"`
		Symbol   string    `yaml:"symbol"`
		PnLPct   float64   `yaml:"pnl_pct"`
		ClosedAt time.Time `yaml:"closed_at"`
	} `yaml:"history"`
}

// LoadFixture reads and shape-checks a replay day file. Structural problems
// fail fast here; the pure core never sees them.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("replay: parse %s: %w", path, err)
	}
	if len(f.Cycles) == 0 && len(f.Positions) == 0 {
		return nil, fmt.Errorf("replay: %s has no cycles and no positions", path)
	}
	state := f.State()
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("replay: %s: %w", path, err)
	}
	for i, c := range f.Cycles {
		if err := c.Input().Validate(); err != nil {
			return nil, fmt.Errorf("replay: %s cycle %d: %w", path, i, err)
		}
	}
	for i, p := range f.Positions {
		if err := p.Position().Validate(); err != nil {
			return nil, fmt.Errorf("replay: %s position %d: %w", path, i, err)
		}
		if p.Timestamp.IsZero() {
			return nil, fmt.Errorf("replay: %s position %d: timestamp is zero", path, i)
		}
	}
	return &f, nil
}

// State converts the portfolio document into the domain type.
func (f *Fixture) State() portfolio.State {
	doc := f.Portfolio
	state := portfolio.State{
		Risk: portfolio.RiskState{
			DrawdownPct:      doc.Risk.DrawdownPct,
			TotalExposurePct: doc.Risk.TotalExposurePct,
			OpenPositions:    doc.Risk.OpenPositions,
			DailyLossPct:     doc.Risk.DailyLossPct,
			AvailableRiskPct: doc.Risk.AvailableRiskPct,
		},
		Limits: portfolio.DefaultLimits(),
		Mode:   portfolio.Mode(doc.Mode),
	}
	if doc.Mode == "" {
		state.Mode = portfolio.ModeNormal
	}
	for _, p := range doc.Positions {
		state.Positions = append(state.Positions, portfolio.Position{
			Symbol: p.Symbol, BrainID: p.BrainID, Long: p.Long,
			RiskPct: p.RiskPct, Entry: p.Entry, Current: p.Current,
		})
	}
	for _, c := range doc.Cooldowns {
		state.Cooldowns = append(state.Cooldowns, portfolio.Cooldown{
			Scope: portfolio.CooldownScope(c.Scope), Target: c.Target, Expiry: c.Expiry,
		})
	}
	return state
}

// Input converts one cycle document into classifier input. Ids are left
// empty; the runner injects them.
func (c CycleDoc) Input() market.Input {
	in := market.Input{
		Symbol:    c.Symbol,
		Timestamp: c.Timestamp,
		Session:   c.Session,
		Proximity: market.EventProximity(c.Proximity),
		Metrics: market.Metrics{
			ATR:            c.Metrics.ATR,
			SpreadBps:      c.Metrics.SpreadBps,
			VolumeRatio:    c.Metrics.VolumeRatio,
			Correlation:    c.Metrics.Correlation,
			SessionOverlap: c.Metrics.SessionOverlap,
			RangeExpansion: c.Metrics.RangeExpansion,
			RefPrice:       c.Metrics.RefPrice,
		},
		Telemetry: market.Telemetry{
			Health:       market.ExecutionHealth(c.Telemetry.Health),
			LatencyMs:    c.Telemetry.LatencyMs,
			LastSpread:   c.Telemetry.LastSpread,
			LastSlippage: c.Telemetry.LastSlippage,
		},
	}
	for _, b := range c.BarsH1 {
		in.BarsH1 = append(in.BarsH1, market.Bar(b))
	}
	for _, b := range c.BarsM15 {
		in.BarsM15 = append(in.BarsM15, market.Bar(b))
	}
	return in
}

// Position converts one monitor document into the domain position state.
func (m MonitorDoc) Position() health.PositionState {
	return health.PositionState{
		Symbol:          m.Symbol,
		BrainID:         m.BrainID,
		Long:            m.Long,
		Entry:           m.Entry,
		Current:         m.Current,
		Stop:            m.Stop,
		Target:          m.Target,
		UnrealizedPct:   m.UnrealizedPct,
		Duration:        time.Duration(m.DurationMinutes * float64(time.Minute)),
		MaxFavorablePct: m.MaxFavorablePct,
		MaxAdversePct:   m.MaxAdversePct,
	}
}

// History converts the closed-trade list, preserving most-recent-last order.
func (m MonitorDoc) HistoryResults() []health.TradeResult {
	var out []health.TradeResult
	for _, h := range m.History {
		out = append(out, health.TradeResult{
			BrainID: h.BrainID, Symbol: h.Symbol, PnLPct: h.PnLPct, ClosedAt: h.ClosedAt,
		})
	}
	return out
}
