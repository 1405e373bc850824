// Package portfolio authorizes trade intents against account-wide risk
// state. One intent in, exactly one decision out.
package portfolio

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/market"
)

// Mode is the system-wide risk posture, set externally.
type Mode string

const (
	ModeNormal       Mode = "NORMAL"
	ModeRiskOff      Mode = "RISK_OFF"
	ModeEventCluster Mode = "EVENT_CLUSTER"
	ModeCorrBreak    Mode = "CORR_BREAK"
	ModeFlowPaying   Mode = "FLOW_PAYING"
)

// CooldownScope narrows what a cooldown suppresses.
type CooldownScope string

const (
	ScopeBrain  CooldownScope = "BRAIN"
	ScopeSymbol CooldownScope = "SYMBOL"
	ScopeGlobal CooldownScope = "GLOBAL"
)

// Cooldown is a timed suppression of new intents.
type Cooldown struct {
	Scope  CooldownScope `json:"scope"`
	Target string        `json:"target"` // brain id or symbol; empty for GLOBAL
	Expiry time.Time     `json:"expiry"`
}

// Covers reports whether the cooldown suppresses the given brain/symbol at
// the given instant.
func (c Cooldown) Covers(brainID, symbol string, at time.Time) bool {
	if !c.Expiry.After(at) {
		return false
	}
	switch c.Scope {
	case ScopeGlobal:
		return true
	case ScopeBrain:
		return c.Target == brainID
	case ScopeSymbol:
		return c.Target == symbol
	default:
		return false
	}
}

// Position is one open trade as the portfolio sees it.
type Position struct {
	Symbol  string  `json:"symbol"`
	BrainID string  `json:"brain_id"`
	Long    bool    `json:"long"`
	RiskPct float64 `json:"risk_pct"`
	Entry   float64 `json:"entry"`
	Current float64 `json:"current"`
}

// RiskState is the account-level risk picture, computed externally and
// echoed back unchanged on every decision.
type RiskState struct {
	DrawdownPct      float64 `json:"drawdown_pct"`
	TotalExposurePct float64 `json:"total_exposure_pct"`
	OpenPositions    int     `json:"open_positions"`
	DailyLossPct     float64 `json:"daily_loss_pct"`
	AvailableRiskPct float64 `json:"available_risk_pct"`
}

// Limits are the configured hard risk bounds.
type Limits struct {
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	MaxTotalPct     float64 `yaml:"max_total_pct" json:"max_total_pct"`
	MaxSymbolPct    float64 `yaml:"max_symbol_pct" json:"max_symbol_pct"`
	MaxCurrencyPct  float64 `yaml:"max_currency_pct" json:"max_currency_pct"`
	MaxClusterPct   float64 `yaml:"max_cluster_pct" json:"max_cluster_pct"`
	MaxPositions    int     `yaml:"max_positions" json:"max_positions"`
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct" json:"max_daily_loss_pct"`
}

// DefaultLimits returns the production risk bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxDrawdownPct:  10.0,
		MaxTotalPct:     10.0,
		MaxSymbolPct:    4.0,
		MaxCurrencyPct:  6.0,
		MaxClusterPct:   5.0,
		MaxPositions:    6,
		MaxDailyLossPct: 3.0,
	}
}

// State is the externally owned portfolio state, passed by value. The
// manager never mutates it.
type State struct {
	Risk      RiskState  `json:"risk"`
	Positions []Position `json:"positions"`
	Limits    Limits     `json:"limits"`
	Mode      Mode       `json:"mode"`
	Cooldowns []Cooldown `json:"cooldowns"`
}

// Validate rejects structurally malformed state at the boundary.
func (s State) Validate() error {
	switch s.Mode {
	case ModeNormal, ModeRiskOff, ModeEventCluster, ModeCorrBreak, ModeFlowPaying:
	default:
		return fmt.Errorf("portfolio state: unknown mode %q", s.Mode)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"drawdown_pct", s.Risk.DrawdownPct},
		{"total_exposure_pct", s.Risk.TotalExposurePct},
		{"daily_loss_pct", s.Risk.DailyLossPct},
		{"available_risk_pct", s.Risk.AvailableRiskPct},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("portfolio state: %s is not finite", v.name)
		}
	}
	for i, p := range s.Positions {
		if p.Symbol == "" || p.BrainID == "" {
			return fmt.Errorf("portfolio state: position %d missing symbol or brain", i)
		}
		if p.RiskPct < 0 || math.IsNaN(p.RiskPct) || math.IsInf(p.RiskPct, 0) {
			return fmt.Errorf("portfolio state: position %d has invalid risk %.4f", i, p.RiskPct)
		}
	}
	for i, c := range s.Cooldowns {
		switch c.Scope {
		case ScopeBrain, ScopeSymbol, ScopeGlobal:
		default:
			return fmt.Errorf("portfolio state: cooldown %d has unknown scope %q", i, c.Scope)
		}
	}
	return nil
}

// find returns the open position matching symbol and brain, if any.
func (s State) find(symbol, brainID string) (Position, bool) {
	for _, p := range s.Positions {
		if p.Symbol == symbol && p.BrainID == brainID {
			return p, true
		}
	}
	return Position{}, false
}

// Verdict is the authorization outcome.
type Verdict string

const (
	VerdictAllow  Verdict = "ALLOW"
	VerdictDeny   Verdict = "DENY"
	VerdictModify Verdict = "MODIFY"
	VerdictQueue  Verdict = "QUEUE"
)

// RiskAdjustment records a resize applied by the governor or a mode
// multiplier.
type RiskAdjustment struct {
	OriginalPct float64 `json:"original_pct"`
	AdjustedPct float64 `json:"adjusted_pct"`
	Reason      string  `json:"reason"`
}

// Decision is the manager's verdict on one intent.
type Decision struct {
	Symbol        string            `json:"symbol"`
	BrainID       string            `json:"brain_id"`
	IntentType    brains.IntentType `json:"intent_type"`
	Verdict       Verdict           `json:"verdict"`
	Adjustment    *RiskAdjustment   `json:"adjustment,omitempty"`
	Risk          RiskState         `json:"risk"`
	Rationale     market.Rationale  `json:"rationale"`
	EventID       string            `json:"event_id"`
	CorrelationID string            `json:"correlation_id"`
	Timestamp     time.Time         `json:"timestamp"`
}

// splitSymbol breaks an FX-style symbol into base and quote currencies.
// Accepts "EURUSD", "EUR/USD", "EUR-USD". Symbols that do not look like a
// pair return the whole symbol as base with an empty quote.
func splitSymbol(symbol string) (base, quote string) {
	for _, sep := range []string{"/", "-", "_"} {
		if i := strings.Index(symbol, sep); i > 0 {
			return symbol[:i], symbol[i+len(sep):]
		}
	}
	if len(symbol) == 6 {
		return symbol[:3], symbol[3:]
	}
	return symbol, ""
}
