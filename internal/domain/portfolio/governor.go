package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/reason"
)

// clip records a resize forced by exposure headroom and which limit
// forced it. A symbol clip after a total clip overwrites it; the tighter
// constraint is the one reported.
type clip struct {
	riskPct float64
	code    reason.Code
}

// governExposure runs the exposure limit arithmetic in fixed order. It
// returns a final deny decision, or (nil, clipped) where clipped is non-nil
// when headroom forced a resize. Checks after a clip see the clipped risk.
func (m *Manager) governExposure(intent brains.Intent, state State, base Decision) (*Decision, *clip) {
	limits := state.Limits
	risk := intent.ProposedRisk
	var clipped *clip

	// Position count.
	if state.Risk.OpenPositions >= limits.MaxPositions {
		return deny(base, reason.PMMaxPositions,
			fmt.Sprintf("open positions %d at limit %d", state.Risk.OpenPositions, limits.MaxPositions)), nil
	}

	// Drawdown circuit breaker.
	if abs(state.Risk.DrawdownPct) >= limits.MaxDrawdownPct {
		return deny(base, reason.PMDrawdownLimit,
			fmt.Sprintf("drawdown %.2f%% at limit %.2f%%", abs(state.Risk.DrawdownPct), limits.MaxDrawdownPct)), nil
	}

	// Daily loss circuit breaker.
	if abs(state.Risk.DailyLossPct) >= limits.MaxDailyLossPct {
		return deny(base, reason.PMDailyLossLimit,
			fmt.Sprintf("daily loss %.2f%% at limit %.2f%%", abs(state.Risk.DailyLossPct), limits.MaxDailyLossPct)), nil
	}

	// Total exposure, clip into headroom when there is enough of it.
	totalHeadroom := limits.MaxTotalPct - state.Risk.TotalExposurePct
	if risk > totalHeadroom {
		if totalHeadroom <= m.config.MinClipHeadroomPct {
			return deny(base, reason.PMExposureLimit,
				fmt.Sprintf("total exposure %.2f%% leaves %.2fpp headroom against %.2f%% limit",
					state.Risk.TotalExposurePct, totalHeadroom, limits.MaxTotalPct)), nil
		}
		risk = floorOneDecimal(totalHeadroom)
		clipped = &clip{riskPct: risk, code: reason.PMExposureClipped}
	}

	// Per-symbol exposure, same clip rule.
	symbolExposure := 0.0
	for _, p := range state.Positions {
		if p.Symbol == intent.Symbol {
			symbolExposure += p.RiskPct
		}
	}
	symbolHeadroom := limits.MaxSymbolPct - symbolExposure
	if risk > symbolHeadroom {
		if symbolHeadroom <= m.config.MinClipHeadroomPct {
			return deny(base, reason.PMSymbolLimit,
				fmt.Sprintf("%s exposure %.2f%% leaves %.2fpp headroom against %.2f%% limit",
					intent.Symbol, symbolExposure, symbolHeadroom, limits.MaxSymbolPct)), nil
		}
		risk = floorOneDecimal(symbolHeadroom)
		clipped = &clip{riskPct: risk, code: reason.PMSymbolClipped}
	}

	// Per-currency exposure is a hard stop; quote legs count half.
	intentBase, intentQuote := splitSymbol(intent.Symbol)
	for _, cur := range []struct {
		name   string
		weight float64
	}{{intentBase, 1.0}, {intentQuote, 0.5}} {
		if cur.name == "" {
			continue
		}
		exposure := currencyExposure(state.Positions, cur.name) + risk*cur.weight
		if exposure > limits.MaxCurrencyPct {
			return deny(base, reason.PMCurrencyLimit,
				fmt.Sprintf("%s exposure %.2f%% over %.2f%% limit", cur.name, exposure, limits.MaxCurrencyPct)), nil
		}
	}

	// Correlated cluster: everything sharing the intent's base currency.
	if intentBase != "" {
		cluster := risk
		for _, p := range state.Positions {
			b, _ := splitSymbol(p.Symbol)
			if b == intentBase {
				cluster += p.RiskPct
			}
		}
		if cluster > limits.MaxClusterPct {
			return deny(base, reason.PMCorrelationBlock,
				fmt.Sprintf("%s cluster exposure %.2f%% over %.2f%% limit", intentBase, cluster, limits.MaxClusterPct)), nil
		}
	}

	return nil, clipped
}

// currencyExposure sums weighted risk across open positions for one
// currency: full weight on the base leg, half on the quote leg.
func currencyExposure(positions []Position, currency string) float64 {
	total := 0.0
	for _, p := range positions {
		b, q := splitSymbol(p.Symbol)
		if b == currency {
			total += p.RiskPct
		}
		if q == currency {
			total += 0.5 * p.RiskPct
		}
	}
	return total
}

// floorOneDecimal rounds a risk percentage down to one decimal place using
// exact decimal arithmetic, so a clip never lands above the headroom it was
// clipped to.
func floorOneDecimal(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundFloor(1).Float64()
	return f
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
