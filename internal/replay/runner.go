package replay

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantpulse/tradecore/internal/config"
	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/health"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
	"github.com/quantpulse/tradecore/internal/metrics"
	"github.com/quantpulse/tradecore/internal/pipeline"
)

// IDSource yields the next event/correlation id pair. The CLI plugs in
// uuids; tests plug in a counter so runs stay comparable.
type IDSource func() (eventID, correlationID string)

// Runner replays one fixture through the pipeline.
type Runner struct {
	engine  *pipeline.Engine
	brainN  int
	nextID  IDSource
	log     zerolog.Logger
	metrics *metrics.Set
}

// NewRunner wires a runner from a validated config.
func NewRunner(cfg config.Config, nextID IDSource, log zerolog.Logger, set *metrics.Set) *Runner {
	brainSet := brains.All(cfg.Brains)
	engine := pipeline.New(
		market.NewClassifier(cfg.Classifier),
		brainSet,
		portfolio.NewManager(cfg.Manager),
		health.NewMonitor(cfg.Monitor),
	)
	return &Runner{
		engine:  engine,
		brainN:  len(brainSet),
		nextID:  nextID,
		log:     log,
		metrics: set,
	}
}

// Result is everything one replay produced, in input order.
type Result struct {
	Reports []*pipeline.CycleReport
	Actions []*health.Action
}

// Run replays every cycle and then health-checks every listed position
// against the most recent snapshot for its symbol. The portfolio state is
// read-only throughout; persisting decisions between cycles belongs to the
// live orchestrator, not the replay harness.
func (r *Runner) Run(f *Fixture, limits portfolio.Limits) (*Result, error) {
	state := f.State()
	state.Limits = limits

	result := &Result{}
	latest := map[string]market.Snapshot{}

	for i, doc := range f.Cycles {
		ids := make([]pipeline.IDs, 0, 1+2*r.brainN)
		for n := 0; n < 1+2*r.brainN; n++ {
			e, c := r.nextID()
			ids = append(ids, pipeline.IDs{EventID: e, CorrelationID: c})
		}
		report, err := r.engine.RunCycle(doc.Input(), state, ids)
		if err != nil {
			return nil, fmt.Errorf("replay: cycle %d: %w", i, err)
		}
		latest[report.Snapshot.Symbol] = report.Snapshot
		r.metrics.CountSnapshot(string(report.Snapshot.Severity))

		r.log.Info().
			Str("symbol", report.Snapshot.Symbol).
			Str("structure", string(report.Snapshot.Structure)).
			Str("volatility", string(report.Snapshot.Volatility)).
			Str("liquidity", string(report.Snapshot.Liquidity)).
			Str("execution", string(report.Snapshot.Execution)).
			Str("code", report.Snapshot.Rationale.Code.String()).
			Msg("snapshot")

		for _, out := range report.Outcomes {
			if out.Intent == nil {
				continue
			}
			r.metrics.CountIntent(out.BrainID)
			ev := r.log.Info().
				Str("symbol", out.Intent.Symbol).
				Str("brain", out.BrainID).
				Str("type", string(out.Intent.Type)).
				Float64("risk_pct", out.Intent.ProposedRisk)
			if out.Decision != nil {
				r.metrics.CountDecision(string(out.Decision.Verdict))
				ev = ev.Str("verdict", string(out.Decision.Verdict)).
					Str("code", out.Decision.Rationale.Code.String())
				if out.Decision.Adjustment != nil {
					ev = ev.Float64("adjusted_pct", out.Decision.Adjustment.AdjustedPct)
				}
			}
			ev.Msg("intent")
		}
		result.Reports = append(result.Reports, report)
	}

	for i, doc := range f.Positions {
		snap, ok := latest[doc.Symbol]
		if !ok {
			return nil, fmt.Errorf("replay: position %d references %s with no classified cycle", i, doc.Symbol)
		}
		e, c := r.nextID()
		action, err := r.engine.CheckPosition(doc.Position(), doc.HistoryResults(), snap,
			doc.Timestamp, pipeline.IDs{EventID: e, CorrelationID: c})
		if err != nil {
			return nil, fmt.Errorf("replay: position %d: %w", i, err)
		}
		if action == nil {
			r.log.Info().Str("symbol", doc.Symbol).Str("brain", doc.BrainID).Msg("position healthy")
			continue
		}
		r.metrics.CountAction(string(action.Type))
		ev := r.log.Warn().
			Str("symbol", action.Symbol).
			Str("brain", action.BrainID).
			Str("action", string(action.Type)).
			Str("code", action.Rationale.Code.String())
		if action.Cooldown != nil {
			ev = ev.Str("cooldown_scope", string(action.Cooldown.Scope)).
				Time("cooldown_expiry", action.Cooldown.Expiry)
		}
		ev.Msg("health action")
		result.Actions = append(result.Actions, action)
	}

	return result, nil
}
