// Package config aggregates every stage's thresholds into one yaml-loadable
// document. Defaults are the production values; every load is validated
// before the pipeline sees it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantpulse/tradecore/internal/domain/brains"
	"github.com/quantpulse/tradecore/internal/domain/health"
	"github.com/quantpulse/tradecore/internal/domain/market"
	"github.com/quantpulse/tradecore/internal/domain/portfolio"
)

// Config is the full threshold document for one pipeline instance.
type Config struct {
	Classifier market.ClassifierConfig `yaml:"classifier"`
	Brains     brains.Config           `yaml:"brains"`
	Manager    portfolio.ManagerConfig `yaml:"manager"`
	Limits     portfolio.Limits        `yaml:"limits"`
	Monitor    health.MonitorConfig    `yaml:"monitor"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Classifier: market.DefaultClassifierConfig(),
		Brains:     brains.DefaultConfig(),
		Manager:    portfolio.DefaultManagerConfig(),
		Limits:     portfolio.DefaultLimits(),
		Monitor:    health.DefaultMonitorConfig(),
	}
}

// Load reads a yaml config file over the defaults, so a file may override
// only the thresholds it cares about.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects threshold documents that cannot govern risk coherently.
func (c Config) Validate() error {
	if c.Classifier.VolHighRatio <= c.Classifier.VolLowRatio {
		return fmt.Errorf("classifier: vol_high_ratio %.4f must exceed vol_low_ratio %.4f",
			c.Classifier.VolHighRatio, c.Classifier.VolLowRatio)
	}
	if c.Classifier.StructureBarsH1 < 2 {
		return fmt.Errorf("classifier: structure_bars_h1 %d below minimum 2", c.Classifier.StructureBarsH1)
	}
	if c.Classifier.DegradedSpreadBps <= 0 {
		return fmt.Errorf("classifier: degraded_spread_bps must be positive")
	}

	for _, b := range []struct {
		name          string
		risk, stop    float64
		target, minRR float64
	}{
		{"a2", c.Brains.A2.BuildupRiskPct, c.Brains.A2.StopATR, c.Brains.A2.TargetATR, c.Brains.A2.MinRewardRisk},
		{"b3", c.Brains.B3.SpreadRiskPct, c.Brains.B3.StopATR, c.Brains.B3.TargetATR, c.Brains.B3.MinRewardRisk},
		{"c3", c.Brains.C3.FullRiskPct, c.Brains.C3.StopATR, c.Brains.C3.TargetATR, c.Brains.C3.MinRewardRisk},
		{"d2", c.Brains.D2.FollowRiskPct, c.Brains.D2.StopATR, c.Brains.D2.TargetATR, c.Brains.D2.MinRewardRisk},
	} {
		if b.risk <= 0 {
			return fmt.Errorf("brains.%s: risk must be positive", b.name)
		}
		if b.stop <= 0 || b.target <= 0 {
			return fmt.Errorf("brains.%s: stop/target ATR multiples must be positive", b.name)
		}
		if b.minRR <= 0 {
			return fmt.Errorf("brains.%s: min_reward_risk must be positive", b.name)
		}
	}
	if f := c.Brains.A2.RaidRiskFactor; f <= 0 || f > 1 {
		return fmt.Errorf("brains.a2: raid_risk_factor %.2f outside (0, 1]", f)
	}

	for _, f := range []struct {
		name string
		val  float64
	}{
		{"event_cluster_factor", c.Manager.EventClusterFactor},
		{"corr_break_factor", c.Manager.CorrBreakFactor},
		{"flow_paying_factor", c.Manager.FlowPayingFactor},
	} {
		if f.val <= 0 || f.val > 1 {
			return fmt.Errorf("manager: %s %.2f outside (0, 1]", f.name, f.val)
		}
	}
	if c.Manager.MinClipHeadroomPct < 0 {
		return fmt.Errorf("manager: min_clip_headroom_pct cannot be negative")
	}

	if c.Limits.MaxTotalPct <= 0 || c.Limits.MaxSymbolPct <= 0 ||
		c.Limits.MaxCurrencyPct <= 0 || c.Limits.MaxClusterPct <= 0 {
		return fmt.Errorf("limits: exposure limits must be positive")
	}
	if c.Limits.MaxPositions <= 0 {
		return fmt.Errorf("limits: max_positions must be positive")
	}
	if c.Limits.MaxDrawdownPct <= 0 || c.Limits.MaxDailyLossPct <= 0 {
		return fmt.Errorf("limits: loss limits must be positive")
	}

	if c.Monitor.CriticalLossPct >= 0 || c.Monitor.ReducePct >= 0 {
		return fmt.Errorf("monitor: loss thresholds must be negative")
	}
	if c.Monitor.CriticalLossPct >= c.Monitor.ReducePct {
		return fmt.Errorf("monitor: critical_loss_pct %.2f must be below reduce_pct %.2f",
			c.Monitor.CriticalLossPct, c.Monitor.ReducePct)
	}
	if c.Monitor.LossStreak < 1 {
		return fmt.Errorf("monitor: loss_streak must be at least 1")
	}
	if c.Monitor.CooldownDuration <= 0 {
		return fmt.Errorf("monitor: cooldown_duration must be positive")
	}
	return nil
}
