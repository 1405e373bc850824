package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradecore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPartialOverride(t *testing.T) {
	path := writeConfig(t, `
brains:
  c3:
    full_risk_pct: 0.75
limits:
  max_total_pct: 12.0
monitor:
  loss_streak: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Brains.C3.FullRiskPct)
	assert.Equal(t, 12.0, cfg.Limits.MaxTotalPct)
	assert.Equal(t, 4, cfg.Monitor.LossStreak)

	// Untouched values keep their defaults.
	def := Default()
	assert.Equal(t, def.Brains.C3.ConfirmedVolumeRatio, cfg.Brains.C3.ConfirmedVolumeRatio)
	assert.Equal(t, def.Brains.A2, cfg.Brains.A2)
	assert.Equal(t, def.Limits.MaxSymbolPct, cfg.Limits.MaxSymbolPct)
	assert.Equal(t, def.Classifier, cfg.Classifier)
}

func TestLoadRejectsIncoherentThresholds(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"inverted vol band", "classifier:\n  vol_high_ratio: 0.004\n"},
		{"zero brain risk", "brains:\n  a2:\n    buildup_risk_pct: 0\n"},
		{"raid factor above one", "brains:\n  a2:\n    raid_risk_factor: 1.5\n"},
		{"mode factor zero", "manager:\n  corr_break_factor: 0\n"},
		{"negative total limit", "limits:\n  max_total_pct: -1\n"},
		{"positive critical loss", "monitor:\n  critical_loss_pct: 1.0\n"},
		{"critical not below reduce", "monitor:\n  critical_loss_pct: -1.0\n"},
		{"zero loss streak", "monitor:\n  loss_streak: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "limits: [not a map"))
	assert.Error(t, err)
}
