package main

import (
	"testing"

	"pipwatch/src/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestApplyFlagOverrides_SetsValues(t *testing.T) {
	cfg := baseConfig(t)

	err := applyFlagOverrides(cfg, map[string]bool{"interval": true, "min-rr": true}, 30, 2.5)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.UpdateInterval)
	assert.Equal(t, 2.5, cfg.Thresholds.MinRiskReward)
}

func TestApplyFlagOverrides_UnsetFlagsLeaveConfig(t *testing.T) {
	cfg := baseConfig(t)

	// Parsed-but-unset flags carry their zero values; nothing changes
	err := applyFlagOverrides(cfg, map[string]bool{}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.UpdateInterval)
	assert.Equal(t, 1.5, cfg.Thresholds.MinRiskReward)
}

func TestApplyFlagOverrides_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		set      map[string]bool
		interval float64
		minRR    float64
		wantFlag string
	}{
		{"explicit zero min-rr", map[string]bool{"min-rr": true}, 0, 0, "-min-rr"},
		{"negative min-rr", map[string]bool{"min-rr": true}, 0, -1, "-min-rr"},
		{"zero interval", map[string]bool{"interval": true}, 0, 0, "-interval"},
		{"negative interval", map[string]bool{"interval": true}, -5, 0, "-interval"},
		{"fractional interval", map[string]bool{"interval": true}, 2.5, 0, "-interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			err := applyFlagOverrides(cfg, tt.set, tt.interval, tt.minRR)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantFlag, "the error names the offending flag")
		})
	}
}
