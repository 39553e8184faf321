package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, 1000, c.VLPool.StepBudget)
	assert.Equal(t, time.Millisecond, c.Clock.AlarmPrecision)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, 9090, c.Metrics.Port)
	assert.False(t, c.CheckInvariants, "off by default; it's an opt-in debugging cost")
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.yaml")
	contents := `
vlpool:
  step_budget: 250
metrics:
  enabled: false
  port: 9999
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, c.VLPool.StepBudget)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, 9999, c.Metrics.Port)
	// untouched default still applies
	assert.Equal(t, time.Millisecond, c.Clock.AlarmPrecision)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}
