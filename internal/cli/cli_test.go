package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCLIRegistersSubcommands(t *testing.T) {
	root := BuildCLI()
	require.NotNil(t, root)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["demo"])
	assert.True(t, names["status"])
}

func TestStatusWithoutRunningSchedulerDoesNotError(t *testing.T) {
	assert.NoError(t, showStatus())
}
