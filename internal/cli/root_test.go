package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "scc", cmd.Use)
	assert.Contains(t, cmd.Long, "_mc_env.json")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "show", "stats", "batch", "catalog", "sample", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	routingFlag := cmd.PersistentFlags().Lookup("routing")
	require.NotNil(t, routingFlag)
	assert.Equal(t, "all", routingFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestBatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	batchCmd, _, err := cmd.Find([]string{"batch"})
	require.NoError(t, err)

	require.NotNil(t, batchCmd.Flags().Lookup("db"))
	require.NotNil(t, batchCmd.Flags().Lookup("check-only"))
}

func TestSampleCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sampleCmd, _, err := cmd.Find([]string{"sample"})
	require.NoError(t, err)

	outFlag := sampleCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)

	seedFlag := sampleCmd.Flags().Lookup("seed")
	require.NotNil(t, seedFlag)
	assert.Equal(t, "1", seedFlag.DefValue)
}

func TestRootRejectsBadGlobalFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "xml", "show", instancesDir, "scc_01"}, "invalid format"},
		{"routing", []string{"--routing", "some", "show", instancesDir, "scc_01"}, "invalid routing"},
		{"log level", []string{"--log-level", "loud", "show", instancesDir, "scc_01"}, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewRootCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootRoutingFlagReachesCommands(t *testing.T) {
	out, err := execute(t, NewRootCommand(), "--routing", "derived", "show", instancesDir, "scc_02")
	require.NoError(t, err)
	assert.Contains(t, out, "Instance scc_02 (routing derived)")
}
