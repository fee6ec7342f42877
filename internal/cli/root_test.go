package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "limiter", cmd.Use)
	assert.Contains(t, cmd.Long, "journals")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"invoke", "decide", "show", "trace", "replay", "test"}

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

	for _, name := range []string{"config", "db", "currencies"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestInvokeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	invokeCmd, _, err := cmd.Find([]string{"invoke"})
	require.NoError(t, err)

	argsFlag := invokeCmd.Flags().Lookup("args")
	require.NotNil(t, argsFlag)
	assert.Equal(t, "{}", argsFlag.DefValue)
	assert.NotNil(t, invokeCmd.Flags().Lookup("as"))
	assert.NotNil(t, invokeCmd.Flags().Lookup("now"))
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "show", "locks", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingConfigFile(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "--config", "/nonexistent/limiter.yaml", "show", "locks")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
