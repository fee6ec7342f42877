package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoUnit-blockchain/limiter/internal/calendar"
	"github.com/CryptoUnit-blockchain/limiter/internal/engine"
)

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := loadConfig(&RootOptions{Database: "/tmp/x.db", Currencies: "/etc/limiter/currencies"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "/etc/limiter/currencies", cfg.Currencies.Dir)
}

func TestRolesAndPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
roles:
  administrator: collector
policy:
  period: hour
  operator_may_decide: true
`), 0644))

	cfg, err := loadConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)

	r := roles(cfg)
	assert.Equal(t, engine.Roles{Operator: "limiter", Administrator: "collector", TransferAuthority: "eosio.token"}, r)

	p := policy(cfg)
	assert.Equal(t, engine.Policy{ReservedCurrency: "UNTB", Period: calendar.PeriodHour, OperatorMayDecide: true}, p)
}

func TestConfiguredRolesReachEngine(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "limiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  administrator: collector\n"), 0644))

	out := env.mustRun(t, "--config", path, "invoke", "set_lock", "--args", `{"account":"dan","note":"x"}`, "--as", "collector")
	assert.Contains(t, out, "committed: locked dan")

	_, err := env.run(t, "--config", path, "invoke", "clear_lock", "--args", `{"account":"dan"}`, "--as", "debtadmin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing authority either of collector or limiter")
}

func TestOpenApp_BadNotifyURL(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "limiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notify:\n  url: \"not-a-url\"\n"), 0644))

	_, err := env.run(t, "--config", path, "show", "locks")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to connect notifier")
}
