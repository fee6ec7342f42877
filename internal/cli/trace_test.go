package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CryptoUnit-blockchain/limiter/internal/model"
	"github.com/CryptoUnit-blockchain/limiter/internal/store"
)

func traceEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := newCLIEnv(t)
	env.mustRun(t, "invoke", "set_lock", "--args", `{"account":"dan","note":"collections"}`, "--as", "debtadmin", "--now", testNow)
	_, err := env.run(t, "decide", "dan", "tom", "1.0000 CUNT", "--now", testNow)
	require.Error(t, err)
	env.mustRun(t, "decide", "alice", "bob", "1.0000 CUNT", "--now", testNow)
	return env
}

func TestTrace_Text(t *testing.T) {
	env := traceEnv(t)

	out := env.mustRun(t, "trace")
	assert.Contains(t, out, "=== Timeline ===")
	assert.Contains(t, out, "[1] 2024-05-10T12:00:00Z set_lock {account=dan, note=collections} -> committed (locked dan)")
	assert.Contains(t, out, "[2] 2024-05-10T12:00:00Z decide {amount=1.0000 CUNT, from=dan, memo=\"\", to=tom} -> rejected (POLICY_VIOLATION: account is locked)")
	assert.Contains(t, out, "[3] 2024-05-10T12:00:00Z decide")
	assert.Contains(t, out, "Total Events: 3")
	assert.Contains(t, out, "Committed:    1")
	assert.Contains(t, out, "Allowed:      1")
	assert.Contains(t, out, "Rejected:     1")
	assert.NotContains(t, out, "Token:")
}

func TestTrace_Verbose(t *testing.T) {
	env := traceEnv(t)

	out := env.mustRun(t, "trace", "-v", "--limit", "1")
	assert.Contains(t, out, "As: debtadmin")
	assert.Contains(t, out, "Token:")
	assert.Contains(t, out, "Total Events: 1")
}

func TestTrace_JSON(t *testing.T) {
	env := traceEnv(t)

	out := env.mustRun(t, "--format", "json", "trace", "--op", "decide", "--status", "rejected")

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Timeline, 1)

	ev := resp.Data.Timeline[0]
	assert.Equal(t, int64(2), ev.Seq)
	assert.Equal(t, "decide", ev.Op)
	assert.Equal(t, []string{"eosio.token"}, ev.Signers)
	assert.Equal(t, "POLICY_VIOLATION", ev.Code)
	assert.Equal(t, "account is locked", ev.Reason)
	assert.Equal(t, "dan", ev.Args["from"])
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), ev.Now)
	assert.Equal(t, model.EngineVersion, ev.EngineVersion)
	assert.Equal(t, TraceStats{TotalEvents: 1, Rejected: 1}, resp.Data.Stats)
}

func TestTrace_After(t *testing.T) {
	env := traceEnv(t)

	out := env.mustRun(t, "trace", "--after", "2")
	assert.NotContains(t, out, "[1]")
	assert.NotContains(t, out, "[2]")
	assert.Contains(t, out, "[3]")
}

func TestTrace_ByID(t *testing.T) {
	env := traceEnv(t)

	st, err := store.Open(env.db)
	require.NoError(t, err)
	entries, err := st.ReadJournal(t.Context(), 0, 1)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, entries, 1)

	out := env.mustRun(t, "trace", "--id", entries[0].ID)
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "Total Events: 1")

	_, err = env.run(t, "trace", "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrace_Empty(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "trace")
	assert.Contains(t, out, "(no events)")
	assert.Contains(t, out, "Total Events: 0")
}

func TestTrace_InvalidOp(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "trace", "--op", "freeze")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFormatArgs(t *testing.T) {
	args := map[string]any{
		"to":    "bob",
		"count": json.Number("50"),
		"memo":  "",
		"list":  []any{"a", "b"},
	}
	assert.Equal(t, `{count=50, list=[a, b], memo="", to=bob}`, formatArgs(args))
	assert.Equal(t, "{}", formatArgs(nil))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
