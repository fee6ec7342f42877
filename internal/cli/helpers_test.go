package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCurrencies = `currency: {
	CUNT: {issuer: "cryptounit", precision: 4}
	UNTB: {issuer: "cryptounit", precision: 4}
}
`

// testNow keeps every invocation in May 2024.
const testNow = "2024-05-10T12:00:00Z"

// cliEnv is a scratch database plus currency directory.
type cliEnv struct {
	db         string
	currencies string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	currencies := filepath.Join(dir, "currencies")
	require.NoError(t, os.MkdirAll(currencies, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(currencies, "currencies.cue"), []byte(testCurrencies), 0644))
	return &cliEnv{db: filepath.Join(dir, "limiter.db"), currencies: currencies}
}

// run executes the root command against the environment and returns
// stdout.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db, "--currencies", e.currencies}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run for invocations that must not fail.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}
