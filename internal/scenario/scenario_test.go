package scenario

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/config"
	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/processor"
	"github.com/lugondev/exchange-booth/internal/runtime"
)

var programID = solana.MustPublicKeyFromBase58(config.DefaultProgramID)

func newRunner(t *testing.T, opts ...Option) (*Runner, *runtime.Runtime) {
	t.Helper()
	rt := runtime.New(ledger.New(), runtime.WithProgram(programID, processor.NewBooth(programID)))
	return NewRunner(rt, programID, opts...), rt
}

func TestScenarioFiles(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			sc, err := Load(file)
			require.NoError(t, err)

			runner, _ := newRunner(t)
			report, err := runner.Run(context.Background(), sc)
			require.NoError(t, err)
			assert.Len(t, report.Steps, len(sc.Steps))
			assert.Len(t, report.Balances, len(sc.Accounts))
		})
	}
}

func TestExchangeEventInReport(t *testing.T) {
	sc, err := Load("testdata/exchange_a_to_b.yaml")
	require.NoError(t, err)

	runner, _ := newRunner(t)
	report, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)

	last := report.Steps[len(report.Steps)-1]
	assert.Equal(t, "sell alpha", last.Label)
	require.NotNil(t, last.Event)
	assert.Equal(t, convert.ToB, last.Event.Direction)
	assert.Equal(t, uint64(1), last.Event.AmountIn)
	assert.Equal(t, uint64(18), last.Event.AmountOut)

	for _, b := range report.Balances {
		if b.Account == "trader-beta" {
			assert.Equal(t, "0.18", b.Amount)
		}
	}
}

func TestCloseRemovesBoothAccounts(t *testing.T) {
	sc, err := Load("testdata/lifecycle.yaml")
	require.NoError(t, err)
	sc.Steps = sc.Steps[:len(sc.Steps)-1]

	runner, rt := newRunner(t)
	_, err = runner.Run(context.Background(), sc)
	require.NoError(t, err)

	addrs, err := runner.Addresses(sc)
	require.NoError(t, err)
	for _, key := range []solana.PublicKey{addrs.Oracle.Address, addrs.Booth.Address, addrs.VaultA.Address, addrs.VaultB.Address} {
		assert.Zero(t, rt.Lamports(key))
	}
}

func TestExpectationMismatch(t *testing.T) {
	sc, err := Load("testdata/exchange_a_to_b.yaml")
	require.NoError(t, err)
	sc.Steps[2].Expect["trader-beta"] = "0.2"

	runner, _ := newRunner(t)
	report, err := runner.Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `balance of "trader-beta" is 0.18, want 0.20`)
	require.NotNil(t, report)
	assert.Len(t, report.Steps, 3)
}

func TestUnexpectedOutcome(t *testing.T) {
	sc, err := Load("testdata/rejections.yaml")
	require.NoError(t, err)

	t.Run("failure not expected", func(t *testing.T) {
		cp := *sc
		cp.Steps = append([]Step(nil), sc.Steps[:1]...)
		cp.Steps[0].ExpectError = ""

		runner, _ := newRunner(t)
		report, err := runner.Run(context.Background(), &cp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected failure")
		assert.Equal(t, "FEE_OVER_MAX", report.Steps[0].Code)
	})

	t.Run("wrong code", func(t *testing.T) {
		cp := *sc
		cp.Steps = append([]Step(nil), sc.Steps[:1]...)
		cp.Steps[0].ExpectError = "INVALID_ACCOUNT_ADDRESS"

		runner, _ := newRunner(t)
		_, err := runner.Run(context.Background(), &cp)
		assert.ErrorContains(t, err, "expected INVALID_ACCOUNT_ADDRESS, got FEE_OVER_MAX")
	})
}

func TestNamespaceReplay(t *testing.T) {
	sc, err := Load("testdata/exchange_a_to_b.yaml")
	require.NoError(t, err)

	rt := runtime.New(ledger.New(), runtime.WithProgram(programID, processor.NewBooth(programID)))
	_, err = NewRunner(rt, programID).Run(context.Background(), sc)
	require.NoError(t, err)

	// The same names map to accounts that already exist.
	_, err = NewRunner(rt, programID).Run(context.Background(), sc)
	assert.Error(t, err)

	_, err = NewRunner(rt, programID, WithNamespace("second")).Run(context.Background(), sc)
	assert.NoError(t, err)
}

func TestParseRejects(t *testing.T) {
	base := `
name: bad
mints: [{name: a, decimals: 0}, {name: b, decimals: 0}]
accounts: [{name: x, owner: w, mint: a}]
booth: {admin: w, mint_a: a, mint_b: b}
`
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"unknown action", "steps: [{action: swap}]", "unknown action"},
		{"unknown account", "steps: [{action: withdraw, to_a: x, to_b: y}]", `unknown account "y"`},
		{"initialize without rate", "steps: [{action: initialize}]", "rate is required"},
		{"exchange without trader", "steps: [{action: exchange, donor_mint: a, from: x, to: x}]", "needs a trader"},
		{"unknown booth mint", "steps: [{action: close, booth: {mint_b: c}, to_a: x, to_b: x}]", "two declared mints"},
		{"bad expectation", "steps: [{action: withdraw, to_a: x, to_b: x, expect: {z: '1'}}]", `unknown account "z"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(base + tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Parse([]byte("name: [unterminated"))
	assert.Error(t, err)

	_, err = Parse([]byte(strings.Replace(base, "{name: b, decimals: 0}", "{name: a, decimals: 0}", 1)))
	assert.ErrorContains(t, err, "duplicate mint")
}
