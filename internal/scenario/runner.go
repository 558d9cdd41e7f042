package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/amount"
	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/processor"
	"github.com/lugondev/exchange-booth/internal/runtime"
	"github.com/lugondev/exchange-booth/internal/wallet"
	"github.com/lugondev/exchange-booth/pkg/log"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// DefaultMintAuthority is the wallet that issues mints without an explicit authority.
const DefaultMintAuthority = "mint-authority"

// StepResult is the outcome of one step.
type StepResult struct {
	Label   string
	Action  string
	Receipt *runtime.Receipt
	Code    string
	Event   *processor.ExchangeEvent
}

// Balance is the final token balance of a declared account.
type Balance struct {
	Account string
	Mint    string
	Owner   string
	Address types.Pubkey
	Amount  string
}

// Report is what a run produced.
type Report struct {
	Name     string
	Steps    []StepResult
	Balances []Balance
}

// Runner executes scenarios through a runtime that has the booth registered.
type Runner struct {
	common.LoggerMixin

	rt        *runtime.Runtime
	programID types.Pubkey
	keys      *wallet.Keyring
	namespace string
	parser    *log.LogParser
}

// Option configures a Runner.
type Option func(*Runner)

// WithNamespace prefixes every derived key, so the same scenario can be
// replayed onto a ledger that already holds an earlier run.
func WithNamespace(ns string) Option {
	return func(r *Runner) { r.namespace = ns }
}

// WithKeyring supplies the keyring wallets are taken from.
func WithKeyring(k *wallet.Keyring) Option {
	return func(r *Runner) { r.keys = k }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.SetLogger(logger) }
}

// NewRunner creates a runner for the booth deployed at programID.
func NewRunner(rt *runtime.Runtime, programID types.Pubkey, opts ...Option) *Runner {
	r := &Runner{
		LoggerMixin: common.NewLoggerMixin(),
		rt:          rt,
		programID:   programID,
		keys:        wallet.NewKeyring(),
		parser:      log.NewParser(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run carries the state of one scenario execution.
type run struct {
	*Runner
	sc       *Scenario
	ns       string
	decimals map[string]uint8
	mintOf   map[string]string
}

func (r *Runner) key(ns, kind, name string) *wallet.Wallet {
	return r.keys.Get(ns + "/" + kind + "/" + name)
}

func (x *run) wallet(name string) *wallet.Wallet     { return x.key(x.ns, "wallet", name) }
func (x *run) mint(name string) types.Pubkey         { return x.key(x.ns, "mint", name).PublicKey() }
func (x *run) tokenAccount(name string) types.Pubkey { return x.key(x.ns, "account", name).PublicKey() }

// Run sets up the scenario's state and executes its steps in order. It
// stops at the first step whose outcome differs from its expectations and
// returns the report so far together with the mismatch.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	x := &run{
		Runner:   r,
		sc:       sc,
		ns:       r.namespace,
		decimals: make(map[string]uint8, len(sc.Mints)),
		mintOf:   make(map[string]string, len(sc.Accounts)),
	}
	if x.ns == "" {
		x.ns = sc.Name
	}
	for _, m := range sc.Mints {
		x.decimals[m.Name] = m.Decimals
	}
	for _, a := range sc.Accounts {
		x.mintOf[a.Name] = a.Mint
	}

	if err := x.genesis(ctx); err != nil {
		return nil, fmt.Errorf("scenario %q setup: %w", sc.Name, err)
	}

	report := &Report{Name: sc.Name}
	for i := range sc.Steps {
		step := &sc.Steps[i]
		result, err := x.step(ctx, i, step)
		if result != nil {
			report.Steps = append(report.Steps, *result)
		}
		if err != nil {
			report.Balances = x.balances()
			return report, fmt.Errorf("scenario %q step %s: %w", sc.Name, step.Label(i), err)
		}
	}
	report.Balances = x.balances()

	r.GetLogger().Info("scenario complete", "scenario", sc.Name, "steps", len(report.Steps))
	return report, nil
}

func (x *run) genesis(ctx context.Context) error {
	for _, w := range x.sc.Wallets {
		if w.SOL == "" {
			continue
		}
		lamports, err := amount.ToBaseUnits(w.SOL, 9)
		if err != nil {
			return fmt.Errorf("wallet %q: %w", w.Name, err)
		}
		if err := x.rt.Airdrop(ctx, x.wallet(w.Name).PublicKey(), lamports); err != nil {
			return fmt.Errorf("wallet %q: %w", w.Name, err)
		}
	}
	for _, m := range x.sc.Mints {
		if err := x.rt.CreateMint(ctx, x.mint(m.Name), x.mintAuthority(m.Name), m.Decimals); err != nil {
			return fmt.Errorf("mint %q: %w", m.Name, err)
		}
	}
	for _, a := range x.sc.Accounts {
		key := x.tokenAccount(a.Name)
		if err := x.rt.CreateTokenAccount(ctx, key, x.mint(a.Mint), x.wallet(a.Owner).PublicKey()); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
		if a.Balance == "" {
			continue
		}
		units, err := amount.ToBaseUnits(a.Balance, x.decimals[a.Mint])
		if err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
		if err := x.rt.MintTo(ctx, x.mint(a.Mint), key, x.mintAuthority(a.Mint), units); err != nil {
			return fmt.Errorf("account %q: %w", a.Name, err)
		}
	}
	return nil
}

func (x *run) mintAuthority(mint string) types.Pubkey {
	for _, m := range x.sc.Mints {
		if m.Name == mint && m.Authority != "" {
			return x.wallet(m.Authority).PublicKey()
		}
	}
	return x.wallet(DefaultMintAuthority).PublicKey()
}

func (x *run) step(ctx context.Context, index int, step *Step) (*StepResult, error) {
	ix, signer, err := x.build(step)
	if err != nil {
		return nil, err
	}
	if step.Signer != "" {
		signer = step.Signer
	}

	receipt, execErr := x.rt.Execute(ctx, runtime.NewTransaction(ix, x.wallet(signer).PrivateKey()))
	result := &StepResult{
		Label:   step.Label(index),
		Action:  step.Action,
		Receipt: receipt,
		Code:    errors.CodeOf(execErr),
	}
	if execErr == nil && step.Action == ActionExchange {
		for _, data := range x.parser.ExtractProgramData(receipt.Logs) {
			if event, err := processor.DecodeExchangeEvent(data); err == nil {
				result.Event = event
			}
		}
	}
	x.GetLogger().Debug("scenario step",
		"step", result.Label, "code", result.Code, "logs", len(receipt.Logs))

	switch {
	case step.ExpectError == "" && execErr != nil:
		return result, fmt.Errorf("unexpected failure: %w", execErr)
	case step.ExpectError != "" && execErr == nil:
		return result, fmt.Errorf("expected %s, but the step succeeded", step.ExpectError)
	case step.ExpectError != "" && result.Code != step.ExpectError:
		return result, fmt.Errorf("expected %s, got %s: %w", step.ExpectError, result.Code, execErr)
	}

	for name, want := range step.Expect {
		if err := x.expectBalance(name, want); err != nil {
			return result, err
		}
	}
	return result, nil
}

// build returns the instruction of step and the wallet that signs it by default.
func (x *run) build(step *Step) (types.Instruction, string, error) {
	booth := x.sc.boothOf(step)
	admin := x.wallet(booth.Admin).PublicKey()
	mintA, mintB := x.mint(booth.MintA), x.mint(booth.MintB)

	switch step.Action {
	case ActionInitialize:
		rate, rateDecimals, err := amount.Scaled(step.Rate)
		if err != nil {
			return types.Instruction{}, "", fmt.Errorf("rate: %w", err)
		}
		var fee uint64
		var feeDecimals uint8
		if step.Fee != "" {
			if fee, feeDecimals, err = amount.Scaled(step.Fee); err != nil {
				return types.Instruction{}, "", fmt.Errorf("fee: %w", err)
			}
		}
		ix, err := instruction.NewInitializeInstruction(x.programID, admin, mintA, mintB,
			instruction.InitializeExchangeBooth{
				ExchangeRate: rate, RateDecimals: rateDecimals, Fee: fee, FeeDecimals: feeDecimals,
			})
		return ix, booth.Admin, err

	case ActionDeposit:
		amountA, err := x.units(step.AmountA, booth.MintA)
		if err != nil {
			return types.Instruction{}, "", err
		}
		amountB, err := x.units(step.AmountB, booth.MintB)
		if err != nil {
			return types.Instruction{}, "", err
		}
		ix, err := instruction.NewDepositInstruction(x.programID, admin, mintA, mintB,
			x.tokenAccount(step.SourceA), x.tokenAccount(step.SourceB), amountA, amountB)
		return ix, booth.Admin, err

	case ActionExchange:
		units, err := x.units(step.Amount, step.DonorMint)
		if err != nil {
			return types.Instruction{}, "", err
		}
		ix, err := instruction.NewExchangeInstruction(x.programID, instruction.ExchangeAccounts{
			Trader:          x.wallet(step.Trader).PublicKey(),
			Admin:           admin,
			MintA:           mintA,
			MintB:           mintB,
			DonorMint:       x.mint(step.DonorMint),
			DonorAccount:    x.tokenAccount(step.From),
			ReceiverAccount: x.tokenAccount(step.To),
		}, units)
		return ix, step.Trader, err

	case ActionWithdraw:
		ix, err := instruction.NewWithdrawInstruction(x.programID, admin, mintA, mintB,
			x.tokenAccount(step.ToA), x.tokenAccount(step.ToB))
		return ix, booth.Admin, err

	case ActionClose:
		ix, err := instruction.NewCloseInstruction(x.programID, admin, mintA, mintB,
			x.tokenAccount(step.ToA), x.tokenAccount(step.ToB))
		return ix, booth.Admin, err
	}
	return types.Instruction{}, "", fmt.Errorf("unknown action %q", step.Action)
}

func (x *run) units(s, mint string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return amount.ToBaseUnits(s, x.decimals[mint])
}

func (x *run) expectBalance(name, want string) error {
	decimals := x.decimals[x.mintOf[name]]
	wantUnits, err := amount.ToBaseUnits(want, decimals)
	if err != nil {
		return fmt.Errorf("expectation on %q: %w", name, err)
	}
	got, err := x.rt.TokenBalance(x.tokenAccount(name))
	if err != nil {
		return fmt.Errorf("expectation on %q: %w", name, err)
	}
	if got != wantUnits {
		return fmt.Errorf("balance of %q is %s, want %s",
			name, amount.Format(got, decimals), amount.Format(wantUnits, decimals))
	}
	return nil
}

func (x *run) balances() []Balance {
	out := make([]Balance, 0, len(x.sc.Accounts))
	for _, a := range x.sc.Accounts {
		key := x.tokenAccount(a.Name)
		b := Balance{Account: a.Name, Mint: a.Mint, Owner: a.Owner, Address: key, Amount: "-"}
		if units, err := x.rt.TokenBalance(key); err == nil {
			b.Amount = amount.Format(units, x.decimals[a.Mint])
		}
		out = append(out, b)
	}
	return out
}

// Addresses derives the booth accounts of the scenario's default booth.
func (r *Runner) Addresses(sc *Scenario) (*address.BoothAddresses, error) {
	ns := r.namespace
	if ns == "" {
		ns = sc.Name
	}
	return address.DeriveBoothAddresses(r.programID,
		r.key(ns, "wallet", sc.Booth.Admin).PublicKey(),
		r.key(ns, "mint", sc.Booth.MintA).PublicKey(),
		r.key(ns, "mint", sc.Booth.MintB).PublicKey(),
	)
}
