// Package processor defines the Processor contract and the booth program
// that implements it.
//
// Booth decodes one instruction and runs the handler for its variant. A
// handler fails fast: signer, derived addresses, collaborator program ids,
// asset-type consistency, arithmetic, and only then effects. Atomicity of
// the effects is provided by the caller's ledger transaction.
package processor

import (
	"context"
	"log/slog"

	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/metrics"
	"github.com/lugondev/exchange-booth/internal/system"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Processor defines the interface for processing one unit of work.
//
// The type parameter T specifies the input data type. The metrics
// collection may be nil.
type Processor[T any] interface {
	Process(ctx context.Context, data T, metrics *metrics.Collection) error
}

// ProcessorFunc is a function type that implements the Processor interface.
type ProcessorFunc[T any] func(ctx context.Context, data T, metrics *metrics.Collection) error

// Process implements the Processor interface.
func (f ProcessorFunc[T]) Process(ctx context.Context, data T, metrics *metrics.Collection) error {
	return f(ctx, data, metrics)
}

// TokenService is the asset-transfer service the booth calls into.
type TokenService interface {
	InitializeAccount(inv *ledger.Invocation, acct, mint *ledger.AccountHandle, owner types.Pubkey) error
	Transfer(inv *ledger.Invocation, source, dest *ledger.AccountHandle, authority ledger.Authority, amount uint64) error
	CloseAccount(inv *ledger.Invocation, acct, dest *ledger.AccountHandle, authority ledger.Authority) error
}

// SystemService is the storage allocator the booth calls into.
type SystemService interface {
	CreateAccount(
		inv *ledger.Invocation,
		from *ledger.AccountHandle, payer ledger.Authority,
		to *ledger.AccountHandle, newAccount ledger.Authority,
		lamports, space uint64, owner types.Pubkey,
	) error
}

// Booth is the exchange booth program.
type Booth struct {
	common.LoggerMixin

	programID        types.Pubkey
	token            TokenService
	system           SystemService
	rejectZeroOutput bool
}

// Option configures a Booth.
type Option func(*Booth)

// WithTokenService replaces the asset-transfer service.
func WithTokenService(svc TokenService) Option {
	return func(b *Booth) { b.token = svc }
}

// WithSystemService replaces the storage allocator.
func WithSystemService(svc SystemService) Option {
	return func(b *Booth) { b.system = svc }
}

// WithRejectZeroOutput makes Exchange fail with TooSmallAmount when the
// output rounds to zero.
func WithRejectZeroOutput(reject bool) Option {
	return func(b *Booth) { b.rejectZeroOutput = reject }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Booth) { b.SetLogger(logger) }
}

// NewBooth creates the booth program deployed at programID.
func NewBooth(programID types.Pubkey, opts ...Option) *Booth {
	b := &Booth{
		LoggerMixin: common.NewLoggerMixin(),
		programID:   programID,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.token == nil {
		b.token = token.NewService().WithLogger(b.GetLogger())
	}
	if b.system == nil {
		b.system = system.NewService().WithLogger(b.GetLogger())
	}
	return b
}

// ProgramID returns the address the booth is deployed at.
func (b *Booth) ProgramID() types.Pubkey {
	return b.programID
}

// Process decodes inv.Data and runs the matching handler.
func (b *Booth) Process(ctx context.Context, inv *ledger.Invocation, m *metrics.Collection) error {
	if !inv.ProgramID.Equals(b.programID) {
		return errors.ErrInvalidAccountAddress.
			WithMessage("invocation of %s routed to booth %s", inv.ProgramID, b.programID)
	}

	ix, err := instruction.Decode(inv.Data)
	if err != nil {
		inv.Log("Failed to decode instruction")
		return err
	}
	inv.Log("Instruction: %s", ix.Kind())

	v := address.NewValidator(b.programID, b.GetLogger(), inv.Log)
	switch ix := ix.(type) {
	case *instruction.InitializeExchangeBooth:
		err = b.initialize(inv, v, ix)
	case *instruction.Deposit:
		err = b.deposit(inv, v, ix)
	case *instruction.Exchange:
		err = b.exchange(ctx, inv, v, ix, m)
	case *instruction.Withdraw:
		err = b.withdraw(inv, v)
	case *instruction.CloseExchangeBooth:
		err = b.close(inv, v)
	default:
		err = errors.ErrInvalidArgument.WithMessage("unhandled instruction %s", ix.Kind())
	}

	if m != nil {
		_ = m.IncrementCounter(ctx, metrics.InstructionCounter(ix.Kind().String()), 1)
	}
	if err != nil {
		b.GetLogger().Debug("instruction failed",
			"instruction", ix.Kind().String(), "code", errors.CodeOf(err), "error", err)
	}
	return err
}
