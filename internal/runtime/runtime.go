// Package runtime executes signed booth transactions against a ledger.
//
// Execute verifies every signature over the instruction message, opens one
// ledger transaction, hands the program an Invocation of typed account
// handles, checks that lamports are conserved and commits. Any failure rolls
// the whole transaction back. Executions are serialized.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/metrics"
	"github.com/lugondev/exchange-booth/internal/processor"
	"github.com/lugondev/exchange-booth/internal/storage"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Transaction is one instruction plus the keys that sign it.
type Transaction struct {
	Instruction types.Instruction
	Signers     []solana.PrivateKey
}

// NewTransaction creates a transaction signed by signers.
func NewTransaction(ix types.Instruction, signers ...solana.PrivateKey) *Transaction {
	return &Transaction{Instruction: ix, Signers: signers}
}

// Receipt is the outcome of one execution.
type Receipt struct {
	ID          string
	Signature   types.Signature
	Slot        uint64
	ProgramID   types.Pubkey
	Instruction string
	Accounts    []types.Pubkey
	Err         error
	Logs        []string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Success reports whether the transaction committed.
func (r *Receipt) Success() bool {
	return r.Err == nil
}

// Duration returns how long the execution took.
func (r *Receipt) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Model converts the receipt into its persisted form.
func (r *Receipt) Model() *storage.ExecutionModel {
	m := &storage.ExecutionModel{
		ID:          r.ID,
		Signature:   r.Signature.String(),
		Slot:        r.Slot,
		ProgramID:   r.ProgramID.String(),
		Instruction: r.Instruction,
		Accounts:    make([]string, len(r.Accounts)),
		Success:     r.Err == nil,
		LogMessages: r.Logs,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	for i, key := range r.Accounts {
		m.Accounts[i] = key.String()
	}
	if r.Err != nil {
		m.ErrorCode = errors.CodeOf(r.Err)
		m.ErrorMessage = r.Err.Error()
		if code, ok := errors.CustomOf(r.Err); ok {
			m.CustomCode = &code
		}
	}
	return m
}

// Runtime runs transactions against a ledger.
type Runtime struct {
	common.LoggerMixin

	mu         sync.Mutex
	ledger     *ledger.Ledger
	programs   map[types.Pubkey]processor.Processor[*ledger.Invocation]
	executions storage.ExecutionRepository
	metrics    *metrics.Collection
	now        func() time.Time
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithProgram registers p at id.
func WithProgram(id types.Pubkey, p processor.Processor[*ledger.Invocation]) Option {
	return func(r *Runtime) { r.programs[id] = p }
}

// WithExecutionStore saves the receipts of failed executions. Receipts of
// committed executions travel with the ledger's change set.
func WithExecutionStore(repo storage.ExecutionRepository) Option {
	return func(r *Runtime) { r.executions = repo }
}

// WithMetrics sets the metrics collection.
func WithMetrics(m *metrics.Collection) Option {
	return func(r *Runtime) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.SetLogger(logger) }
}

// New creates a runtime over l.
func New(l *ledger.Ledger, opts ...Option) *Runtime {
	r := &Runtime{
		LoggerMixin: common.NewLoggerMixin(),
		ledger:      l,
		programs:    make(map[types.Pubkey]processor.Processor[*ledger.Invocation]),
		metrics:     metrics.NewCollection(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ledger returns the underlying ledger.
func (r *Runtime) Ledger() *ledger.Ledger {
	return r.ledger
}

// Register adds or replaces the program at id.
func (r *Runtime) Register(id types.Pubkey, p processor.Processor[*ledger.Invocation]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[id] = p
}

// Execute runs tx. The receipt is returned even when the execution fails;
// the error is the program or host failure that aborted it.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ix := tx.Instruction
	receipt := &Receipt{
		ID:          uuid.NewString(),
		ProgramID:   ix.ProgramID,
		Instruction: instructionName(ix.Data),
		Accounts:    make([]types.Pubkey, len(ix.Accounts)),
		StartedAt:   r.now(),
	}
	for i, meta := range ix.Accounts {
		receipt.Accounts[i] = meta.Pubkey
	}

	err := r.execute(ctx, tx, receipt)
	receipt.Err = err
	if receipt.FinishedAt.IsZero() {
		receipt.FinishedAt = r.now()
	}
	r.record(ctx, receipt)
	return receipt, err
}

func (r *Runtime) execute(ctx context.Context, tx *Transaction, receipt *Receipt) error {
	ix := tx.Instruction
	signed, sig, err := verifySignatures(tx)
	if err != nil {
		return err
	}
	receipt.Signature = sig

	program, ok := r.programs[ix.ProgramID]
	if !ok {
		return errors.ErrUnknownProgram.WithMessage("no program at %s", ix.ProgramID)
	}

	txn := r.ledger.Begin()
	handles := make([]*ledger.AccountHandle, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		handles[i] = txn.Handle(meta, signed[meta.Pubkey])
	}
	inv := ledger.NewInvocation(ix.ProgramID, handles, ix.Data, r.ledger.Rent())

	err = program.Process(ctx, inv, r.metrics)
	if err == nil && !txn.Balanced() {
		err = errors.ErrUnbalancedInstruction.WithMessage("instruction changed the total lamport supply")
	}
	receipt.Logs = frame(ix.ProgramID, inv.Logs(), err)
	if err != nil {
		txn.Rollback()
		return err
	}

	receipt.FinishedAt = r.now()
	slot, err := txn.Commit(ctx, receipt.Model())
	if err != nil {
		receipt.Logs = frame(ix.ProgramID, inv.Logs(), err)
		return err
	}
	receipt.Slot = slot
	return nil
}

// verifySignatures signs the instruction message with every key and keeps
// the keys whose signature verifies. The first signature identifies the
// transaction.
func verifySignatures(tx *Transaction) (map[types.Pubkey]bool, types.Signature, error) {
	msg := tx.Instruction.Message()
	signed := make(map[types.Pubkey]bool, len(tx.Signers))
	var first types.Signature
	for i, key := range tx.Signers {
		sig, err := key.Sign(msg)
		if err != nil {
			return nil, first, errors.ErrSignatureVerification.WithCause(err)
		}
		pub := key.PublicKey()
		if !sig.Verify(pub, msg) {
			return nil, first, errors.ErrSignatureVerification.WithMessage("signature of %s does not verify", pub)
		}
		signed[pub] = true
		if i == 0 {
			first = sig
		}
	}
	return signed, first, nil
}

func frame(program types.Pubkey, logs []string, err error) []string {
	out := make([]string, 0, len(logs)+2)
	out = append(out, fmt.Sprintf("Program %s invoke [1]", program))
	out = append(out, logs...)
	if err == nil {
		return append(out, fmt.Sprintf("Program %s success", program))
	}
	if code, ok := errors.CustomOf(err); ok {
		return append(out, fmt.Sprintf("Program %s failed: custom program error: 0x%x", program, code))
	}
	return append(out, fmt.Sprintf("Program %s failed: %s", program, errors.CodeOf(err)))
}

func instructionName(data []byte) string {
	if kind, ok := instruction.KindOf(data); ok {
		return kind.String()
	}
	return "unknown"
}

func (r *Runtime) record(ctx context.Context, receipt *Receipt) {
	logger := r.GetLogger()
	if receipt.Err != nil && r.executions != nil {
		if err := r.executions.Save(ctx, receipt.Model()); err != nil {
			logger.Warn("failed to save receipt", "id", receipt.ID, "error", err)
		}
	}

	elapsed := float64(receipt.Duration().Microseconds()) / 1000
	_ = r.metrics.IncrementCounter(ctx, metrics.MetricInstructionsProcessed, 1)
	_ = r.metrics.RecordHistogram(ctx, metrics.MetricInstructionDurationMs, elapsed)
	_ = r.metrics.UpdateGauge(ctx, metrics.MetricLedgerAccounts, float64(r.ledger.Len()))

	if receipt.Err != nil {
		_ = r.metrics.IncrementCounter(ctx, metrics.MetricInstructionsFailed, 1)
		logger.Debug("transaction failed",
			"id", receipt.ID,
			"instruction", receipt.Instruction,
			"code", errors.CodeOf(receipt.Err),
			"error", receipt.Err,
		)
		return
	}
	logger.Debug("transaction committed",
		"id", receipt.ID,
		"instruction", receipt.Instruction,
		"slot", receipt.Slot,
		"duration_ms", elapsed,
	)
}
