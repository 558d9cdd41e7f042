// Package ledger is the account storage substrate the booth program runs on.
//
// A Ledger maps addresses to accounts. All mutation goes through a Txn: a
// copy-on-write overlay that is either committed as a whole or discarded.
// Programs see the accounts of one instruction as an ordered list of
// AccountHandles inside an Invocation and never touch the Ledger directly.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/internal/storage"
	"github.com/lugondev/exchange-booth/pkg/types"
)

var (
	// SystemProgramID owns every account that has not been assigned to a program.
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	// RentSysvarID is the address under which rent parameters are published.
	RentSysvarID = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// Persister durably stores committed change sets. storage.Repository implements it.
type Persister interface {
	Apply(ctx context.Context, cs *storage.ChangeSet) error
}

// Ledger holds the committed state of every account.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*types.Account
	slot     uint64

	// txnMu is held by the open transaction, if any.
	txnMu sync.Mutex

	rent      Rent
	persister Persister
	logger    *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRent sets the rent parameters.
func WithRent(r Rent) Option {
	return func(l *Ledger) { l.rent = r }
}

// WithPersister makes every commit durable before it becomes visible.
func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persister = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[types.Pubkey]*types.Account),
		rent:     DefaultRent(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rent returns the rent parameters.
func (l *Ledger) Rent() Rent {
	return l.rent
}

// Slot returns the number of commits applied so far.
func (l *Ledger) Slot() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.slot
}

// Get returns a copy of the account at key.
func (l *Ledger) Get(key types.Pubkey) (*types.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[key]
	if !ok {
		return nil, false
	}
	return acct.Clone(), true
}

// Lamports returns the balance of key, zero if absent.
func (l *Ledger) Lamports(key types.Pubkey) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acct, ok := l.accounts[key]; ok {
		return acct.Lamports
	}
	return 0
}

// Len returns the number of stored accounts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// Keys returns every stored address in ascending order.
func (l *Ledger) Keys() []types.Pubkey {
	l.mu.RLock()
	keys := make([]types.Pubkey, 0, len(l.accounts))
	for k := range l.accounts {
		keys = append(keys, k)
	}
	l.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Load replaces the in-memory state with every account in repo.
func (l *Ledger) Load(ctx context.Context, repo storage.AccountRepository) error {
	models, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make(map[types.Pubkey]*types.Account, len(models))
	var slot uint64
	for _, m := range models {
		key, acct, err := storage.ModelToAccount(m)
		if err != nil {
			return err
		}
		accounts[key] = acct
		if m.Slot > slot {
			slot = m.Slot
		}
	}

	l.mu.Lock()
	l.accounts = accounts
	l.slot = slot
	l.mu.Unlock()

	l.logger.Debug("ledger loaded", "accounts", len(accounts), "slot", slot)
	return nil
}

// Begin opens a transaction. Only one transaction is open at a time; Begin
// blocks until the previous one is committed or rolled back.
func (l *Ledger) Begin() *Txn {
	l.txnMu.Lock()
	return &Txn{
		l:        l,
		working:  make(map[types.Pubkey]*types.Account),
		original: make(map[types.Pubkey]*types.Account),
	}
}

// snapshot returns a copy of the committed account at key, if any.
func (l *Ledger) snapshot(key types.Pubkey) *types.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if acct, ok := l.accounts[key]; ok {
		return acct.Clone()
	}
	return nil
}
