package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/storage"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Txn is a copy-on-write view of the ledger. Nothing it does is visible
// outside until Commit succeeds.
type Txn struct {
	l        *Ledger
	working  map[types.Pubkey]*types.Account
	original map[types.Pubkey]*types.Account // nil value: absent before the txn
	order    []types.Pubkey
	done     bool
}

// open returns the working copy of key, loading it on first use. Absent
// accounts read as empty and owned by the system program.
func (t *Txn) open(key types.Pubkey) *types.Account {
	if acct, ok := t.working[key]; ok {
		return acct
	}
	base := t.l.snapshot(key)
	t.original[key] = base
	var acct *types.Account
	if base != nil {
		acct = base.Clone()
	} else {
		acct = &types.Account{Owner: SystemProgramID}
	}
	t.working[key] = acct
	t.order = append(t.order, key)
	return acct
}

// Handle returns a handle on key with the flags of meta. The signer flag is
// honoured only when signed is true.
func (t *Txn) Handle(meta types.AccountMeta, signed bool) *AccountHandle {
	return &AccountHandle{
		key:      meta.Pubkey,
		acct:     t.open(meta.Pubkey),
		signer:   meta.IsSigner && signed,
		writable: meta.IsWritable,
	}
}

// Store overwrites the account at key. It bypasses program ownership and is
// meant for genesis and administrative setup.
func (t *Txn) Store(key types.Pubkey, acct *types.Account) {
	cur := t.open(key)
	*cur = *acct.Clone()
}

// Account returns a copy of the working state of key.
func (t *Txn) Account(key types.Pubkey) *types.Account {
	return t.open(key).Clone()
}

// Balanced reports whether the opened accounts hold the same total lamports
// as before the transaction.
func (t *Txn) Balanced() bool {
	before, after := new(uint256.Int), new(uint256.Int)
	for _, key := range t.order {
		if base := t.original[key]; base != nil {
			before.Add(before, uint256.NewInt(base.Lamports))
		}
		after.Add(after, uint256.NewInt(t.working[key].Lamports))
	}
	return before.Eq(after)
}

// Changed returns the keys whose state differs from the committed state, in open order.
func (t *Txn) Changed() []types.Pubkey {
	var keys []types.Pubkey
	for _, key := range t.order {
		base, acct := t.original[key], t.working[key]
		switch {
		case base == nil && acct.IsEmpty():
		case base != nil && base.Equal(acct):
		default:
			keys = append(keys, key)
		}
	}
	return keys
}

// Commit persists the changes together with exec, then publishes them.
// Accounts left with zero lamports are removed. It returns the commit slot.
func (t *Txn) Commit(ctx context.Context, exec *storage.ExecutionModel) (uint64, error) {
	if t.done {
		return 0, fmt.Errorf("transaction already finished")
	}
	defer t.finish()

	t.l.mu.Lock()
	defer t.l.mu.Unlock()

	slot := t.l.slot + 1
	cs := &storage.ChangeSet{Slot: slot, Execution: exec}
	if exec != nil {
		exec.Slot = slot
	}

	var puts, dels []types.Pubkey
	for _, key := range t.Changed() {
		acct := t.working[key]
		if acct.Lamports == 0 {
			if t.original[key] != nil {
				dels = append(dels, key)
				cs.Deletes = append(cs.Deletes, key.String())
			}
			continue
		}
		puts = append(puts, key)
		cs.Upserts = append(cs.Upserts, storage.AccountToModel(key, acct, slot))
	}

	if t.l.persister != nil && !cs.IsEmpty() {
		if err := t.l.persister.Apply(ctx, cs); err != nil {
			return 0, fmt.Errorf("failed to persist slot %d: %w", slot, err)
		}
	}

	for _, key := range puts {
		t.l.accounts[key] = t.working[key].Clone()
	}
	for _, key := range dels {
		delete(t.l.accounts, key)
	}
	t.l.slot = slot

	t.l.logger.Debug("ledger commit", "slot", slot, "upserts", len(puts), "deletes", len(dels))
	return slot, nil
}

// Rollback discards every change. It is safe to call after Commit.
func (t *Txn) Rollback() {
	if t.done {
		return
	}
	t.finish()
}

func (t *Txn) finish() {
	t.done = true
	t.working = nil
	t.original = nil
	t.l.txnMu.Unlock()
}

// checkedAdd adds two balances, failing on overflow.
func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errors.ErrCompute.WithMessage("lamport overflow adding %d to %d", b, a)
	}
	return sum, nil
}
