package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/storage"
	"github.com/lugondev/exchange-booth/internal/storage/memory"
	"github.com/lugondev/exchange-booth/pkg/types"
)

func newKey() types.Pubkey {
	return solana.NewWallet().PublicKey()
}

func seed(t *testing.T, l *Ledger, key types.Pubkey, lamports uint64) {
	t.Helper()
	txn := l.Begin()
	txn.Store(key, &types.Account{Lamports: lamports, Owner: SystemProgramID})
	_, err := txn.Commit(context.Background(), nil)
	require.NoError(t, err)
}

func TestMinimumBalance(t *testing.T) {
	rent := DefaultRent()
	assert.Equal(t, uint64(890880), rent.MinimumBalance(0))
	assert.Equal(t, uint64((128+165)*3480*2), rent.MinimumBalance(165))
	assert.Equal(t, uint64((128+9)*3480*2), rent.MinimumBalance(9))
	assert.True(t, rent.IsExempt(rent.MinimumBalance(9), 9))
	assert.False(t, rent.IsExempt(rent.MinimumBalance(9)-1, 9))
}

func TestRollbackDiscardsChanges(t *testing.T) {
	l := New()
	a, b := newKey(), newKey()
	seed(t, l, a, 100)

	txn := l.Begin()
	ha := txn.Handle(types.NewAccountMeta(a, false, true), false)
	hb := txn.Handle(types.NewAccountMeta(b, false, true), false)
	require.NoError(t, ha.SubLamports(40))
	require.NoError(t, hb.AddLamports(40))
	require.NoError(t, hb.SetData([]byte{1}))
	txn.Rollback()

	assert.Equal(t, uint64(100), l.Lamports(a))
	_, ok := l.Get(b)
	assert.False(t, ok)
}

func TestCommitPublishesAndPurges(t *testing.T) {
	repo := memory.NewRepository()
	l := New(WithPersister(repo))
	a, b := newKey(), newKey()
	seed(t, l, a, 100)
	seed(t, l, b, 5)

	txn := l.Begin()
	ha := txn.Handle(types.NewAccountMeta(a, false, true), false)
	hb := txn.Handle(types.NewAccountMeta(b, false, true), false)
	require.NoError(t, hb.Reclaim())
	require.NoError(t, ha.AddLamports(5))
	assert.True(t, txn.Balanced())

	exec := &storage.ExecutionModel{ID: "x"}
	slot, err := txn.Commit(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), slot)
	assert.Equal(t, slot, exec.Slot)

	assert.Equal(t, uint64(105), l.Lamports(a))
	_, ok := l.Get(b)
	assert.False(t, ok, "zero-lamport account must be purged")

	persisted, err := repo.Accounts().FindByPubkey(context.Background(), b.String())
	require.NoError(t, err)
	assert.Nil(t, persisted)
	receipt, err := repo.Executions().FindByID(context.Background(), "x")
	require.NoError(t, err)
	require.NotNil(t, receipt)
}

type failingPersister struct{}

func (failingPersister) Apply(context.Context, *storage.ChangeSet) error {
	return fmt.Errorf("disk full")
}

func TestPersistFailureKeepsState(t *testing.T) {
	l := New()
	a := newKey()
	seed(t, l, a, 10)
	l.persister = failingPersister{}

	txn := l.Begin()
	require.NoError(t, txn.Handle(types.NewAccountMeta(a, false, true), false).SetLamports(99))
	_, err := txn.Commit(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, uint64(10), l.Lamports(a))

	// The ledger accepts a new transaction afterwards.
	txn = l.Begin()
	txn.Rollback()
}

func TestUnbalancedDetected(t *testing.T) {
	l := New()
	a := newKey()
	seed(t, l, a, 10)

	txn := l.Begin()
	defer txn.Rollback()
	require.NoError(t, txn.Handle(types.NewAccountMeta(a, false, true), false).AddLamports(1))
	assert.False(t, txn.Balanced())
}

func TestHandlesShareStateAndRespectFlags(t *testing.T) {
	l := New()
	a := newKey()
	seed(t, l, a, 10)

	txn := l.Begin()
	defer txn.Rollback()
	w := txn.Handle(types.NewAccountMeta(a, true, true), false)
	r := txn.Handle(types.NewAccountMeta(a, false, false), true)

	assert.False(t, w.IsSigner(), "signer flag requires a verified signature")
	require.NoError(t, w.SetLamports(7))
	assert.Equal(t, uint64(7), r.Lamports())

	err := r.SetLamports(1)
	assert.True(t, errors.Is(err, errors.ErrAccountNotWritable))
	err = w.SubLamports(8)
	assert.True(t, errors.Is(err, errors.ErrInsufficientFunds))
}

func TestAddLamportsOverflow(t *testing.T) {
	l := New()
	a := newKey()
	seed(t, l, a, ^uint64(0))

	txn := l.Begin()
	defer txn.Rollback()
	err := txn.Handle(types.NewAccountMeta(a, false, true), false).AddLamports(1)
	assert.True(t, errors.Is(err, errors.ErrCompute))
}

func TestLoadFromRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	src := New(WithPersister(repo))
	a := newKey()
	seed(t, src, a, 42)

	dst := New()
	require.NoError(t, dst.Load(ctx, repo.Accounts()))
	assert.Equal(t, uint64(42), dst.Lamports(a))
	assert.Equal(t, src.Slot(), dst.Slot())
	assert.Equal(t, []types.Pubkey{a}, dst.Keys())
}

func TestAuthorityCapability(t *testing.T) {
	l := New()
	program := newKey()
	user := newKey()

	txn := l.Begin()
	defer txn.Rollback()
	signed := txn.Handle(types.NewAccountMeta(user, true, false), true)
	unsigned := txn.Handle(types.NewAccountMeta(newKey(), true, false), false)
	inv := NewInvocation(program, []*AccountHandle{signed, unsigned}, nil, l.Rent())

	auth, err := inv.Signer(signed)
	require.NoError(t, err)
	require.NoError(t, inv.Authorizes(auth, user))
	assert.True(t, errors.Is(inv.Authorizes(auth, newKey()), errors.ErrOwnerMismatch))

	_, err = inv.Signer(unsigned)
	assert.True(t, errors.Is(err, errors.ErrMissingRequiredSignature))

	// A forged zero authority and one from another invocation are rejected.
	assert.True(t, errors.Is(inv.Authorizes(Authority{}, user), errors.ErrMissingRequiredSignature))
	other := NewInvocation(program, nil, nil, l.Rent())
	assert.True(t, errors.Is(other.Authorizes(auth, user), errors.ErrMissingRequiredSignature))

	seeds := [][]byte{user[:], []byte("vault")}
	pda, bump, err := solana.FindProgramAddress(seeds, program)
	require.NoError(t, err)
	derived, err := inv.DerivedSigner(append(seeds, []byte{bump}))
	require.NoError(t, err)
	assert.True(t, derived.Derived())
	assert.Equal(t, pda, derived.Key())
	require.NoError(t, inv.Authorizes(derived, pda))
}

func TestInvocationLogs(t *testing.T) {
	inv := NewInvocation(newKey(), nil, nil, DefaultRent())
	inv.Log("Invalid account address for %s", "Vault A")
	inv.Emit([]byte{1, 2, 3})
	assert.Equal(t, []string{
		"Program log: Invalid account address for Vault A",
		"Program data: AQID",
	}, inv.Logs())
}
