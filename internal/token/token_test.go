package token

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/pkg/types"
)

func newKey() types.Pubkey {
	return solana.NewWallet().PublicKey()
}

type fixture struct {
	t       *testing.T
	l       *ledger.Ledger
	txn     *ledger.Txn
	program types.Pubkey
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	l := ledger.New()
	txn := l.Begin()
	t.Cleanup(txn.Rollback)
	return &fixture{t: t, l: l, txn: txn, program: newKey(), svc: NewService()}
}

// blank stores an uninitialized token-owned account of size bytes.
func (f *fixture) blank(key types.Pubkey, size int) {
	f.txn.Store(key, &types.Account{
		Lamports: f.l.Rent().MinimumBalance(size),
		Data:     make([]byte, size),
		Owner:    ProgramID,
	})
}

func (f *fixture) handle(key types.Pubkey, signed bool) *ledger.AccountHandle {
	return f.txn.Handle(types.NewAccountMeta(key, signed, true), signed)
}

func (f *fixture) invoke(handles ...*ledger.AccountHandle) *ledger.Invocation {
	return ledger.NewInvocation(f.program, handles, nil, f.l.Rent())
}

func (f *fixture) mint(authority types.Pubkey, decimals uint8) types.Pubkey {
	key := newKey()
	f.blank(key, MintSize)
	h := f.handle(key, false)
	require.NoError(f.t, f.svc.InitializeMint(f.invoke(h), h, authority, nil, decimals))
	return key
}

func (f *fixture) account(mint, owner types.Pubkey) types.Pubkey {
	key := newKey()
	f.blank(key, AccountSize)
	acct, m := f.handle(key, false), f.handle(mint, false)
	require.NoError(f.t, f.svc.InitializeAccount(f.invoke(acct, m), acct, m, owner))
	return key
}

func (f *fixture) mintTo(mint, dest, authority types.Pubkey, amount uint64) {
	m, d, a := f.handle(mint, false), f.handle(dest, false), f.handle(authority, true)
	inv := f.invoke(m, d, a)
	auth, err := inv.Signer(a)
	require.NoError(f.t, err)
	require.NoError(f.t, f.svc.MintTo(inv, m, d, auth, amount))
}

func (f *fixture) balance(key types.Pubkey) uint64 {
	acct, err := UnpackAccount(f.txn.Account(key).Data)
	require.NoError(f.t, err)
	return acct.Amount
}

func TestAccountLayout(t *testing.T) {
	delegate, closer := newKey(), newKey()
	native := uint64(2039280)
	in := &Account{
		Mint:            newKey(),
		Owner:           newKey(),
		Amount:          0x0102030405060708,
		Delegate:        &delegate,
		State:           AccountStateInitialized,
		IsNative:        &native,
		DelegatedAmount: 9,
		CloseAuthority:  &closer,
	}
	data := in.Pack()
	require.Len(t, data, AccountSize)
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, data[64:72])
	assert.Equal(t, byte(1), data[108])

	out, err := UnpackAccount(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = UnpackAccount(make([]byte, AccountSize))
	assert.True(t, errors.Is(err, errors.ErrUninitializedAccount))
	_, err = UnpackAccount(make([]byte, 100))
	assert.True(t, errors.Is(err, errors.ErrInvalidAccountData))
}

func TestMintLayout(t *testing.T) {
	authority := newKey()
	in := &Mint{MintAuthority: &authority, Supply: 77, Decimals: 6, IsInitialized: true}
	data := in.Pack()
	require.Len(t, data, MintSize)
	assert.Equal(t, byte(6), data[44])

	out, err := UnpackMint(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = UnpackMint(make([]byte, MintSize))
	assert.True(t, errors.Is(err, errors.ErrUninitializedAccount))
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	authority, alice, bob := newKey(), newKey(), newKey()
	mint := f.mint(authority, 2)
	from := f.account(mint, alice)
	to := f.account(mint, bob)
	f.mintTo(mint, from, authority, 100)

	src, dst, signer := f.handle(from, false), f.handle(to, false), f.handle(alice, true)
	inv := f.invoke(src, dst, signer)
	auth, err := inv.Signer(signer)
	require.NoError(t, err)

	require.NoError(t, f.svc.Transfer(inv, src, dst, auth, 40))
	assert.Equal(t, uint64(60), f.balance(from))
	assert.Equal(t, uint64(40), f.balance(to))

	err = f.svc.Transfer(inv, src, dst, auth, 61)
	assert.True(t, errors.Is(err, errors.ErrInsufficientFunds))

	err = f.svc.Transfer(inv, dst, src, auth, 1)
	assert.True(t, errors.Is(err, errors.ErrOwnerMismatch), "alice cannot move bob's tokens")

	other := f.account(f.mint(authority, 2), bob)
	err = f.svc.Transfer(inv, src, f.handle(other, false), auth, 1)
	assert.True(t, errors.Is(err, errors.ErrMintMismatch))

	assert.Equal(t, uint64(60), f.balance(from), "failed transfers leave balances untouched")
}

func TestTransferFromDerivedOwner(t *testing.T) {
	f := newFixture(t)
	authority := newKey()
	seeds := [][]byte{[]byte("vault"), authority[:]}
	pda, bump, err := solana.FindProgramAddress(seeds, f.program)
	require.NoError(t, err)

	mint := f.mint(authority, 0)
	vault := f.account(mint, pda)
	dest := f.account(mint, newKey())
	f.mintTo(mint, vault, authority, 5)

	src, dst := f.handle(vault, false), f.handle(dest, false)
	inv := f.invoke(src, dst)
	auth, err := inv.DerivedSigner(append(seeds, []byte{bump}))
	require.NoError(t, err)
	require.NoError(t, f.svc.Transfer(inv, src, dst, auth, 5))
	assert.Equal(t, uint64(5), f.balance(dest))
}

func TestInitializeTwice(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(newKey(), 0)
	acct := f.account(mint, newKey())

	a, m := f.handle(acct, false), f.handle(mint, false)
	err := f.svc.InitializeAccount(f.invoke(a, m), a, m, newKey())
	assert.True(t, errors.Is(err, errors.ErrAccountAlreadyInUse))

	err = f.svc.InitializeMint(f.invoke(m), m, newKey(), nil, 1)
	assert.True(t, errors.Is(err, errors.ErrAccountAlreadyInUse))
}

func TestInitializeRequiresTokenOwner(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(newKey(), 0)
	key := newKey()
	f.txn.Store(key, &types.Account{Lamports: 1 << 30, Data: make([]byte, AccountSize), Owner: ledger.SystemProgramID})

	a, m := f.handle(key, false), f.handle(mint, false)
	err := f.svc.InitializeAccount(f.invoke(a, m), a, m, newKey())
	assert.True(t, errors.Is(err, errors.ErrInvalidAccountData))
}

func TestCloseAccount(t *testing.T) {
	f := newFixture(t)
	authority, owner, dest := newKey(), newKey(), newKey()
	mint := f.mint(authority, 0)
	acct := f.account(mint, owner)
	f.mintTo(mint, acct, authority, 3)
	deposit := f.txn.Account(acct).Lamports

	h, d, signer := f.handle(acct, false), f.handle(dest, false), f.handle(owner, true)
	inv := f.invoke(h, d, signer)
	auth, err := inv.Signer(signer)
	require.NoError(t, err)

	err = f.svc.CloseAccount(inv, h, d, auth)
	assert.True(t, errors.Is(err, errors.ErrNonNativeHasBalance))

	burn := f.account(mint, owner)
	require.NoError(t, f.svc.Transfer(inv, h, f.handle(burn, false), auth, 3))
	require.NoError(t, f.svc.CloseAccount(inv, h, d, auth))

	assert.Equal(t, deposit, f.txn.Account(dest).Lamports)
	closed := f.txn.Account(acct)
	assert.True(t, closed.IsEmpty())
	assert.Equal(t, ledger.SystemProgramID, closed.Owner)
}
