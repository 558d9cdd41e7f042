package runtime

import (
	"context"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// The helpers below set up ledger state outside of any signed transaction.
// They are how scenarios and tests create wallets, mints and token accounts.

// setup runs fn in its own committed ledger transaction.
func (r *Runtime) setup(ctx context.Context, fn func(txn *ledger.Txn) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn := r.ledger.Begin()
	if err := fn(txn); err != nil {
		txn.Rollback()
		return err
	}
	_, err := txn.Commit(ctx, nil)
	return err
}

// Airdrop credits lamports to key.
func (r *Runtime) Airdrop(ctx context.Context, key types.Pubkey, lamports uint64) error {
	return r.setup(ctx, func(txn *ledger.Txn) error {
		return txn.Handle(types.NewAccountMeta(key, false, true), false).AddLamports(lamports)
	})
}

// CreateMint creates a rent-exempt mint at key with the given authority and decimals.
func (r *Runtime) CreateMint(ctx context.Context, key, authority types.Pubkey, decimals uint8) error {
	return r.setup(ctx, func(txn *ledger.Txn) error {
		if err := r.allocate(txn, key, token.MintSize); err != nil {
			return err
		}
		h := txn.Handle(types.NewAccountMeta(key, false, true), false)
		inv := ledger.NewInvocation(token.ProgramID, []*ledger.AccountHandle{h}, nil, r.ledger.Rent())
		return token.NewService().WithLogger(r.GetLogger()).InitializeMint(inv, h, authority, nil, decimals)
	})
}

// CreateTokenAccount creates a rent-exempt token account at key holding mint for owner.
func (r *Runtime) CreateTokenAccount(ctx context.Context, key, mint, owner types.Pubkey) error {
	return r.setup(ctx, func(txn *ledger.Txn) error {
		if err := r.allocate(txn, key, token.AccountSize); err != nil {
			return err
		}
		acct := txn.Handle(types.NewAccountMeta(key, false, true), false)
		m := txn.Handle(types.NewAccountMeta(mint, false, false), false)
		inv := ledger.NewInvocation(token.ProgramID, []*ledger.AccountHandle{acct, m}, nil, r.ledger.Rent())
		return token.NewService().WithLogger(r.GetLogger()).InitializeAccount(inv, acct, m, owner)
	})
}

// MintTo issues amount of mint into dest on behalf of the mint authority.
func (r *Runtime) MintTo(ctx context.Context, mint, dest, authority types.Pubkey, amount uint64) error {
	return r.setup(ctx, func(txn *ledger.Txn) error {
		m := txn.Handle(types.NewAccountMeta(mint, false, true), false)
		d := txn.Handle(types.NewAccountMeta(dest, false, true), false)
		a := txn.Handle(types.NewAccountMeta(authority, true, false), true)
		inv := ledger.NewInvocation(token.ProgramID, []*ledger.AccountHandle{m, d, a}, nil, r.ledger.Rent())
		auth, err := inv.Signer(a)
		if err != nil {
			return err
		}
		return token.NewService().WithLogger(r.GetLogger()).MintTo(inv, m, d, auth, amount)
	})
}

func (r *Runtime) allocate(txn *ledger.Txn, key types.Pubkey, size int) error {
	if current := txn.Account(key); !current.IsEmpty() {
		return errors.ErrAccountAlreadyInUse.WithMessage("account %s already in use", key)
	}
	txn.Store(key, &types.Account{
		Lamports: r.ledger.Rent().MinimumBalance(size),
		Data:     make([]byte, size),
		Owner:    token.ProgramID,
	})
	return nil
}

// TokenBalance returns the amount held by the token account at key.
func (r *Runtime) TokenBalance(key types.Pubkey) (uint64, error) {
	acct, ok := r.ledger.Get(key)
	if !ok {
		return 0, errors.ErrUninitializedAccount.WithMessage("no account at %s", key)
	}
	content, err := token.UnpackAccount(acct.Data)
	if err != nil {
		return 0, err
	}
	return content.Amount, nil
}

// Lamports returns the native balance of key.
func (r *Runtime) Lamports(key types.Pubkey) uint64 {
	return r.ledger.Lamports(key)
}
