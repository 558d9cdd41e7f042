// Package token is the asset-transfer service the booth program calls into.
// It keeps mint and token-account state in the SPL Token layout and applies
// the same ownership and balance rules.
package token

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// ProgramID owns every mint and token account.
var ProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// Service executes token operations against the accounts of an invocation.
type Service struct {
	common.LoggerMixin
}

// NewService creates a token service.
func NewService() *Service {
	return &Service{LoggerMixin: common.NewLoggerMixin()}
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.SetLogger(logger)
	return s
}

func requireOwned(h *ledger.AccountHandle) error {
	if !h.IsOwnedBy(ProgramID) {
		return errors.ErrInvalidAccountData.
			WithMessage("account %s is not owned by the token program", h.Key()).
			WithDetails(map[string]any{"account": h.Key().String(), "owner": h.Owner().String()})
	}
	return nil
}

func loadAccount(h *ledger.AccountHandle) (*Account, error) {
	if err := requireOwned(h); err != nil {
		return nil, err
	}
	acct, err := UnpackAccount(h.Data())
	if err != nil {
		return nil, err
	}
	if acct.State == AccountStateFrozen {
		return nil, errors.ErrInvalidAccountData.WithMessage("token account %s is frozen", h.Key())
	}
	return acct, nil
}

func loadMint(h *ledger.AccountHandle) (*Mint, error) {
	if err := requireOwned(h); err != nil {
		return nil, err
	}
	return UnpackMint(h.Data())
}

// ReadAccount decodes the token account behind h.
func ReadAccount(h *ledger.AccountHandle) (*Account, error) {
	return loadAccount(h)
}

// ReadMint decodes the mint behind h.
func ReadMint(h *ledger.AccountHandle) (*Mint, error) {
	return loadMint(h)
}

// InitializeMint sets up a created, token-owned account as a mint.
func (s *Service) InitializeMint(inv *ledger.Invocation, mint *ledger.AccountHandle, authority types.Pubkey, freeze *types.Pubkey, decimals uint8) error {
	if err := requireOwned(mint); err != nil {
		return err
	}
	current, err := unpackMint(mint.Data())
	if err != nil {
		return err
	}
	if current.IsInitialized {
		return errors.ErrAccountAlreadyInUse.WithMessage("mint %s already initialized", mint.Key())
	}
	if !inv.Rent().IsExempt(mint.Lamports(), MintSize) {
		return errors.ErrInsufficientFunds.WithMessage("mint %s is not rent exempt", mint.Key())
	}

	next := &Mint{MintAuthority: &authority, Decimals: decimals, IsInitialized: true, FreezeAuthority: freeze}
	if err := mint.SetData(next.Pack()); err != nil {
		return err
	}
	s.GetLogger().Debug("mint initialized", "mint", mint.Key().String(), "decimals", decimals)
	return nil
}

// InitializeAccount sets up a created, token-owned account as a holding of
// mint owned by owner.
func (s *Service) InitializeAccount(inv *ledger.Invocation, acct, mint *ledger.AccountHandle, owner types.Pubkey) error {
	if err := requireOwned(acct); err != nil {
		return err
	}
	current, err := unpackAccount(acct.Data())
	if err != nil {
		return err
	}
	if current.State != AccountStateUninitialized {
		return errors.ErrAccountAlreadyInUse.WithMessage("token account %s already initialized", acct.Key())
	}
	if !inv.Rent().IsExempt(acct.Lamports(), AccountSize) {
		return errors.ErrInsufficientFunds.WithMessage("token account %s is not rent exempt", acct.Key())
	}
	if _, err := loadMint(mint); err != nil {
		return err
	}

	next := &Account{Mint: mint.Key(), Owner: owner, State: AccountStateInitialized}
	if err := acct.SetData(next.Pack()); err != nil {
		return err
	}
	s.GetLogger().Debug("token account initialized",
		"account", acct.Key().String(), "mint", mint.Key().String(), "owner", owner.String())
	return nil
}

// MintTo issues amount new units of mint into dest.
func (s *Service) MintTo(inv *ledger.Invocation, mint, dest *ledger.AccountHandle, authority ledger.Authority, amount uint64) error {
	m, err := loadMint(mint)
	if err != nil {
		return err
	}
	d, err := loadAccount(dest)
	if err != nil {
		return err
	}
	if !d.Mint.Equals(mint.Key()) {
		return errors.ErrMintMismatch.WithMessage("account %s holds mint %s, not %s", dest.Key(), d.Mint, mint.Key())
	}
	if m.MintAuthority == nil {
		return errors.ErrOwnerMismatch.WithMessage("mint %s has a fixed supply", mint.Key())
	}
	if err := inv.Authorizes(authority, *m.MintAuthority); err != nil {
		return err
	}

	if m.Supply, err = addAmount(m.Supply, amount); err != nil {
		return err
	}
	if d.Amount, err = addAmount(d.Amount, amount); err != nil {
		return err
	}
	if err := mint.SetData(m.Pack()); err != nil {
		return err
	}
	return dest.SetData(d.Pack())
}

// Transfer moves amount from source to dest. authority must act as the
// owner of source.
func (s *Service) Transfer(inv *ledger.Invocation, source, dest *ledger.AccountHandle, authority ledger.Authority, amount uint64) error {
	src, err := loadAccount(source)
	if err != nil {
		return err
	}
	dst, err := loadAccount(dest)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return errors.ErrMintMismatch.
			WithMessage("cannot move mint %s into an account of mint %s", src.Mint, dst.Mint).
			WithDetails(map[string]any{"source": source.Key().String(), "destination": dest.Key().String()})
	}
	if err := inv.Authorizes(authority, src.Owner); err != nil {
		return err
	}
	if src.Amount < amount {
		return errors.ErrInsufficientFunds.
			WithMessage("token account %s holds %d, need %d", source.Key(), src.Amount, amount)
	}

	if source.Key().Equals(dest.Key()) {
		return nil
	}
	src.Amount -= amount
	if dst.Amount, err = addAmount(dst.Amount, amount); err != nil {
		return err
	}
	if err := source.SetData(src.Pack()); err != nil {
		return err
	}
	if err := dest.SetData(dst.Pack()); err != nil {
		return err
	}
	s.GetLogger().Debug("token transfer",
		"source", source.Key().String(), "destination", dest.Key().String(), "amount", amount)
	return nil
}

// CloseAccount deletes an empty token account, moving its lamports to dest.
func (s *Service) CloseAccount(inv *ledger.Invocation, acct, dest *ledger.AccountHandle, authority ledger.Authority) error {
	a, err := loadAccount(acct)
	if err != nil {
		return err
	}
	if acct.Key().Equals(dest.Key()) {
		return errors.ErrInvalidArgument.WithMessage("cannot close %s into itself", acct.Key())
	}
	if a.IsNative == nil && a.Amount != 0 {
		return errors.ErrNonNativeHasBalance.WithMessage("token account %s holds %d", acct.Key(), a.Amount)
	}
	closer := a.Owner
	if a.CloseAuthority != nil {
		closer = *a.CloseAuthority
	}
	if err := inv.Authorizes(authority, closer); err != nil {
		return err
	}

	if err := dest.AddLamports(acct.Lamports()); err != nil {
		return err
	}
	if err := acct.Reclaim(); err != nil {
		return err
	}
	s.GetLogger().Debug("token account closed", "account", acct.Key().String(), "destination", dest.Key().String())
	return nil
}

func addAmount(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errors.ErrCompute.WithMessage("token amount overflow adding %d to %d", b, a)
	}
	return sum, nil
}
