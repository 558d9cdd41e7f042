// Package system is the storage allocator: it creates accounts, funds them
// and moves native lamports between system-owned accounts.
package system

import (
	"log/slog"

	"github.com/lugondev/exchange-booth/internal/common"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// ProgramID is the address of the system program.
var ProgramID = ledger.SystemProgramID

// MaxPermittedDataLength is the largest account the allocator creates.
const MaxPermittedDataLength = 10 * 1024 * 1024

// Service executes system operations against the accounts of an invocation.
type Service struct {
	common.LoggerMixin
}

// NewService creates a system service.
func NewService() *Service {
	return &Service{LoggerMixin: common.NewLoggerMixin()}
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	s.SetLogger(logger)
	return s
}

// CreateAccount funds to with lamports from from, allocates space bytes and
// assigns it to owner. payer must act as from and newAccount as to.
func (s *Service) CreateAccount(
	inv *ledger.Invocation,
	from *ledger.AccountHandle, payer ledger.Authority,
	to *ledger.AccountHandle, newAccount ledger.Authority,
	lamports, space uint64, owner types.Pubkey,
) error {
	if err := inv.Authorizes(payer, from.Key()); err != nil {
		return err
	}
	if err := inv.Authorizes(newAccount, to.Key()); err != nil {
		return err
	}
	if to.Lamports() != 0 || len(to.Data()) != 0 || !to.IsOwnedBy(ProgramID) {
		inv.Log("Create Account: account %s already in use", to.Key())
		return errors.ErrAccountAlreadyInUse.
			WithMessage("account %s already in use", to.Key()).
			WithDetails(map[string]any{"account": to.Key().String()})
	}
	if space > MaxPermittedDataLength {
		return errors.ErrInvalidArgument.WithMessage("requested %d bytes, max %d", space, MaxPermittedDataLength)
	}
	if err := requireSystemOwned(from); err != nil {
		return err
	}
	if from.Lamports() < lamports {
		inv.Log("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return errors.ErrInsufficientFunds.
			WithMessage("payer %s holds %d lamports, need %d", from.Key(), from.Lamports(), lamports)
	}

	if err := from.SubLamports(lamports); err != nil {
		return err
	}
	if err := to.AddLamports(lamports); err != nil {
		return err
	}
	if err := to.Allocate(int(space)); err != nil {
		return err
	}
	if err := to.Assign(owner); err != nil {
		return err
	}
	s.GetLogger().Debug("account created",
		"account", to.Key().String(), "owner", owner.String(), "space", space, "lamports", lamports)
	return nil
}

// Transfer moves lamports between accounts. payer must act as from.
func (s *Service) Transfer(inv *ledger.Invocation, from *ledger.AccountHandle, payer ledger.Authority, to *ledger.AccountHandle, lamports uint64) error {
	if err := inv.Authorizes(payer, from.Key()); err != nil {
		return err
	}
	if err := requireSystemOwned(from); err != nil {
		return err
	}
	if from.Lamports() < lamports {
		inv.Log("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return errors.ErrInsufficientFunds.
			WithMessage("account %s holds %d lamports, need %d", from.Key(), from.Lamports(), lamports)
	}
	if from.Key().Equals(to.Key()) {
		return nil
	}
	if err := from.SubLamports(lamports); err != nil {
		return err
	}
	return to.AddLamports(lamports)
}

func requireSystemOwned(h *ledger.AccountHandle) error {
	if !h.IsOwnedBy(ProgramID) || len(h.Data()) != 0 {
		return errors.ErrInvalidAccountData.
			WithMessage("from account %s must be a plain system account", h.Key())
	}
	return nil
}
