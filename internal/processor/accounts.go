package processor

import (
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/state"
)

// take returns the first n account handles of inv.
func take(inv *ledger.Invocation, n int) ([]*ledger.AccountHandle, error) {
	if len(inv.Accounts) < n {
		return nil, errors.ErrNotEnoughAccountKeys.
			WithMessage("instruction needs %d accounts, got %d", n, len(inv.Accounts))
	}
	return inv.Accounts[:n], nil
}

type initializeAccounts struct {
	admin         *ledger.AccountHandle
	booth         *ledger.AccountHandle
	systemProgram *ledger.AccountHandle
	mintA         *ledger.AccountHandle
	mintB         *ledger.AccountHandle
	vaultA        *ledger.AccountHandle
	vaultB        *ledger.AccountHandle
	oracle        *ledger.AccountHandle
	tokenProgram  *ledger.AccountHandle
	rent          *ledger.AccountHandle
}

func parseInitialize(inv *ledger.Invocation) (*initializeAccounts, error) {
	a, err := take(inv, 10)
	if err != nil {
		return nil, err
	}
	return &initializeAccounts{
		admin: a[0], booth: a[1], systemProgram: a[2], mintA: a[3], mintB: a[4],
		vaultA: a[5], vaultB: a[6], oracle: a[7], tokenProgram: a[8], rent: a[9],
	}, nil
}

type depositAccounts struct {
	admin        *ledger.AccountHandle
	vaultA       *ledger.AccountHandle
	vaultB       *ledger.AccountHandle
	tokenProgram *ledger.AccountHandle
	sourceA      *ledger.AccountHandle
	sourceB      *ledger.AccountHandle
}

func parseDeposit(inv *ledger.Invocation) (*depositAccounts, error) {
	a, err := take(inv, 6)
	if err != nil {
		return nil, err
	}
	return &depositAccounts{
		admin: a[0], vaultA: a[1], vaultB: a[2], tokenProgram: a[3], sourceA: a[4], sourceB: a[5],
	}, nil
}

type exchangeAccounts struct {
	trader          *ledger.AccountHandle
	admin           *ledger.AccountHandle
	receiverVault   *ledger.AccountHandle
	donorVault      *ledger.AccountHandle
	receiverAccount *ledger.AccountHandle
	donorAccount    *ledger.AccountHandle
	oracle          *ledger.AccountHandle
	booth           *ledger.AccountHandle
	donorMint       *ledger.AccountHandle
	receiverMint    *ledger.AccountHandle
	tokenProgram    *ledger.AccountHandle
}

func parseExchange(inv *ledger.Invocation) (*exchangeAccounts, error) {
	a, err := take(inv, 11)
	if err != nil {
		return nil, err
	}
	return &exchangeAccounts{
		trader: a[0], admin: a[1], receiverVault: a[2], donorVault: a[3],
		receiverAccount: a[4], donorAccount: a[5], oracle: a[6], booth: a[7],
		donorMint: a[8], receiverMint: a[9], tokenProgram: a[10],
	}, nil
}

type withdrawAccounts struct {
	admin        *ledger.AccountHandle
	vaultA       *ledger.AccountHandle
	vaultB       *ledger.AccountHandle
	receiverA    *ledger.AccountHandle
	receiverB    *ledger.AccountHandle
	tokenProgram *ledger.AccountHandle
}

func parseWithdraw(inv *ledger.Invocation) (*withdrawAccounts, error) {
	a, err := take(inv, 6)
	if err != nil {
		return nil, err
	}
	return &withdrawAccounts{
		admin: a[0], vaultA: a[1], vaultB: a[2], receiverA: a[3], receiverB: a[4], tokenProgram: a[5],
	}, nil
}

type closeAccounts struct {
	admin        *ledger.AccountHandle
	booth        *ledger.AccountHandle
	vaultA       *ledger.AccountHandle
	vaultB       *ledger.AccountHandle
	mintA        *ledger.AccountHandle
	mintB        *ledger.AccountHandle
	destA        *ledger.AccountHandle
	destB        *ledger.AccountHandle
	oracle       *ledger.AccountHandle
	tokenProgram *ledger.AccountHandle
}

func parseClose(inv *ledger.Invocation) (*closeAccounts, error) {
	a, err := take(inv, 10)
	if err != nil {
		return nil, err
	}
	return &closeAccounts{
		admin: a[0], booth: a[1], vaultA: a[2], vaultB: a[3], mintA: a[4], mintB: a[5],
		destA: a[6], destB: a[7], oracle: a[8], tokenProgram: a[9],
	}, nil
}

// readBooth and readOracle check program ownership before decoding.
func (b *Booth) readBooth(h *ledger.AccountHandle) (*state.Booth, error) {
	if !h.IsOwnedBy(b.programID) {
		return nil, errors.ErrInvalidAccountData.WithMessage("booth %s is not owned by the program", h.Key())
	}
	return state.UnmarshalBooth(h.Data())
}

func (b *Booth) readOracle(h *ledger.AccountHandle) (*state.Oracle, error) {
	if !h.IsOwnedBy(b.programID) {
		return nil, errors.ErrInvalidAccountData.WithMessage("oracle %s is not owned by the program", h.Key())
	}
	return state.UnmarshalOracle(h.Data())
}
