package processor

import (
	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/token"
)

func (b *Booth) withdraw(inv *ledger.Invocation, v *address.Validator) error {
	acc, err := parseWithdraw(inv)
	if err != nil {
		return err
	}

	if err := v.RequireSigner(address.RoleAdmin, acc.admin); err != nil {
		return err
	}
	vaults, err := b.loadVaults(v, acc.admin.Key(), acc.vaultA, acc.vaultB)
	if err != nil {
		return err
	}
	if err := v.ExpectProgram(address.RoleTokenProgram, token.ProgramID, acc.tokenProgram.Key()); err != nil {
		return err
	}

	receiverA, err := token.ReadAccount(acc.receiverA)
	if err != nil {
		return err
	}
	receiverB, err := token.ReadAccount(acc.receiverB)
	if err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleReceiverA, vaults.mintA, receiverA.Mint); err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleReceiverB, vaults.mintB, receiverB.Mint); err != nil {
		return err
	}

	legs := []struct {
		vault    *ledger.AccountHandle
		receiver *ledger.AccountHandle
		seeds    [][]byte
		amount   uint64
	}{
		{acc.vaultA, acc.receiverA, vaults.addrs.VaultA.SignerSeeds(), vaults.vaultA.Amount},
		{acc.vaultB, acc.receiverB, vaults.addrs.VaultB.SignerSeeds(), vaults.vaultB.Amount},
	}
	for _, leg := range legs {
		auth, err := inv.DerivedSigner(leg.seeds)
		if err != nil {
			return err
		}
		if err := b.token.Transfer(inv, leg.vault, leg.receiver, auth, leg.amount); err != nil {
			return err
		}
	}

	b.GetLogger().Info("booth withdraw",
		"booth", vaults.addrs.Booth.Address.String(),
		"amount_a", vaults.vaultA.Amount,
		"amount_b", vaults.vaultB.Amount,
	)
	return nil
}
