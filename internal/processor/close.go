package processor

import (
	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/token"
)

func (b *Booth) close(inv *ledger.Invocation, v *address.Validator) error {
	acc, err := parseClose(inv)
	if err != nil {
		return err
	}
	admin, mintA, mintB := acc.admin.Key(), acc.mintA.Key(), acc.mintB.Key()

	if err := v.RequireSigner(address.RoleAdmin, acc.admin); err != nil {
		return err
	}

	oracle, err := v.ExpectDerived(address.RoleOracle, address.OracleSeeds(admin, mintA, mintB), acc.oracle.Key())
	if err != nil {
		return err
	}
	booth, err := v.ExpectDerived(address.RoleBooth, address.BoothSeeds(oracle.Address), acc.booth.Key())
	if err != nil {
		return err
	}
	vaultA, err := v.ExpectDerived(address.RoleVaultA, address.VaultSeeds(booth.Address, mintA), acc.vaultA.Key())
	if err != nil {
		return err
	}
	vaultB, err := v.ExpectDerived(address.RoleVaultB, address.VaultSeeds(booth.Address, mintB), acc.vaultB.Key())
	if err != nil {
		return err
	}
	if err := v.ExpectProgram(address.RoleTokenProgram, token.ProgramID, acc.tokenProgram.Key()); err != nil {
		return err
	}

	if _, err := b.readOracle(acc.oracle); err != nil {
		return err
	}
	if _, err := b.readBooth(acc.booth); err != nil {
		return err
	}
	contentA, err := token.ReadAccount(acc.vaultA)
	if err != nil {
		return err
	}
	contentB, err := token.ReadAccount(acc.vaultB)
	if err != nil {
		return err
	}

	legs := []struct {
		vault  *ledger.AccountHandle
		dest   *ledger.AccountHandle
		seeds  [][]byte
		amount uint64
	}{
		{acc.vaultA, acc.destA, vaultA.SignerSeeds(), contentA.Amount},
		{acc.vaultB, acc.destB, vaultB.SignerSeeds(), contentB.Amount},
	}
	for _, leg := range legs {
		auth, err := inv.DerivedSigner(leg.seeds)
		if err != nil {
			return err
		}
		if err := b.token.Transfer(inv, leg.vault, leg.dest, auth, leg.amount); err != nil {
			return err
		}
	}
	for _, leg := range legs {
		auth, err := inv.DerivedSigner(leg.seeds)
		if err != nil {
			return err
		}
		if err := b.token.CloseAccount(inv, leg.vault, leg.dest, auth); err != nil {
			return err
		}
	}

	reclaimed := acc.booth.Lamports() + acc.oracle.Lamports()
	if reclaimed < acc.booth.Lamports() {
		return errors.ErrCompute.WithMessage("reclaimed lamports overflow")
	}
	if err := acc.admin.AddLamports(reclaimed); err != nil {
		return err
	}
	if err := acc.booth.Reclaim(); err != nil {
		return err
	}
	if err := acc.oracle.Reclaim(); err != nil {
		return err
	}

	b.GetLogger().Info("booth closed",
		"booth", booth.Address.String(),
		"amount_a", contentA.Amount,
		"amount_b", contentB.Amount,
		"reclaimed_lamports", reclaimed,
	)
	return nil
}
