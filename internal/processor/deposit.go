package processor

import (
	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// boothVaults are the verified vaults of one booth.
type boothVaults struct {
	addrs  *address.BoothAddresses
	mintA  types.Pubkey
	mintB  types.Pubkey
	vaultA *token.Account
	vaultB *token.Account
}

// loadVaults reads the mints bound to the supplied vaults and checks that
// the vaults are the ones derived for admin's booth of those mints.
func (b *Booth) loadVaults(v *address.Validator, admin types.Pubkey, vaultA, vaultB *ledger.AccountHandle) (*boothVaults, error) {
	contentA, err := token.ReadAccount(vaultA)
	if err != nil {
		return nil, err
	}
	contentB, err := token.ReadAccount(vaultB)
	if err != nil {
		return nil, err
	}

	addrs, err := address.DeriveBoothAddresses(b.programID, admin, contentA.Mint, contentB.Mint)
	if err != nil {
		return nil, err
	}
	if err := v.ExpectAddress(address.RoleVaultA, addrs.VaultA.Address, vaultA.Key()); err != nil {
		return nil, err
	}
	if err := v.ExpectAddress(address.RoleVaultB, addrs.VaultB.Address, vaultB.Key()); err != nil {
		return nil, err
	}
	return &boothVaults{
		addrs:  addrs,
		mintA:  contentA.Mint,
		mintB:  contentB.Mint,
		vaultA: contentA,
		vaultB: contentB,
	}, nil
}

func (b *Booth) deposit(inv *ledger.Invocation, v *address.Validator, ix *instruction.Deposit) error {
	acc, err := parseDeposit(inv)
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

	sourceA, err := token.ReadAccount(acc.sourceA)
	if err != nil {
		return err
	}
	sourceB, err := token.ReadAccount(acc.sourceB)
	if err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleSourceA, vaults.mintA, sourceA.Mint); err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleSourceB, vaults.mintB, sourceB.Mint); err != nil {
		return err
	}

	auth, err := inv.Signer(acc.admin)
	if err != nil {
		return err
	}
	if err := b.token.Transfer(inv, acc.sourceA, acc.vaultA, auth, ix.AmountA); err != nil {
		return err
	}
	if err := b.token.Transfer(inv, acc.sourceB, acc.vaultB, auth, ix.AmountB); err != nil {
		return err
	}

	b.GetLogger().Info("booth deposit",
		"booth", vaults.addrs.Booth.Address.String(), "amount_a", ix.AmountA, "amount_b", ix.AmountB)
	return nil
}
