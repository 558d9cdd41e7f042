package processor

import (
	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/state"
	"github.com/lugondev/exchange-booth/internal/system"
	"github.com/lugondev/exchange-booth/internal/token"
)

func (b *Booth) initialize(inv *ledger.Invocation, v *address.Validator, ix *instruction.InitializeExchangeBooth) error {
	acc, err := parseInitialize(inv)
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

	if err := v.ExpectProgram(address.RoleSystemProgram, system.ProgramID, acc.systemProgram.Key()); err != nil {
		return err
	}
	if err := v.ExpectProgram(address.RoleTokenProgram, token.ProgramID, acc.tokenProgram.Key()); err != nil {
		return err
	}
	if err := v.ExpectProgram(address.RoleRentSysvar, ledger.RentSysvarID, acc.rent.Key()); err != nil {
		return err
	}

	if err := v.ExpectDistinct(address.RoleMintB, mintA, mintB); err != nil {
		return err
	}
	if err := convert.ValidateFee(ix.Fee, ix.FeeDecimals); err != nil {
		if errors.Is(err, errors.ErrFeeOverMax) {
			inv.Log("Fee is 100%% or more")
		} else {
			inv.Log("Fee decimals %d are out of range", ix.FeeDecimals)
		}
		return err
	}

	payer, err := inv.Signer(acc.admin)
	if err != nil {
		return err
	}
	rent := inv.Rent()

	vaults := []struct {
		handle  *ledger.AccountHandle
		mint    *ledger.AccountHandle
		derived address.Derived
	}{
		{acc.vaultA, acc.mintA, vaultA},
		{acc.vaultB, acc.mintB, vaultB},
	}
	for _, vault := range vaults {
		auth, err := inv.DerivedSigner(vault.derived.SignerSeeds())
		if err != nil {
			return err
		}
		if err := b.system.CreateAccount(inv, acc.admin, payer, vault.handle, auth,
			rent.MinimumBalance(token.AccountSize), token.AccountSize, token.ProgramID); err != nil {
			return err
		}
		// A vault is its own owner so only the derived authority can move its funds.
		if err := b.token.InitializeAccount(inv, vault.handle, vault.mint, vault.handle.Key()); err != nil {
			return err
		}
	}

	records := []struct {
		handle  *ledger.AccountHandle
		derived address.Derived
	}{
		{acc.oracle, oracle},
		{acc.booth, booth},
	}
	for _, rec := range records {
		auth, err := inv.DerivedSigner(rec.derived.SignerSeeds())
		if err != nil {
			return err
		}
		if err := b.system.CreateAccount(inv, acc.admin, payer, rec.handle, auth,
			rent.MinimumBalance(state.RecordSize), state.RecordSize, b.programID); err != nil {
			return err
		}
	}

	oracleData, err := state.Oracle{ExchangeRate: ix.ExchangeRate, RateDecimals: ix.RateDecimals}.Marshal()
	if err != nil {
		return err
	}
	if err := acc.oracle.SetData(oracleData); err != nil {
		return err
	}
	boothData, err := state.Booth{Fee: ix.Fee, FeeDecimals: ix.FeeDecimals}.Marshal()
	if err != nil {
		return err
	}
	if err := acc.booth.SetData(boothData); err != nil {
		return err
	}

	b.GetLogger().Info("booth initialized",
		"booth", booth.Address.String(),
		"admin", admin.String(),
		"mint_a", mintA.String(),
		"mint_b", mintB.String(),
		"rate", ix.ExchangeRate,
		"rate_decimals", ix.RateDecimals,
		"fee", ix.Fee,
		"fee_decimals", ix.FeeDecimals,
	)
	return nil
}
