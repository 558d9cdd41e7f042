package processor

import (
	"context"

	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/metrics"
	"github.com/lugondev/exchange-booth/internal/token"
)

func (b *Booth) exchange(ctx context.Context, inv *ledger.Invocation, v *address.Validator, ix *instruction.Exchange, m *metrics.Collection) error {
	acc, err := parseExchange(inv)
	if err != nil {
		return err
	}
	admin, donorMint, receiverMint := acc.admin.Key(), acc.donorMint.Key(), acc.receiverMint.Key()

	if err := v.RequireSigner(address.RoleTrader, acc.trader); err != nil {
		return err
	}
	if err := v.ExpectDistinct(address.RoleReceiverMint, donorMint, receiverMint); err != nil {
		return err
	}

	direction, _, err := v.ExchangeDirection(admin, donorMint, receiverMint, acc.oracle.Key())
	if err != nil {
		return err
	}
	booth, err := v.ExpectDerived(address.RoleBooth, address.BoothSeeds(acc.oracle.Key()), acc.booth.Key())
	if err != nil {
		return err
	}
	if _, err := v.ExpectDerived(address.RoleReceiverVault,
		address.VaultSeeds(booth.Address, donorMint), acc.receiverVault.Key()); err != nil {
		return err
	}
	donorVault, err := v.ExpectDerived(address.RoleDonorVault,
		address.VaultSeeds(booth.Address, receiverMint), acc.donorVault.Key())
	if err != nil {
		return err
	}
	if err := v.ExpectProgram(address.RoleTokenProgram, token.ProgramID, acc.tokenProgram.Key()); err != nil {
		return err
	}

	donorAccount, err := token.ReadAccount(acc.donorAccount)
	if err != nil {
		return err
	}
	receiverAccount, err := token.ReadAccount(acc.receiverAccount)
	if err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleDonorAccount, donorMint, donorAccount.Mint); err != nil {
		return err
	}
	if err := v.ExpectMint(address.RoleReceiverAccount, receiverMint, receiverAccount.Mint); err != nil {
		return err
	}

	donorMintContent, err := token.ReadMint(acc.donorMint)
	if err != nil {
		return err
	}
	receiverMintContent, err := token.ReadMint(acc.receiverMint)
	if err != nil {
		return err
	}
	oracle, err := b.readOracle(acc.oracle)
	if err != nil {
		return err
	}
	fee, err := b.readBooth(acc.booth)
	if err != nil {
		return err
	}

	// Mint A is the donor when trading A->B and the receiver otherwise.
	decimalsA, decimalsB := donorMintContent.Decimals, receiverMintContent.Decimals
	if direction == convert.ToA {
		decimalsA, decimalsB = decimalsB, decimalsA
	}
	out, err := convert.Convert(convert.Params{
		Rate:         oracle.ExchangeRate,
		Amount:       ix.Amount,
		Fee:          fee.Fee,
		Direction:    direction,
		RateDecimals: oracle.RateDecimals,
		DecimalsA:    decimalsA,
		DecimalsB:    decimalsB,
		FeeDecimals:  fee.FeeDecimals,
	})
	if err != nil {
		inv.Log("Conversion failed")
		return err
	}
	if out == 0 && b.rejectZeroOutput {
		inv.Log("Amount %d converts to zero", ix.Amount)
		return errors.ErrTooSmallAmount.WithMessage("%d %s converts to zero", ix.Amount, direction)
	}

	trader, err := inv.Signer(acc.trader)
	if err != nil {
		return err
	}
	if err := b.token.Transfer(inv, acc.donorAccount, acc.receiverVault, trader, ix.Amount); err != nil {
		return err
	}
	vault, err := inv.DerivedSigner(donorVault.SignerSeeds())
	if err != nil {
		return err
	}
	if err := b.token.Transfer(inv, acc.donorVault, acc.receiverAccount, vault, out); err != nil {
		return err
	}

	event, err := ExchangeEvent{Direction: direction, AmountIn: ix.Amount, AmountOut: out}.Marshal()
	if err != nil {
		return err
	}
	inv.Emit(event)

	if m != nil {
		_ = m.IncrementCounter(ctx, metrics.MetricExchangeVolumeIn, ix.Amount)
		_ = m.IncrementCounter(ctx, metrics.MetricExchangeVolumeOut, out)
	}
	b.GetLogger().Info("booth exchange",
		"booth", booth.Address.String(),
		"trader", acc.trader.Key().String(),
		"direction", direction.String(),
		"amount_in", ix.Amount,
		"amount_out", out,
	)
	return nil
}
