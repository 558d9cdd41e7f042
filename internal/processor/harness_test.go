package processor_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/config"
	"github.com/lugondev/exchange-booth/internal/instruction"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/processor"
	"github.com/lugondev/exchange-booth/internal/runtime"
	"github.com/lugondev/exchange-booth/internal/state"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

var programID = solana.MustPublicKeyFromBase58(config.DefaultProgramID)

func newKey() types.Pubkey {
	return solana.NewWallet().PublicKey()
}

// harness is a ledger with one admin, one trader, two mints and a token
// account per (party, mint).
type harness struct {
	t   *testing.T
	ctx context.Context
	rt  *runtime.Runtime

	admin    solana.PrivateKey
	trader   solana.PrivateKey
	mintAuth solana.PrivateKey

	mintA, mintB     types.Pubkey
	adminA, adminB   types.Pubkey
	traderA, traderB types.Pubkey

	addrs *address.BoothAddresses
}

func newHarness(t *testing.T, decimalsA, decimalsB uint8, opts ...processor.Option) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		rt:       runtime.New(ledger.New()),
		admin:    solana.NewWallet().PrivateKey,
		trader:   solana.NewWallet().PrivateKey,
		mintAuth: solana.NewWallet().PrivateKey,
		mintA:    newKey(),
		mintB:    newKey(),
	}
	h.rt.Register(programID, processor.NewBooth(programID, opts...))

	require.NoError(t, h.rt.Airdrop(h.ctx, h.admin.PublicKey(), 10*types.LamportsPerSOL))
	require.NoError(t, h.rt.Airdrop(h.ctx, h.trader.PublicKey(), types.LamportsPerSOL))
	require.NoError(t, h.rt.CreateMint(h.ctx, h.mintA, h.mintAuth.PublicKey(), decimalsA))
	require.NoError(t, h.rt.CreateMint(h.ctx, h.mintB, h.mintAuth.PublicKey(), decimalsB))

	h.adminA = h.tokenAccount(h.mintA, h.admin.PublicKey())
	h.adminB = h.tokenAccount(h.mintB, h.admin.PublicKey())
	h.traderA = h.tokenAccount(h.mintA, h.trader.PublicKey())
	h.traderB = h.tokenAccount(h.mintB, h.trader.PublicKey())

	h.addrs = address.MustDeriveBoothAddresses(programID, h.admin.PublicKey(), h.mintA, h.mintB)
	return h
}

func (h *harness) tokenAccount(mint, owner types.Pubkey) types.Pubkey {
	key := newKey()
	require.NoError(h.t, h.rt.CreateTokenAccount(h.ctx, key, mint, owner))
	return key
}

func (h *harness) mint(mint, dest types.Pubkey, amount uint64) {
	require.NoError(h.t, h.rt.MintTo(h.ctx, mint, dest, h.mintAuth.PublicKey(), amount))
}

func (h *harness) balance(key types.Pubkey) uint64 {
	amount, err := h.rt.TokenBalance(key)
	require.NoError(h.t, err)
	return amount
}

func (h *harness) run(ix types.Instruction, err error, signers ...solana.PrivateKey) (*runtime.Receipt, error) {
	require.NoError(h.t, err)
	return h.rt.Execute(h.ctx, runtime.NewTransaction(ix, signers...))
}

func (h *harness) initialize(rate uint64, rateDecimals uint8, fee uint64, feeDecimals uint8) (*runtime.Receipt, error) {
	ix, err := instruction.NewInitializeInstruction(programID, h.admin.PublicKey(), h.mintA, h.mintB,
		instruction.InitializeExchangeBooth{
			ExchangeRate: rate, RateDecimals: rateDecimals, Fee: fee, FeeDecimals: feeDecimals,
		})
	return h.run(ix, err, h.admin)
}

func (h *harness) mustInitialize(rate uint64, rateDecimals uint8, fee uint64, feeDecimals uint8) {
	_, err := h.initialize(rate, rateDecimals, fee, feeDecimals)
	require.NoError(h.t, err)
}

func (h *harness) deposit(amountA, amountB uint64) (*runtime.Receipt, error) {
	ix, err := instruction.NewDepositInstruction(programID, h.admin.PublicKey(), h.mintA, h.mintB,
		h.adminA, h.adminB, amountA, amountB)
	return h.run(ix, err, h.admin)
}

// fund mints into the admin accounts and deposits everything into the vaults.
func (h *harness) fund(amountA, amountB uint64) {
	h.mint(h.mintA, h.adminA, amountA)
	h.mint(h.mintB, h.adminB, amountB)
	_, err := h.deposit(amountA, amountB)
	require.NoError(h.t, err)
}

func (h *harness) exchangeIx(donorMint types.Pubkey, amount uint64) types.Instruction {
	donor, receiver := h.traderA, h.traderB
	if donorMint.Equals(h.mintB) {
		donor, receiver = receiver, donor
	}
	ix, err := instruction.NewExchangeInstruction(programID, instruction.ExchangeAccounts{
		Trader:          h.trader.PublicKey(),
		Admin:           h.admin.PublicKey(),
		MintA:           h.mintA,
		MintB:           h.mintB,
		DonorMint:       donorMint,
		DonorAccount:    donor,
		ReceiverAccount: receiver,
	}, amount)
	require.NoError(h.t, err)
	return ix
}

func (h *harness) exchange(donorMint types.Pubkey, amount uint64) (*runtime.Receipt, error) {
	return h.rt.Execute(h.ctx, runtime.NewTransaction(h.exchangeIx(donorMint, amount), h.trader))
}

func (h *harness) withdraw() (*runtime.Receipt, error) {
	ix, err := instruction.NewWithdrawInstruction(programID, h.admin.PublicKey(), h.mintA, h.mintB, h.adminA, h.adminB)
	return h.run(ix, err, h.admin)
}

func (h *harness) close() (*runtime.Receipt, error) {
	ix, err := instruction.NewCloseInstruction(programID, h.admin.PublicKey(), h.mintA, h.mintB, h.adminA, h.adminB)
	return h.run(ix, err, h.admin)
}

func (h *harness) oracleRecord() *state.Oracle {
	acct, ok := h.rt.Ledger().Get(h.addrs.Oracle.Address)
	require.True(h.t, ok, "oracle missing")
	rec, err := state.UnmarshalOracle(acct.Data)
	require.NoError(h.t, err)
	return rec
}

func (h *harness) boothRecord() *state.Booth {
	acct, ok := h.rt.Ledger().Get(h.addrs.Booth.Address)
	require.True(h.t, ok, "booth missing")
	rec, err := state.UnmarshalBooth(acct.Data)
	require.NoError(h.t, err)
	return rec
}

func (h *harness) vaultOwner(vault types.Pubkey) types.Pubkey {
	acct, ok := h.rt.Ledger().Get(vault)
	require.True(h.t, ok, "vault missing")
	require.Equal(h.t, token.ProgramID, acct.Owner)
	content, err := token.UnpackAccount(acct.Data)
	require.NoError(h.t, err)
	return content.Owner
}
