package instruction

import (
	"fmt"

	"github.com/lugondev/exchange-booth/internal/address"
	"github.com/lugondev/exchange-booth/internal/ledger"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Account lists are positional. Each builder derives the booth addresses
// from (admin, mint A, mint B) and lays the metas out in the order the
// program reads them.

func build(programID types.Pubkey, ix Instruction, metas []types.AccountMeta) (types.Instruction, error) {
	data, err := Encode(ix)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{ProgramID: programID, Accounts: metas, Data: data}, nil
}

func signer(key types.Pubkey) types.AccountMeta   { return types.NewAccountMeta(key, true, true) }
func writable(key types.Pubkey) types.AccountMeta { return types.NewAccountMeta(key, false, true) }
func readonly(key types.Pubkey) types.AccountMeta { return types.NewAccountMeta(key, false, false) }

// NewInitializeInstruction builds InitializeExchangeBooth for admin's (mintA, mintB) booth.
func NewInitializeInstruction(programID, admin, mintA, mintB types.Pubkey, args InitializeExchangeBooth) (types.Instruction, error) {
	addrs, err := address.DeriveBoothAddresses(programID, admin, mintA, mintB)
	if err != nil {
		return types.Instruction{}, err
	}
	return build(programID, &args, []types.AccountMeta{
		signer(admin),
		writable(addrs.Booth.Address),
		readonly(ledger.SystemProgramID),
		readonly(mintA),
		readonly(mintB),
		writable(addrs.VaultA.Address),
		writable(addrs.VaultB.Address),
		writable(addrs.Oracle.Address),
		readonly(token.ProgramID),
		readonly(ledger.RentSysvarID),
	})
}

// NewDepositInstruction builds Deposit moving amountA from sourceA and amountB from sourceB.
func NewDepositInstruction(programID, admin, mintA, mintB, sourceA, sourceB types.Pubkey, amountA, amountB uint64) (types.Instruction, error) {
	addrs, err := address.DeriveBoothAddresses(programID, admin, mintA, mintB)
	if err != nil {
		return types.Instruction{}, err
	}
	return build(programID, &Deposit{AmountA: amountA, AmountB: amountB}, []types.AccountMeta{
		signer(admin),
		writable(addrs.VaultA.Address),
		writable(addrs.VaultB.Address),
		readonly(token.ProgramID),
		writable(sourceA),
		writable(sourceB),
	})
}

// ExchangeAccounts identifies a trade against admin's (MintA, MintB) booth.
// DonorMint is the asset the trader gives and must be MintA or MintB.
type ExchangeAccounts struct {
	Trader          types.Pubkey
	Admin           types.Pubkey
	MintA           types.Pubkey
	MintB           types.Pubkey
	DonorMint       types.Pubkey
	DonorAccount    types.Pubkey
	ReceiverAccount types.Pubkey
}

// NewExchangeInstruction builds Exchange giving amount of the donor asset.
func NewExchangeInstruction(programID types.Pubkey, accts ExchangeAccounts, amount uint64) (types.Instruction, error) {
	var receiverMint types.Pubkey
	switch {
	case accts.DonorMint.Equals(accts.MintA):
		receiverMint = accts.MintB
	case accts.DonorMint.Equals(accts.MintB):
		receiverMint = accts.MintA
	default:
		return types.Instruction{}, fmt.Errorf("donor mint %s is not part of the booth", accts.DonorMint)
	}

	addrs, err := address.DeriveBoothAddresses(programID, accts.Admin, accts.MintA, accts.MintB)
	if err != nil {
		return types.Instruction{}, err
	}
	receiverVault, donorVault := addrs.VaultA.Address, addrs.VaultB.Address
	if accts.DonorMint.Equals(accts.MintB) {
		receiverVault, donorVault = donorVault, receiverVault
	}

	return build(programID, &Exchange{Amount: amount}, []types.AccountMeta{
		types.NewAccountMeta(accts.Trader, true, false),
		readonly(accts.Admin),
		writable(receiverVault),
		writable(donorVault),
		writable(accts.ReceiverAccount),
		writable(accts.DonorAccount),
		readonly(addrs.Oracle.Address),
		readonly(addrs.Booth.Address),
		readonly(accts.DonorMint),
		readonly(receiverMint),
		readonly(token.ProgramID),
	})
}

// NewWithdrawInstruction builds Withdraw paying both vaults out to receiverA and receiverB.
func NewWithdrawInstruction(programID, admin, mintA, mintB, receiverA, receiverB types.Pubkey) (types.Instruction, error) {
	addrs, err := address.DeriveBoothAddresses(programID, admin, mintA, mintB)
	if err != nil {
		return types.Instruction{}, err
	}
	return build(programID, &Withdraw{}, []types.AccountMeta{
		signer(admin),
		writable(addrs.VaultA.Address),
		writable(addrs.VaultB.Address),
		writable(receiverA),
		writable(receiverB),
		readonly(token.ProgramID),
	})
}

// NewCloseInstruction builds CloseExchangeBooth draining the vaults to destA and destB.
func NewCloseInstruction(programID, admin, mintA, mintB, destA, destB types.Pubkey) (types.Instruction, error) {
	addrs, err := address.DeriveBoothAddresses(programID, admin, mintA, mintB)
	if err != nil {
		return types.Instruction{}, err
	}
	return build(programID, &CloseExchangeBooth{}, []types.AccountMeta{
		signer(admin),
		writable(addrs.Booth.Address),
		writable(addrs.VaultA.Address),
		writable(addrs.VaultB.Address),
		readonly(mintA),
		readonly(mintB),
		writable(destA),
		writable(destB),
		writable(addrs.Oracle.Address),
		readonly(token.ProgramID),
	})
}
