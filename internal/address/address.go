// Package address derives the program-owned addresses of a booth and
// validates caller-supplied accounts against them.
//
// Seeds:
//
//	oracle = (admin, mint A, mint B)
//	booth  = (oracle)
//	vault  = (booth, mint)
//
// An address that does not match its derivation is not part of the booth.
package address

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/pkg/types"
)

// Seeds is an ordered seed tuple, without the bump.
type Seeds [][]byte

// OracleSeeds returns the seeds of the oracle of admin's (mintA, mintB) booth.
func OracleSeeds(admin, mintA, mintB types.Pubkey) Seeds {
	return Seeds{admin.Bytes(), mintA.Bytes(), mintB.Bytes()}
}

// BoothSeeds returns the seeds of the booth bound to oracle.
func BoothSeeds(oracle types.Pubkey) Seeds {
	return Seeds{oracle.Bytes()}
}

// VaultSeeds returns the seeds of the booth's vault for mint.
func VaultSeeds(booth, mint types.Pubkey) Seeds {
	return Seeds{booth.Bytes(), mint.Bytes()}
}

// Derived is an address found from seeds together with its bump.
type Derived struct {
	Address types.Pubkey
	Bump    uint8
	Seeds   Seeds
}

// SignerSeeds returns the seeds with the bump appended, as needed to sign for the address.
func (d Derived) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(d.Seeds)+1)
	out = append(out, d.Seeds...)
	return append(out, []byte{d.Bump})
}

// Derive finds the program address for seeds under programID.
func Derive(programID types.Pubkey, seeds Seeds) (Derived, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Derived{}, fmt.Errorf("derive program address: %w", err)
	}
	return Derived{Address: addr, Bump: bump, Seeds: seeds}, nil
}

// DeriveOracle derives the oracle of the booth admin runs for (mintA, mintB).
func DeriveOracle(programID, admin, mintA, mintB types.Pubkey) (Derived, error) {
	return Derive(programID, OracleSeeds(admin, mintA, mintB))
}

// DeriveBooth derives the booth record bound to oracle.
func DeriveBooth(programID, oracle types.Pubkey) (Derived, error) {
	return Derive(programID, BoothSeeds(oracle))
}

// DeriveVault derives the booth's vault for mint.
func DeriveVault(programID, booth, mint types.Pubkey) (Derived, error) {
	return Derive(programID, VaultSeeds(booth, mint))
}

// BoothAddresses are every derived address of one booth.
type BoothAddresses struct {
	Oracle Derived
	Booth  Derived
	VaultA Derived
	VaultB Derived
}

// DeriveBoothAddresses derives the oracle, booth and both vaults of admin's (mintA, mintB) booth.
func DeriveBoothAddresses(programID, admin, mintA, mintB types.Pubkey) (*BoothAddresses, error) {
	oracle, err := DeriveOracle(programID, admin, mintA, mintB)
	if err != nil {
		return nil, err
	}
	booth, err := DeriveBooth(programID, oracle.Address)
	if err != nil {
		return nil, err
	}
	vaultA, err := DeriveVault(programID, booth.Address, mintA)
	if err != nil {
		return nil, err
	}
	vaultB, err := DeriveVault(programID, booth.Address, mintB)
	if err != nil {
		return nil, err
	}
	return &BoothAddresses{Oracle: oracle, Booth: booth, VaultA: vaultA, VaultB: vaultB}, nil
}

// MustDeriveBoothAddresses is DeriveBoothAddresses that panics on error.
func MustDeriveBoothAddresses(programID, admin, mintA, mintB types.Pubkey) *BoothAddresses {
	addrs, err := DeriveBoothAddresses(programID, admin, mintA, mintB)
	if err != nil {
		panic(fmt.Errorf("derive booth addresses: %w", err))
	}
	return addrs
}
