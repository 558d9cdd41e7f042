// Package types provides the base ledger types shared by the booth program,
// its collaborators and its clients. Keys and signatures are the solana-go types.
package types

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Pubkey is a 32-byte account address.
type Pubkey = solana.PublicKey

// Signature is a 64-byte ed25519 signature.
type Signature = solana.Signature

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = solana.LAMPORTS_PER_SOL

// Account is the state stored at one address.
type Account struct {
	// Lamports is the native balance of the account.
	Lamports uint64 `json:"lamports"`

	// Data is the program-defined content of the account.
	Data []byte `json:"data"`

	// Owner is the program allowed to modify Data and debit Lamports.
	Owner Pubkey `json:"owner"`

	// Executable indicates if the account contains a program.
	Executable bool `json:"executable"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cp := *a
	if a.Data != nil {
		cp.Data = bytes.Clone(a.Data)
	}
	return &cp
}

// IsEmpty reports whether the account holds neither lamports nor data.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// Equal reports whether two accounts hold identical state.
func (a *Account) Equal(b *Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner.Equals(b.Owner) &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}

// AccountMeta describes a single account involved in an instruction.
type AccountMeta struct {
	// Pubkey is the public key of the account.
	Pubkey Pubkey `json:"pubkey"`

	// IsSigner indicates if the account is a signer.
	IsSigner bool `json:"is_signer"`

	// IsWritable indicates if the account is writable.
	IsWritable bool `json:"is_writable"`
}

// NewAccountMeta creates a meta for key with the given flags.
func NewAccountMeta(key Pubkey, signer, writable bool) AccountMeta {
	return AccountMeta{Pubkey: key, IsSigner: signer, IsWritable: writable}
}

// Instruction is a program call: the program, its ordered accounts and its data.
type Instruction struct {
	// ProgramID is the program that will process this instruction.
	ProgramID Pubkey `json:"program_id"`

	// Accounts is the ordered list of accounts passed to the program.
	Accounts []AccountMeta `json:"accounts"`

	// Data is the encoded instruction.
	Data []byte `json:"data"`
}

// Message returns the canonical bytes signed by every signer of the instruction.
func (ix *Instruction) Message() []byte {
	var buf bytes.Buffer
	buf.Write(ix.ProgramID[:])
	for _, meta := range ix.Accounts {
		buf.Write(meta.Pubkey[:])
		var flags byte
		if meta.IsSigner {
			flags |= 1
		}
		if meta.IsWritable {
			flags |= 2
		}
		buf.WriteByte(flags)
	}
	buf.Write(ix.Data)
	return buf.Bytes()
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(LamportsPerSOL)
}
