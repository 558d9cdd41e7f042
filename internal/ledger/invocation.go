package ledger

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Invocation is one program call: the program, its ordered account handles
// and its instruction data.
type Invocation struct {
	ProgramID types.Pubkey
	Accounts  []*AccountHandle
	Data      []byte

	rent Rent
	logs []string
}

// NewInvocation creates an invocation of program over accounts.
func NewInvocation(program types.Pubkey, accounts []*AccountHandle, data []byte, rent Rent) *Invocation {
	return &Invocation{
		ProgramID: program,
		Accounts:  accounts,
		Data:      data,
		rent:      rent,
	}
}

// Rent returns the rent parameters in effect.
func (inv *Invocation) Rent() Rent {
	return inv.rent
}

// Log appends a "Program log:" line.
func (inv *Invocation) Log(format string, args ...any) {
	inv.logs = append(inv.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// Emit appends a "Program data:" line carrying data in base64.
func (inv *Invocation) Emit(data []byte) {
	inv.logs = append(inv.logs, "Program data: "+base64.StdEncoding.EncodeToString(data))
}

// Logs returns the log lines in order.
func (inv *Invocation) Logs() []string {
	return inv.logs
}

// Authority is the capability to act as the owner of an account. It can be
// obtained only from the Invocation it is used with, either from a handle
// carrying a verified signature or from the seeds of an address derived
// from the invoking program.
type Authority struct {
	key     types.Pubkey
	derived bool
	issuer  *Invocation
}

// Key returns the address the authority acts as.
func (a Authority) Key() types.Pubkey { return a.key }

// Derived reports whether the authority comes from program seeds.
func (a Authority) Derived() bool { return a.derived }

// Signer issues the authority of a handle that signed the transaction.
func (inv *Invocation) Signer(h *AccountHandle) (Authority, error) {
	if !h.IsSigner() {
		return Authority{}, errors.MissingSignature(h.Key().String())
	}
	return Authority{key: h.Key(), issuer: inv}, nil
}

// DerivedSigner issues the authority of the address the invoking program
// derives from seeds. The last seed is the bump.
func (inv *Invocation) DerivedSigner(seeds [][]byte) (Authority, error) {
	key, err := solana.CreateProgramAddress(seeds, inv.ProgramID)
	if err != nil {
		return Authority{}, errors.ErrInvalidArgument.WithMessage("invalid signer seeds").WithCause(err)
	}
	return Authority{key: key, derived: true, issuer: inv}, nil
}

// Authorizes checks that auth was issued by inv and acts as owner.
func (inv *Invocation) Authorizes(auth Authority, owner types.Pubkey) error {
	if auth.issuer != inv {
		return errors.MissingSignature(owner.String())
	}
	if !auth.key.Equals(owner) {
		return errors.ErrOwnerMismatch.
			WithMessage("authority %s does not own the account, owner is %s", auth.key, owner)
	}
	return nil
}
