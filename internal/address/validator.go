package address

import (
	"log/slog"

	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// Role names an account slot of an instruction.
type Role string

const (
	RoleAdmin           Role = "booth admin"
	RoleTrader          Role = "exchange performer"
	RoleOracle          Role = "Oracle"
	RoleBooth           Role = "Exchange Booth"
	RoleVaultA          Role = "Vault A"
	RoleVaultB          Role = "Vault B"
	RoleReceiverVault   Role = "receiver vault"
	RoleDonorVault      Role = "donor vault"
	RoleMintA           Role = "mint A"
	RoleMintB           Role = "mint B"
	RoleDonorMint       Role = "donor mint"
	RoleReceiverMint    Role = "receiver mint"
	RoleSourceA         Role = "source A"
	RoleSourceB         Role = "source B"
	RoleReceiverA       Role = "receiver A"
	RoleReceiverB       Role = "receiver B"
	RoleDestinationA    Role = "destination A"
	RoleDestinationB    Role = "destination B"
	RoleDonorAccount    Role = "donor account"
	RoleReceiverAccount Role = "receiver account"
	RoleTokenProgram    Role = "Token Program"
	RoleSystemProgram   Role = "System Program"
	RoleRentSysvar      Role = "Rent Program"
)

// Signer is an account slot that may carry a transaction signature.
type Signer interface {
	Key() types.Pubkey
	IsSigner() bool
}

// LogFunc receives one formatted program log line.
type LogFunc func(format string, args ...any)

// Validator checks caller-supplied accounts against their derivations.
// Every failure is logged, naming the role, before it is returned.
type Validator struct {
	programID types.Pubkey
	logger    *slog.Logger
	log       LogFunc
}

// NewValidator creates a validator for programID. log may be nil.
func NewValidator(programID types.Pubkey, logger *slog.Logger, log LogFunc) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{programID: programID, logger: logger, log: log}
}

// ProgramID returns the program the validator derives addresses for.
func (v *Validator) ProgramID() types.Pubkey {
	return v.programID
}

func (v *Validator) fail(err *errors.BoothError, role Role, attrs ...any) error {
	if v.log != nil {
		v.log("%s", err.Message)
	}
	v.logger.Debug(err.Message, append([]any{"role", string(role)}, attrs...)...)
	return err
}

// RequireSigner fails with MissingRequiredSignature unless acct signed the transaction.
func (v *Validator) RequireSigner(role Role, acct Signer) error {
	if acct.IsSigner() {
		return nil
	}
	return v.fail(errors.ErrMissingRequiredSignature.
		WithMessage("No signature for %s", role).
		WithDetails(map[string]any{"role": string(role)}), role, "account", acct.Key().String())
}

// ExpectAddress fails with InvalidAccountAddress unless got equals want.
func (v *Validator) ExpectAddress(role Role, want, got types.Pubkey) error {
	if want.Equals(got) {
		return nil
	}
	return v.fail(errors.InvalidAccountAddress(string(role)), role,
		"expected", want.String(), "got", got.String())
}

// ExpectDerived derives seeds and checks got against the result.
func (v *Validator) ExpectDerived(role Role, seeds Seeds, got types.Pubkey) (Derived, error) {
	d, err := Derive(v.programID, seeds)
	if err != nil {
		return Derived{}, err
	}
	if err := v.ExpectAddress(role, d.Address, got); err != nil {
		return Derived{}, err
	}
	return d, nil
}

// ExpectProgram checks a collaborator program slot.
func (v *Validator) ExpectProgram(role Role, want, got types.Pubkey) error {
	return v.ExpectAddress(role, want, got)
}

// ExpectMint fails with InvalidAccountAddress unless an account's asset type equals the bound one.
func (v *Validator) ExpectMint(role Role, bound, got types.Pubkey) error {
	if bound.Equals(got) {
		return nil
	}
	return v.fail(errors.ErrInvalidAccountAddress.
		WithMessage("Mint of %s does not match", role).
		WithDetails(map[string]any{"role": string(role)}), role,
		"expected", bound.String(), "got", got.String())
}

// ExpectDistinct fails with InvalidAccountAddress when both mints of a pair are the same.
func (v *Validator) ExpectDistinct(role Role, a, b types.Pubkey) error {
	if !a.Equals(b) {
		return nil
	}
	return v.fail(errors.ErrInvalidAccountAddress.
		WithMessage("Mints of %s must differ", role).
		WithDetails(map[string]any{"role": string(role)}), role, "mint", a.String())
}

// ExchangeDirection infers the direction of a trade from the oracle address.
// The oracle of (admin, donor, receiver) means the trader gives asset A; the
// oracle of (admin, receiver, donor) means the trader gives asset B.
func (v *Validator) ExchangeDirection(admin, donorMint, receiverMint, oracle types.Pubkey) (convert.Direction, Derived, error) {
	toB, err := DeriveOracle(v.programID, admin, donorMint, receiverMint)
	if err != nil {
		return 0, Derived{}, err
	}
	if toB.Address.Equals(oracle) {
		return convert.ToB, toB, nil
	}

	toA, err := DeriveOracle(v.programID, admin, receiverMint, donorMint)
	if err != nil {
		return 0, Derived{}, err
	}
	if toA.Address.Equals(oracle) {
		return convert.ToA, toA, nil
	}

	return 0, Derived{}, v.fail(errors.InvalidAccountAddress(string(RoleOracle)), RoleOracle,
		"got", oracle.String(), "a_to_b", toB.Address.String(), "b_to_a", toA.Address.String())
}
