// Package errors defines the error kinds returned by the exchange booth program
// and by the host collaborators it calls into.
//
// Program errors carry a numeric custom code that is stable across releases and
// is what a caller sees in an execution receipt. Host errors (decoding, ledger,
// system and token failures) carry only a string code and are passed through
// the booth handlers unchanged.
package errors

import (
	"errors"
	"fmt"
)

// Program error codes.
const (
	ErrCodeMissingRequiredSignature = "MISSING_REQUIRED_SIGNATURE"
	ErrCodeInvalidAccountAddress    = "INVALID_ACCOUNT_ADDRESS"
	ErrCodeCompute                  = "COMPUTE_ERROR"
	ErrCodeFeeOverMax               = "FEE_OVER_MAX"
	ErrCodeTooSmallAmount           = "TOO_SMALL_AMOUNT"
	ErrCodeConversion               = "CONVERSION_ERROR"
)

// Host error codes.
const (
	ErrCodeInvalidArgument       = "INVALID_ARGUMENT"
	ErrCodeNotEnoughAccountKeys  = "NOT_ENOUGH_ACCOUNT_KEYS"
	ErrCodeInvalidAccountData    = "INVALID_ACCOUNT_DATA"
	ErrCodeAccountAlreadyInUse   = "ACCOUNT_ALREADY_IN_USE"
	ErrCodeAccountNotWritable    = "ACCOUNT_NOT_WRITABLE"
	ErrCodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	ErrCodeUnbalancedInstruction = "UNBALANCED_INSTRUCTION"
	ErrCodeSignatureVerification = "SIGNATURE_VERIFICATION"
	ErrCodeOwnerMismatch         = "OWNER_MISMATCH"
	ErrCodeMintMismatch          = "MINT_MISMATCH"
	ErrCodeUninitializedAccount  = "UNINITIALIZED_ACCOUNT"
	ErrCodeNonNativeHasBalance   = "NON_NATIVE_HAS_BALANCE"
	ErrCodeUnknownProgram        = "UNKNOWN_PROGRAM"
)

// customCodes maps program error codes to their on-ledger numeric value.
var customCodes = map[string]uint32{
	ErrCodeMissingRequiredSignature: 0,
	ErrCodeInvalidAccountAddress:    1,
	ErrCodeCompute:                  2,
	ErrCodeFeeOverMax:               3,
	ErrCodeTooSmallAmount:           4,
	ErrCodeConversion:               5,
}

// BoothError is an error raised by the booth program or one of its collaborators.
type BoothError struct {
	// Code is a unique error code for this error kind.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context, such as the account role.
	Details map[string]any
}

// Error implements the error interface.
func (e *BoothError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *BoothError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error has the same code as target.
func (e *BoothError) Is(target error) bool {
	t, ok := target.(*BoothError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Custom returns the numeric program code, if the error is a program error.
func (e *BoothError) Custom() (uint32, bool) {
	c, ok := customCodes[e.Code]
	return c, ok
}

// WithCause returns a copy of the error with cause attached.
func (e *BoothError) WithCause(cause error) *BoothError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithMessage returns a copy of the error with a more specific message.
func (e *BoothError) WithMessage(format string, args ...any) *BoothError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithDetails returns a copy of the error with details attached.
func (e *BoothError) WithDetails(details map[string]any) *BoothError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewError creates a new BoothError.
func NewError(code, message string) *BoothError {
	return &BoothError{
		Code:    code,
		Message: message,
	}
}

// Program errors.
var (
	ErrMissingRequiredSignature = NewError(ErrCodeMissingRequiredSignature, "missing required signature")
	ErrInvalidAccountAddress    = NewError(ErrCodeInvalidAccountAddress, "invalid account address")
	ErrCompute                  = NewError(ErrCodeCompute, "arithmetic overflow")
	ErrFeeOverMax               = NewError(ErrCodeFeeOverMax, "fee is 100% or more")
	ErrTooSmallAmount           = NewError(ErrCodeTooSmallAmount, "amount converts to zero")
	ErrConversion               = NewError(ErrCodeConversion, "conversion result does not fit")
)

// Host errors.
var (
	ErrInvalidArgument       = NewError(ErrCodeInvalidArgument, "invalid instruction data")
	ErrNotEnoughAccountKeys  = NewError(ErrCodeNotEnoughAccountKeys, "not enough account keys")
	ErrInvalidAccountData    = NewError(ErrCodeInvalidAccountData, "invalid account data")
	ErrAccountAlreadyInUse   = NewError(ErrCodeAccountAlreadyInUse, "account already in use")
	ErrAccountNotWritable    = NewError(ErrCodeAccountNotWritable, "account is not writable")
	ErrInsufficientFunds     = NewError(ErrCodeInsufficientFunds, "insufficient funds")
	ErrUnbalancedInstruction = NewError(ErrCodeUnbalancedInstruction, "sum of account balances changed")
	ErrSignatureVerification = NewError(ErrCodeSignatureVerification, "signature verification failed")
	ErrOwnerMismatch         = NewError(ErrCodeOwnerMismatch, "owner does not match")
	ErrMintMismatch          = NewError(ErrCodeMintMismatch, "account mint does not match")
	ErrUninitializedAccount  = NewError(ErrCodeUninitializedAccount, "account is not initialized")
	ErrNonNativeHasBalance   = NewError(ErrCodeNonNativeHasBalance, "token account has a non-zero balance")
	ErrUnknownProgram        = NewError(ErrCodeUnknownProgram, "unknown program")
)

// InvalidAccountAddress reports a mismatch for the named account role.
func InvalidAccountAddress(role string) *BoothError {
	return ErrInvalidAccountAddress.
		WithMessage("invalid account address for %s", role).
		WithDetails(map[string]any{"role": role})
}

// MissingSignature reports that the named role did not sign.
func MissingSignature(role string) *BoothError {
	return ErrMissingRequiredSignature.
		WithMessage("%s must sign", role).
		WithDetails(map[string]any{"role": role})
}

// CodeOf returns the code of the first BoothError in err's chain, or "" if none.
func CodeOf(err error) string {
	var be *BoothError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// CustomOf returns the numeric program code carried by err, if any.
func CustomOf(err error) (uint32, bool) {
	var be *BoothError
	if errors.As(err, &be) {
		return be.Custom()
	}
	return 0, false
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
