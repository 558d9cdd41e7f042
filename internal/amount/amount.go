// Package amount converts between human decimal strings and the scaled
// integers the booth stores.
package amount

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/lugondev/exchange-booth/internal/errors"
)

// ToBaseUnits scales s by 10^decimals. It fails if the result is negative,
// fractional or wider than u64.
func ToBaseUnits(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.ErrInvalidArgument.WithMessage("invalid amount %q", s).WithCause(err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, errors.ErrInvalidArgument.WithMessage("amount %s has more than %d decimals", s, decimals)
	}
	return toUint64(scaled.BigInt(), s)
}

// FromBaseUnits returns v as a decimal with the given number of decimals.
func FromBaseUnits(v uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -int32(decimals))
}

// Format renders v with exactly decimals fractional digits.
func Format(v uint64, decimals uint8) string {
	return FromBaseUnits(v, decimals).StringFixed(int32(decimals))
}

// Scaled splits a decimal string into an integer and its power-of-ten
// scale, keeping the written precision: "0.50" is (50, 2).
func Scaled(s string) (uint64, uint8, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, 0, errors.ErrInvalidArgument.WithMessage("invalid decimal %q", s).WithCause(err)
	}
	exp := d.Exponent()
	if exp >= 0 {
		v, err := toUint64(d.BigInt(), s)
		return v, 0, err
	}
	if exp < -255 {
		return 0, 0, errors.ErrInvalidArgument.WithMessage("decimal %s has too many digits", s)
	}
	v, err := toUint64(d.Coefficient(), s)
	return v, uint8(-exp), err
}

func toUint64(v *big.Int, s string) (uint64, error) {
	if v.Sign() < 0 {
		return 0, errors.ErrInvalidArgument.WithMessage("negative amount %s", s)
	}
	if !v.IsUint64() {
		return 0, errors.ErrInvalidArgument.WithMessage("amount %s does not fit in 64 bits", s)
	}
	return v.Uint64(), nil
}
