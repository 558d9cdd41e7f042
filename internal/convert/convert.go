// Package convert prices a booth trade: it turns an amount of one asset into
// an amount of the other at a fixed-point rate, less a fixed-point fee.
//
// Every quantity is an unsigned integer with its own power-of-ten scale.
// Intermediates are computed in 256 bits with checked multiplication so a
// result is either exact (truncated toward zero) or an error, never wrapped.
package convert

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/lugondev/exchange-booth/internal/errors"
)

// Direction selects which asset the trader gives up.
type Direction uint8

const (
	// ToB converts an amount of asset A into asset B.
	ToB Direction = iota
	// ToA converts an amount of asset B into asset A.
	ToA
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case ToB:
		return "A->B"
	case ToA:
		return "B->A"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Params are the inputs of a conversion. Rate is the price of one B in A.
type Params struct {
	Rate      uint64
	Amount    uint64
	Fee       uint64
	Direction Direction

	RateDecimals uint8
	DecimalsA    uint8
	DecimalsB    uint8
	FeeDecimals  uint8
}

// maxPow10 is the largest exponent whose power of ten fits in 256 bits.
const maxPow10 = 77

var powers [maxPow10 + 1]uint256.Int

func init() {
	powers[0].SetOne()
	ten := uint256.NewInt(10)
	for i := 1; i <= maxPow10; i++ {
		powers[i].Mul(&powers[i-1], ten)
	}
}

// pow10 returns 10^n, or false if it does not fit in 256 bits.
func pow10(n int) (*uint256.Int, bool) {
	if n < 0 || n > maxPow10 {
		return nil, false
	}
	return new(uint256.Int).Set(&powers[n]), true
}

// ValidateFee rejects fees of 100% or more, and fee scales Convert cannot
// represent.
func ValidateFee(fee uint64, feeDecimals uint8) error {
	base, ok := pow10(int(feeDecimals))
	if !ok {
		return errors.ErrConversion.WithMessage("fee scale 10^%d overflows", feeDecimals)
	}
	if uint256.NewInt(fee).Cmp(base) >= 0 {
		return errors.ErrFeeOverMax.WithMessage("fee %d with %d decimals is 100%% or more", fee, feeDecimals)
	}
	return nil
}

// Convert returns the output amount for p.
//
// With net exponent d:
//
//	A->B: d = decB + rateDec - decA - feeDec, out = amount * 10^d * (10^feeDec - fee) / rate
//	B->A: d = decA - decB - rateDec - feeDec, out = amount * 10^d * rate * (10^feeDec - fee)
//
// A negative d divides by 10^-d instead.
func Convert(p Params) (uint64, error) {
	feeBase, ok := pow10(int(p.FeeDecimals))
	if !ok {
		return 0, errors.ErrConversion.WithMessage("fee scale 10^%d overflows", p.FeeDecimals)
	}
	fee := uint256.NewInt(p.Fee)
	if fee.Cmp(feeBase) >= 0 {
		return 0, errors.ErrFeeOverMax.WithMessage("fee %d with %d decimals is 100%% or more", p.Fee, p.FeeDecimals)
	}
	koeff := new(uint256.Int).Sub(feeBase, fee)

	var (
		exp     int
		factors []*uint256.Int
		divisor = uint256.NewInt(1)
	)
	switch p.Direction {
	case ToB:
		if p.Rate == 0 {
			return 0, errors.ErrConversion.WithMessage("zero rate")
		}
		exp = int(p.DecimalsB) + int(p.RateDecimals) - int(p.DecimalsA) - int(p.FeeDecimals)
		factors = []*uint256.Int{koeff}
		divisor.SetUint64(p.Rate)
	case ToA:
		exp = int(p.DecimalsA) - int(p.DecimalsB) - int(p.RateDecimals) - int(p.FeeDecimals)
		factors = []*uint256.Int{uint256.NewInt(p.Rate), koeff}
	default:
		return 0, errors.ErrInvalidArgument.WithMessage("unknown direction %s", p.Direction)
	}

	num := uint256.NewInt(p.Amount)
	for _, f := range factors {
		var overflow bool
		if num, overflow = new(uint256.Int).MulOverflow(num, f); overflow {
			return 0, overflowErr(p)
		}
	}
	if num.IsZero() {
		return 0, nil
	}

	if exp >= 0 {
		scale, ok := pow10(exp)
		if !ok {
			return 0, overflowErr(p)
		}
		var overflow bool
		if num, overflow = new(uint256.Int).MulOverflow(num, scale); overflow {
			return 0, overflowErr(p)
		}
	} else {
		scale, ok := pow10(-exp)
		if !ok {
			// The divisor exceeds any 256-bit numerator.
			return 0, nil
		}
		var overflow bool
		if divisor, overflow = new(uint256.Int).MulOverflow(divisor, scale); overflow {
			return 0, nil
		}
	}

	out := new(uint256.Int).Div(num, divisor)
	if !out.IsUint64() {
		return 0, overflowErr(p)
	}
	return out.Uint64(), nil
}

func overflowErr(p Params) error {
	return errors.ErrConversion.WithMessage("converting %d %s overflows", p.Amount, p.Direction)
}
