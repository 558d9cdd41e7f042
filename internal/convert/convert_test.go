package convert

import (
	"math"
	"testing"

	"github.com/lugondev/exchange-booth/internal/errors"
)

func TestConvertScaledScenarios(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want uint64
	}{
		{
			// 0.1 A at 0.5 with a 0.1 fee is 0.18 B, truncated to one decimal.
			name: "a to b all scales one",
			p:    Params{Rate: 5, Amount: 1, Fee: 1, Direction: ToB, RateDecimals: 1, DecimalsA: 1, DecimalsB: 1, FeeDecimals: 1},
			want: 1,
		},
		{
			name: "a to b target with two decimals",
			p:    Params{Rate: 5, Amount: 1, Fee: 1, Direction: ToB, RateDecimals: 1, DecimalsA: 1, DecimalsB: 2, FeeDecimals: 1},
			want: 18,
		},
		{
			// 0.1 B at 0.5 with a 0.1 fee is 0.045 A, truncated to one decimal.
			name: "b to a all scales one",
			p:    Params{Rate: 5, Amount: 1, Fee: 1, Direction: ToA, RateDecimals: 1, DecimalsA: 1, DecimalsB: 1, FeeDecimals: 1},
			want: 0,
		},
		{
			name: "b to a target with two decimals",
			p:    Params{Rate: 5, Amount: 1, Fee: 1, Direction: ToA, RateDecimals: 1, DecimalsA: 2, DecimalsB: 1, FeeDecimals: 1},
			want: 4,
		},
		{
			name: "near u64 max",
			p:    Params{Rate: 1, Amount: 18_400_000_000_000_000_000, Fee: 1, Direction: ToB, FeeDecimals: 1},
			want: 16_560_000_000_000_000_000,
		},
		{
			name: "zero fee identity",
			p:    Params{Rate: 1, Amount: 12345, Direction: ToA},
			want: 12345,
		},
		{
			name: "zero amount",
			p:    Params{Rate: 7, Amount: 0, Fee: 3, Direction: ToA, DecimalsA: 60, FeeDecimals: 2},
			want: 0,
		},
		{
			name: "divisor beyond 256 bits",
			p:    Params{Rate: 1, Amount: math.MaxUint64, Direction: ToA, DecimalsB: 200},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	inputs := []Params{
		{Rate: 5, Amount: 1, Fee: 1, Direction: ToB, RateDecimals: 1, DecimalsA: 1, DecimalsB: 2, FeeDecimals: 1},
		{Rate: 333, Amount: 987654321, Fee: 25, Direction: ToA, RateDecimals: 2, DecimalsA: 9, DecimalsB: 6, FeeDecimals: 4},
		{Rate: 7, Amount: math.MaxUint64 / 3, Fee: 0, Direction: ToB, RateDecimals: 0, DecimalsA: 3, DecimalsB: 0, FeeDecimals: 0},
	}
	for _, p := range inputs {
		first, err1 := Convert(p)
		for i := 0; i < 100; i++ {
			again, err2 := Convert(p)
			if again != first || (err1 == nil) != (err2 == nil) {
				t.Fatalf("non-deterministic result for %+v: %d/%v vs %d/%v", p, first, err1, again, err2)
			}
		}
	}
}

func TestConvertFeeBound(t *testing.T) {
	for fd := uint8(0); fd <= 19; fd++ {
		base := uint64(1)
		for i := uint8(0); i < fd; i++ {
			base *= 10
		}
		for _, fee := range []uint64{base, base + 1, math.MaxUint64} {
			for _, dir := range []Direction{ToA, ToB} {
				_, err := Convert(Params{Rate: 3, Amount: 10, Fee: fee, Direction: dir, FeeDecimals: fd})
				if !errors.Is(err, errors.ErrFeeOverMax) {
					t.Fatalf("fee %d / 10^%d %s: got %v, want FeeOverMax", fee, fd, dir, err)
				}
				if !errors.Is(ValidateFee(fee, fd), errors.ErrFeeOverMax) {
					t.Fatalf("ValidateFee(%d, %d) accepted", fee, fd)
				}
			}
		}
		if err := ValidateFee(base-1, fd); err != nil {
			t.Fatalf("ValidateFee(%d, %d): %v", base-1, fd, err)
		}
	}

	// 110% with one fee decimal.
	_, err := Convert(Params{Rate: 5, Amount: 1, Fee: 11, Direction: ToB, RateDecimals: 1, DecimalsA: 1, DecimalsB: 1, FeeDecimals: 1})
	if !errors.Is(err, errors.ErrFeeOverMax) {
		t.Fatalf("got %v, want FeeOverMax", err)
	}
}

func TestFeeScaleLimit(t *testing.T) {
	if err := ValidateFee(1, maxPow10); err != nil {
		t.Fatalf("ValidateFee(1, %d): %v", maxPow10, err)
	}
	for _, fd := range []uint8{maxPow10 + 1, math.MaxUint8} {
		if err := ValidateFee(0, fd); !errors.Is(err, errors.ErrConversion) {
			t.Errorf("ValidateFee(0, %d) = %v, want Conversion", fd, err)
		}
		_, err := Convert(Params{Rate: 1, Amount: 1, Direction: ToB, FeeDecimals: fd})
		if !errors.Is(err, errors.ErrConversion) {
			t.Errorf("Convert with fee decimals %d = %v, want Conversion", fd, err)
		}
	}
}

func TestConvertOverflow(t *testing.T) {
	t.Run("wide intermediate stays exact", func(t *testing.T) {
		// amount*10^2 overflows u64 but the quotient fits.
		got, err := Convert(Params{Rate: 100, Amount: 10_000_000_000_000_000_000, Direction: ToB, DecimalsB: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 10_000_000_000_000_000_000 {
			t.Errorf("got %d", got)
		}
	})

	t.Run("result wider than u64", func(t *testing.T) {
		_, err := Convert(Params{Rate: math.MaxUint64, Amount: math.MaxUint64, Direction: ToA, DecimalsA: 30})
		if !errors.Is(err, errors.ErrConversion) {
			t.Fatalf("got %v, want ConversionError", err)
		}
	})

	t.Run("intermediate wider than 256 bits", func(t *testing.T) {
		_, err := Convert(Params{Rate: math.MaxUint64, Amount: math.MaxUint64, Direction: ToA, DecimalsA: 255})
		if !errors.Is(err, errors.ErrConversion) {
			t.Fatalf("got %v, want ConversionError", err)
		}
	})

	t.Run("one past u64", func(t *testing.T) {
		_, err := Convert(Params{Rate: 1, Amount: math.MaxUint64, Direction: ToA, DecimalsA: 1})
		if !errors.Is(err, errors.ErrConversion) {
			t.Fatalf("got %v, want ConversionError", err)
		}
	})

	t.Run("zero rate", func(t *testing.T) {
		_, err := Convert(Params{Rate: 0, Amount: 1, Direction: ToB})
		if !errors.Is(err, errors.ErrConversion) {
			t.Fatalf("got %v, want ConversionError", err)
		}
	})
}

func TestConvertDirectionsAreNotInverses(t *testing.T) {
	out, err := Convert(Params{Rate: 3, Amount: 100, Direction: ToB})
	if err != nil {
		t.Fatal(err)
	}
	if out != 33 {
		t.Fatalf("A->B got %d, want 33", out)
	}
	back, err := Convert(Params{Rate: 3, Amount: out, Direction: ToA})
	if err != nil {
		t.Fatal(err)
	}
	if back != 99 {
		t.Fatalf("B->A got %d, want 99", back)
	}
}

func TestUnknownDirection(t *testing.T) {
	_, err := Convert(Params{Rate: 1, Amount: 1, Direction: Direction(9)})
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("got %v", err)
	}
}
