package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"0.1", 1, 1, false},
		{"0.18", 2, 18, false},
		{"1.5", 6, 1_500_000, false},
		{"42", 0, 42, false},
		{"18446744073709551615", 0, 18446744073709551615, false},
		{"18446744073709551616", 0, 0, true},
		{"0.05", 1, 0, true},
		{"-1", 0, 0, true},
		{"abc", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToBaseUnits(tt.in, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.18", Format(18, 2))
	assert.Equal(t, "1.0", Format(10, 1))
	assert.Equal(t, "7", Format(7, 0))
	assert.True(t, FromBaseUnits(1_500_000, 6).Equal(FromBaseUnits(15, 1)))
}

func TestScaled(t *testing.T) {
	tests := []struct {
		in       string
		value    uint64
		decimals uint8
	}{
		{"0.5", 5, 1},
		{"0.50", 50, 2},
		{"0.1", 1, 1},
		{"2", 2, 0},
		{"0.0025", 25, 4},
	}
	for _, tt := range tests {
		v, d, err := Scaled(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.value, v, tt.in)
		assert.Equal(t, tt.decimals, d, tt.in)
	}

	_, _, err := Scaled("-0.5")
	assert.Error(t, err)
	_, _, err = Scaled("x")
	assert.Error(t, err)
}
