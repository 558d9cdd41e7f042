package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/exchange-booth/internal/errors"
)

func TestBoothLayout(t *testing.T) {
	data, err := Booth{Fee: 0x0102030405060708, FeeDecimals: 9}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1, 9}, data)

	got, err := UnmarshalBooth(data)
	require.NoError(t, err)
	assert.Equal(t, &Booth{Fee: 0x0102030405060708, FeeDecimals: 9}, got)
}

func TestOracleLayout(t *testing.T) {
	data, err := Oracle{ExchangeRate: math.MaxUint64, RateDecimals: 255}.Marshal()
	require.NoError(t, err)
	assert.Len(t, data, RecordSize)

	got, err := UnmarshalOracle(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.ExchangeRate)
	assert.Equal(t, uint8(255), got.RateDecimals)
}

func TestUnmarshalRejectsWrongSize(t *testing.T) {
	for _, data := range [][]byte{nil, make([]byte, 8), make([]byte, 10), make([]byte, 165)} {
		_, err := UnmarshalBooth(data)
		assert.True(t, errors.Is(err, errors.ErrInvalidAccountData), "booth %d bytes", len(data))
		_, err = UnmarshalOracle(data)
		assert.True(t, errors.Is(err, errors.ErrInvalidAccountData), "oracle %d bytes", len(data))
	}
}
