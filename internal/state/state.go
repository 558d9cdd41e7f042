// Package state holds the records the booth program persists: the booth
// (fee) and the oracle (rate). Both are 9 bytes, little-endian, no padding.
package state

import (
	"bytes"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"

	"github.com/lugondev/exchange-booth/internal/errors"
)

// RecordSize is the encoded size of both records.
const RecordSize = 9

// Booth holds the fee of one exchange booth: Fee / 10^FeeDecimals.
type Booth struct {
	Fee         uint64
	FeeDecimals uint8
}

func (obj Booth) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	if err := encoder.Encode(obj.Fee); err != nil {
		return err
	}
	return encoder.Encode(obj.FeeDecimals)
}

func (obj *Booth) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	if err := decoder.Decode(&obj.Fee); err != nil {
		return err
	}
	return decoder.Decode(&obj.FeeDecimals)
}

// Oracle holds the reference rate of one booth: ExchangeRate / 10^RateDecimals
// units of A per unit of B.
type Oracle struct {
	ExchangeRate uint64
	RateDecimals uint8
}

func (obj Oracle) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	if err := encoder.Encode(obj.ExchangeRate); err != nil {
		return err
	}
	return encoder.Encode(obj.RateDecimals)
}

func (obj *Oracle) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	if err := decoder.Decode(&obj.ExchangeRate); err != nil {
		return err
	}
	return decoder.Decode(&obj.RateDecimals)
}

// Marshal encodes the booth record.
func (obj Booth) Marshal() ([]byte, error) {
	return encode(obj)
}

// Marshal encodes the oracle record.
func (obj Oracle) Marshal() ([]byte, error) {
	return encode(obj)
}

// UnmarshalBooth decodes a booth record, failing with InvalidAccountData on any size mismatch.
func UnmarshalBooth(data []byte) (*Booth, error) {
	var obj Booth
	if err := decode(data, &obj, "booth"); err != nil {
		return nil, err
	}
	return &obj, nil
}

// UnmarshalOracle decodes an oracle record, failing with InvalidAccountData on any size mismatch.
func UnmarshalOracle(data []byte) (*Oracle, error) {
	var obj Oracle
	if err := decode(data, &obj, "oracle"); err != nil {
		return nil, err
	}
	return &obj, nil
}

func encode(obj ag_binary.BinaryMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := obj.MarshalWithEncoder(ag_binary.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, obj ag_binary.BinaryUnmarshaler, kind string) error {
	if len(data) != RecordSize {
		return errors.ErrInvalidAccountData.
			WithMessage("%s record is %d bytes, want %d", kind, len(data), RecordSize)
	}
	if err := obj.UnmarshalWithDecoder(ag_binary.NewBorshDecoder(data)); err != nil {
		return errors.ErrInvalidAccountData.WithCause(fmt.Errorf("decode %s: %w", kind, err))
	}
	return nil
}
