package processor

import (
	"bytes"

	ag_binary "github.com/gagliardetto/binary"

	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/errors"
)

// ExchangeEvent is emitted as program data after a successful trade.
type ExchangeEvent struct {
	Direction convert.Direction
	AmountIn  uint64
	AmountOut uint64
}

func (obj ExchangeEvent) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	if err := encoder.WriteUint8(uint8(obj.Direction)); err != nil {
		return err
	}
	if err := encoder.Encode(obj.AmountIn); err != nil {
		return err
	}
	return encoder.Encode(obj.AmountOut)
}

func (obj *ExchangeEvent) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	direction, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	obj.Direction = convert.Direction(direction)
	if err := decoder.Decode(&obj.AmountIn); err != nil {
		return err
	}
	return decoder.Decode(&obj.AmountOut)
}

// Marshal encodes the event.
func (obj ExchangeEvent) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := obj.MarshalWithEncoder(ag_binary.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeExchangeEvent parses an event emitted by Exchange.
func DecodeExchangeEvent(data []byte) (*ExchangeEvent, error) {
	var obj ExchangeEvent
	if err := obj.UnmarshalWithDecoder(ag_binary.NewBorshDecoder(data)); err != nil {
		return nil, errors.ErrInvalidArgument.WithMessage("malformed exchange event").WithCause(err)
	}
	return &obj, nil
}
