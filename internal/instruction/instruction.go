// Package instruction defines the booth program's instruction set and its
// wire format.
//
// An instruction is a borsh-encoded tagged union: one u8 variant tag followed
// by the variant's fields in declaration order, integers little-endian.
//
//	0 InitializeExchangeBooth  exchange_rate u64, rate_decimals u8, fee u64, fee_decimals u8
//	1 Deposit                  amount_a u64, amount_b u64
//	2 CloseExchangeBooth
//	3 Exchange                 amount u64
//	4 Withdraw
package instruction

import (
	"bytes"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"

	"github.com/lugondev/exchange-booth/internal/errors"
)

// Kind is the variant tag of an instruction.
type Kind uint8

const (
	KindInitialize Kind = 0
	KindDeposit    Kind = 1
	KindClose      Kind = 2
	KindExchange   Kind = 3
	KindWithdraw   Kind = 4
)

var kindNames = map[Kind]string{
	KindInitialize: "initialize",
	KindDeposit:    "deposit",
	KindClose:      "close",
	KindExchange:   "exchange",
	KindWithdraw:   "withdraw",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Instruction is one decoded booth instruction.
type Instruction interface {
	Kind() Kind
	ag_binary.EncoderDecoder
}

// InitializeExchangeBooth creates a booth with a fixed rate and fee.
type InitializeExchangeBooth struct {
	ExchangeRate uint64
	RateDecimals uint8
	Fee          uint64
	FeeDecimals  uint8
}

func (*InitializeExchangeBooth) Kind() Kind { return KindInitialize }

func (obj InitializeExchangeBooth) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	if err := encoder.Encode(obj.ExchangeRate); err != nil {
		return err
	}
	if err := encoder.Encode(obj.RateDecimals); err != nil {
		return err
	}
	if err := encoder.Encode(obj.Fee); err != nil {
		return err
	}
	return encoder.Encode(obj.FeeDecimals)
}

func (obj *InitializeExchangeBooth) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	if err := decoder.Decode(&obj.ExchangeRate); err != nil {
		return err
	}
	if err := decoder.Decode(&obj.RateDecimals); err != nil {
		return err
	}
	if err := decoder.Decode(&obj.Fee); err != nil {
		return err
	}
	return decoder.Decode(&obj.FeeDecimals)
}

// Deposit moves admin funds into both vaults.
type Deposit struct {
	AmountA uint64
	AmountB uint64
}

func (*Deposit) Kind() Kind { return KindDeposit }

func (obj Deposit) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	if err := encoder.Encode(obj.AmountA); err != nil {
		return err
	}
	return encoder.Encode(obj.AmountB)
}

func (obj *Deposit) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	if err := decoder.Decode(&obj.AmountA); err != nil {
		return err
	}
	return decoder.Decode(&obj.AmountB)
}

// CloseExchangeBooth drains and deletes a booth.
type CloseExchangeBooth struct{}

func (*CloseExchangeBooth) Kind() Kind { return KindClose }

func (CloseExchangeBooth) MarshalWithEncoder(*ag_binary.Encoder) error { return nil }

func (*CloseExchangeBooth) UnmarshalWithDecoder(*ag_binary.Decoder) error { return nil }

// Exchange trades Amount of the donor asset for the receiver asset.
type Exchange struct {
	Amount uint64
}

func (*Exchange) Kind() Kind { return KindExchange }

func (obj Exchange) MarshalWithEncoder(encoder *ag_binary.Encoder) error {
	return encoder.Encode(obj.Amount)
}

func (obj *Exchange) UnmarshalWithDecoder(decoder *ag_binary.Decoder) error {
	return decoder.Decode(&obj.Amount)
}

// Withdraw empties both vaults to the admin.
type Withdraw struct{}

func (*Withdraw) Kind() Kind { return KindWithdraw }

func (Withdraw) MarshalWithEncoder(*ag_binary.Encoder) error { return nil }

func (*Withdraw) UnmarshalWithDecoder(*ag_binary.Decoder) error { return nil }

func newVariant(k Kind) Instruction {
	switch k {
	case KindInitialize:
		return new(InitializeExchangeBooth)
	case KindDeposit:
		return new(Deposit)
	case KindClose:
		return new(CloseExchangeBooth)
	case KindExchange:
		return new(Exchange)
	case KindWithdraw:
		return new(Withdraw)
	default:
		return nil
	}
}

// Decode parses instruction data. Unknown tags, short buffers and trailing
// bytes fail with InvalidArgument.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, errors.ErrInvalidArgument.WithMessage("empty instruction data")
	}
	decoder := ag_binary.NewBorshDecoder(data)
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, errors.ErrInvalidArgument.WithCause(err)
	}
	ix := newVariant(Kind(tag))
	if ix == nil {
		return nil, errors.ErrInvalidArgument.WithMessage("unknown instruction tag %d", tag)
	}
	if err := ix.UnmarshalWithDecoder(decoder); err != nil {
		return nil, errors.ErrInvalidArgument.
			WithMessage("malformed %s instruction", ix.Kind()).
			WithCause(err)
	}
	if rest := decoder.Remaining(); rest > 0 {
		return nil, errors.ErrInvalidArgument.
			WithMessage("%d trailing bytes after %s instruction", rest, ix.Kind())
	}
	return ix, nil
}

// Encode serializes ix with its tag.
func Encode(ix Instruction) ([]byte, error) {
	var buf bytes.Buffer
	encoder := ag_binary.NewBorshEncoder(&buf)
	if err := encoder.WriteUint8(uint8(ix.Kind())); err != nil {
		return nil, err
	}
	if err := ix.MarshalWithEncoder(encoder); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ix.Kind(), err)
	}
	return buf.Bytes(), nil
}

// MustEncode is Encode that panics on error.
func MustEncode(ix Instruction) []byte {
	data, err := Encode(ix)
	if err != nil {
		panic(err)
	}
	return data
}

// KindOf returns the tag of raw instruction data without decoding the fields.
func KindOf(data []byte) (Kind, bool) {
	if len(data) == 0 {
		return 0, false
	}
	k := Kind(data[0])
	_, ok := kindNames[k]
	return k, ok
}
