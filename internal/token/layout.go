package token

import (
	"encoding/binary"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/pkg/types"
)

const (
	// AccountSize is the packed size of a token account.
	AccountSize = 165
	// MintSize is the packed size of a mint.
	MintSize = 82
)

// AccountState is the lifecycle state of a token account.
type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

func (s AccountState) String() string {
	switch s {
	case AccountStateUninitialized:
		return "Uninitialized"
	case AccountStateInitialized:
		return "Initialized"
	case AccountStateFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// Account is a holding of one mint.
type Account struct {
	Mint            types.Pubkey
	Owner           types.Pubkey
	Amount          uint64
	Delegate        *types.Pubkey
	State           AccountState
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *types.Pubkey
}

// Mint describes one asset type.
type Mint struct {
	MintAuthority   *types.Pubkey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *types.Pubkey
}

func getKey(data []byte) types.Pubkey {
	var k types.Pubkey
	copy(k[:], data[:32])
	return k
}

func getOptionKey(data []byte) *types.Pubkey {
	if binary.LittleEndian.Uint32(data[0:4]) != 1 {
		return nil
	}
	k := getKey(data[4:36])
	return &k
}

func putOptionKey(data []byte, k *types.Pubkey) {
	if k == nil {
		return
	}
	binary.LittleEndian.PutUint32(data[0:4], 1)
	copy(data[4:36], k[:])
}

// UnpackAccount decodes a token account. Uninitialized accounts fail with UninitializedAccount.
func UnpackAccount(data []byte) (*Account, error) {
	acct, err := unpackAccount(data)
	if err != nil {
		return nil, err
	}
	if acct.State == AccountStateUninitialized {
		return nil, errors.ErrUninitializedAccount
	}
	return acct, nil
}

func unpackAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, errors.ErrInvalidAccountData.WithMessage("token account is %d bytes, want %d", len(data), AccountSize)
	}

	acct := &Account{
		Mint:            getKey(data[0:32]),
		Owner:           getKey(data[32:64]),
		Amount:          binary.LittleEndian.Uint64(data[64:72]),
		Delegate:        getOptionKey(data[72:108]),
		State:           AccountState(data[108]),
		DelegatedAmount: binary.LittleEndian.Uint64(data[121:129]),
		CloseAuthority:  getOptionKey(data[129:165]),
	}
	if acct.State > AccountStateFrozen {
		return nil, errors.ErrInvalidAccountData.WithMessage("invalid token account state %d", data[108])
	}
	if binary.LittleEndian.Uint32(data[109:113]) == 1 {
		isNative := binary.LittleEndian.Uint64(data[113:121])
		acct.IsNative = &isNative
	}
	return acct, nil
}

// Pack encodes the account.
func (a *Account) Pack() []byte {
	data := make([]byte, AccountSize)
	copy(data[0:32], a.Mint[:])
	copy(data[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(data[64:72], a.Amount)
	putOptionKey(data[72:108], a.Delegate)
	data[108] = byte(a.State)
	if a.IsNative != nil {
		binary.LittleEndian.PutUint32(data[109:113], 1)
		binary.LittleEndian.PutUint64(data[113:121], *a.IsNative)
	}
	binary.LittleEndian.PutUint64(data[121:129], a.DelegatedAmount)
	putOptionKey(data[129:165], a.CloseAuthority)
	return data
}

// UnpackMint decodes a mint. Uninitialized mints fail with UninitializedAccount.
func UnpackMint(data []byte) (*Mint, error) {
	mint, err := unpackMint(data)
	if err != nil {
		return nil, err
	}
	if !mint.IsInitialized {
		return nil, errors.ErrUninitializedAccount.WithMessage("mint is not initialized")
	}
	return mint, nil
}

func unpackMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, errors.ErrInvalidAccountData.WithMessage("mint is %d bytes, want %d", len(data), MintSize)
	}
	return &Mint{
		MintAuthority:   getOptionKey(data[0:36]),
		Supply:          binary.LittleEndian.Uint64(data[36:44]),
		Decimals:        data[44],
		IsInitialized:   data[45] == 1,
		FreezeAuthority: getOptionKey(data[46:82]),
	}, nil
}

// Pack encodes the mint.
func (m *Mint) Pack() []byte {
	data := make([]byte, MintSize)
	putOptionKey(data[0:36], m.MintAuthority)
	binary.LittleEndian.PutUint64(data[36:44], m.Supply)
	data[44] = m.Decimals
	if m.IsInitialized {
		data[45] = 1
	}
	putOptionKey(data[46:82], m.FreezeAuthority)
	return data
}
