package ledger

import (
	"bytes"

	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/pkg/types"
)

// AccountHandle is the view one instruction has of one account. Handles on
// the same key within a transaction share state.
type AccountHandle struct {
	key      types.Pubkey
	acct     *types.Account
	signer   bool
	writable bool
}

// Key returns the account address.
func (h *AccountHandle) Key() types.Pubkey { return h.key }

// IsSigner reports whether the transaction carried a verified signature for the account.
func (h *AccountHandle) IsSigner() bool { return h.signer }

// IsWritable reports whether the instruction may modify the account.
func (h *AccountHandle) IsWritable() bool { return h.writable }

// Lamports returns the working balance.
func (h *AccountHandle) Lamports() uint64 { return h.acct.Lamports }
func (h *AccountHandle) Owner() types.Pubkey {
	return h.acct.Owner
}

// Data returns the account data. Callers must not modify it; use SetData.
func (h *AccountHandle) Data() []byte {
	return h.acct.Data
}

// IsEmpty reports whether the account holds neither lamports nor data.
func (h *AccountHandle) IsEmpty() bool {
	return h.acct.IsEmpty()
}

// IsOwnedBy reports whether program owns the account.
func (h *AccountHandle) IsOwnedBy(program types.Pubkey) bool {
	return h.acct.Owner.Equals(program)
}

func (h *AccountHandle) checkWritable() error {
	if !h.writable {
		return errors.ErrAccountNotWritable.
			WithMessage("account %s is not writable", h.key).
			WithDetails(map[string]any{"account": h.key.String()})
	}
	return nil
}

// SetLamports sets the balance.
func (h *AccountHandle) SetLamports(v uint64) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	h.acct.Lamports = v
	return nil
}

// AddLamports credits v, failing with ComputeError on overflow.
func (h *AccountHandle) AddLamports(v uint64) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	sum, err := checkedAdd(h.acct.Lamports, v)
	if err != nil {
		return err
	}
	h.acct.Lamports = sum
	return nil
}

// SubLamports debits v, failing with InsufficientFunds if the balance is short.
func (h *AccountHandle) SubLamports(v uint64) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	if h.acct.Lamports < v {
		return errors.ErrInsufficientFunds.WithMessage("account %s holds %d lamports, need %d", h.key, h.acct.Lamports, v)
	}
	h.acct.Lamports -= v
	return nil
}

// SetData replaces the account data with a copy of data.
func (h *AccountHandle) SetData(data []byte) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	h.acct.Data = bytes.Clone(data)
	return nil
}

// Allocate replaces the data with size zero bytes.
func (h *AccountHandle) Allocate(size int) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	h.acct.Data = make([]byte, size)
	return nil
}

// Assign transfers ownership to program.
func (h *AccountHandle) Assign(program types.Pubkey) error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	h.acct.Owner = program
	return nil
}

// Reclaim zeroes the data and balance and returns the account to the system program.
func (h *AccountHandle) Reclaim() error {
	if err := h.checkWritable(); err != nil {
		return err
	}
	clear(h.acct.Data)
	h.acct.Data = nil
	h.acct.Lamports = 0
	h.acct.Owner = SystemProgramID
	return nil
}
