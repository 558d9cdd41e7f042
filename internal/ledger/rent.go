package ledger

// AccountStorageOverhead is the per-account byte charge added to the data length.
const AccountStorageOverhead = 128

// Rent holds the rent-exemption parameters of the ledger.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
}

// DefaultRent returns mainnet rent parameters.
func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: 3480,
		ExemptionThreshold:  2.0,
	}
}

// MinimumBalance returns the lamports an account of dataLen bytes needs to be rent exempt.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	bytes := uint64(AccountStorageOverhead + dataLen)
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether lamports cover the minimum balance for dataLen bytes.
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
