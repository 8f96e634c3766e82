package types

// SaleMetadata is the singleton record describing the token sale: the sale
// mint, its derived mint authority, the payment token and the deployer that
// collects team fees. Written exactly once by the initialize operation.
type SaleMetadata struct {
	Name         string
	Symbol       string
	Mint         [20]byte
	Authority    [20]byte
	PaymentToken [20]byte
	Deployer     [20]byte
	Initialized  bool
}

// Clone returns a copy of the metadata record.
func (m *SaleMetadata) Clone() *SaleMetadata {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
