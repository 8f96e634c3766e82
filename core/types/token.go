package types

import "math/big"

// TokenAccount holds a balance of one mint on behalf of an owner. Associated
// accounts are derived deterministically from (owner, mint) so each owner has
// at most one canonical account per mint.
type TokenAccount struct {
	Address [20]byte
	Owner   [20]byte
	Mint    [20]byte
	Balance *big.Int
	// ProgramOwned marks accounts whose owner is a derived authority. Debits
	// from these accounts require a derived Authority capability rather than a
	// host-verified signer.
	ProgramOwned bool
}

// Clone returns a deep copy so callers can mutate freely.
func (a *TokenAccount) Clone() *TokenAccount {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}

// MintInfo tracks the supply counter and minting authority for one token mint.
type MintInfo struct {
	Address   [20]byte
	Authority [20]byte
	Supply    *big.Int
	Decimals  uint8
}

// Clone returns a deep copy of the mint record.
func (m *MintInfo) Clone() *MintInfo {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Supply != nil {
		clone.Supply = new(big.Int).Set(m.Supply)
	} else {
		clone.Supply = big.NewInt(0)
	}
	return &clone
}
