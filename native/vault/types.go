package vault

import "math/big"

// Position is a user's locked holding. Amount counts sale-token base units
// held in the custodial vault account; UnlockTime is a unix timestamp.
// A settled position stays on record with Active false so the lock history
// remains queryable.
type Position struct {
	Owner       [20]byte
	Amount      *big.Int
	UnlockTime  uint64
	LockDays    uint64
	Referral    [20]byte
	ReferralSet bool
	Active      bool
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	out := *p
	if p.Amount != nil {
		out.Amount = new(big.Int).Set(p.Amount)
	}
	return &out
}

// LockReceipt summarises a buy-and-lock: the truncating fee split of the
// gross payment, the minted quantity placed in custody and the unlock time.
type LockReceipt struct {
	Gross      *big.Int
	Team       *big.Int
	Founder    *big.Int
	Liquidity  *big.Int
	Net        *big.Int
	Minted     *big.Int
	UnlockTime uint64
}

// SettleReceipt summarises a claim or early unlock: the burned custody
// amount, the rounded settlement value and shares, and the payout remainder.
type SettleReceipt struct {
	Burned    *big.Int
	Value     *big.Int
	Team      *big.Int
	Founder   *big.Int
	Liquidity *big.Int
	Payout    *big.Int
	Early     bool
}
