package founders

import "math/big"

// Capacity is the fixed size of the founder roster. The per-founder
// entitlement always divides by this value, even while slots are vacant.
const Capacity = 60

// Pool tracks the founder revenue share: the cumulative fee intake, the
// roster in admission order and the amount each slot has already withdrawn.
type Pool struct {
	TotalCollected *big.Int
	Founders       [][20]byte
	Claimed        []*big.Int

	index map[[20]byte]int
}

// NewPool returns an empty pool with a zero running total.
func NewPool() *Pool {
	return &Pool{
		TotalCollected: big.NewInt(0),
		index:          make(map[[20]byte]int),
	}
}

// RestorePool rebuilds a pool from persisted roster state. Nil claimed
// entries are normalised to zero and the slot index is reconstructed.
func RestorePool(total *big.Int, roster [][20]byte, claimed []*big.Int) *Pool {
	pool := NewPool()
	if total != nil {
		pool.TotalCollected = new(big.Int).Set(total)
	}
	for i, founder := range roster {
		amount := big.NewInt(0)
		if i < len(claimed) && claimed[i] != nil {
			amount = new(big.Int).Set(claimed[i])
		}
		pool.Founders = append(pool.Founders, founder)
		pool.Claimed = append(pool.Claimed, amount)
		pool.index[founder] = i
	}
	return pool
}

// SlotOf reports the roster slot held by addr.
func (p *Pool) SlotOf(addr [20]byte) (int, bool) {
	if p == nil {
		return 0, false
	}
	slot, ok := p.index[addr]
	return slot, ok
}

// Append admits addr into the next roster slot.
func (p *Pool) Append(addr [20]byte) int {
	slot := len(p.Founders)
	p.Founders = append(p.Founders, addr)
	p.Claimed = append(p.Claimed, big.NewInt(0))
	p.index[addr] = slot
	return slot
}

// Accrue adds a founder-fee intake to the running total. Nil and
// non-positive amounts are ignored.
func (p *Pool) Accrue(amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	p.TotalCollected = new(big.Int).Add(p.TotalCollected, amount)
}

// Entitlement returns the lifetime share of a single slot, the running
// total divided by the full capacity with truncation.
func (p *Pool) Entitlement() *big.Int {
	if p == nil || p.TotalCollected == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(p.TotalCollected, big.NewInt(Capacity))
}

// Claimable returns what the given slot may still withdraw, saturating at
// zero.
func (p *Pool) Claimable(slot int) *big.Int {
	if p == nil || slot < 0 || slot >= len(p.Claimed) {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Sub(p.Entitlement(), p.Claimed[slot])
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	return RestorePool(p.TotalCollected, p.Founders, p.Claimed)
}
