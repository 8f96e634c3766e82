package state

import (
	"math/big"

	"uponly/native/founders"
	"uponly/native/pass"
	"uponly/native/vault"
)

// PassGet loads an access-pass record by owner.
func (m *Manager) PassGet(owner [20]byte) (*pass.Record, bool, error) {
	record := new(pass.Record)
	ok, err := m.readRecord(prefixedKey(passPrefix, owner), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// PassPut stores an access-pass record.
func (m *Manager) PassPut(record *pass.Record) error {
	return m.writeRecord(prefixedKey(passPrefix, record.Owner), record.Clone())
}

// PositionGet loads a lock position by owner.
func (m *Manager) PositionGet(owner [20]byte) (*vault.Position, bool, error) {
	position := new(vault.Position)
	ok, err := m.readRecord(prefixedKey(lockPrefix, owner), position)
	if err != nil || !ok {
		return nil, false, err
	}
	return position, true, nil
}

// PositionPut stores a lock position.
func (m *Manager) PositionPut(position *vault.Position) error {
	return m.writeRecord(prefixedKey(lockPrefix, position.Owner), position.Clone())
}

// storedPool is the persisted shape of the founder pool. The pool's slot
// index is rebuilt on load.
type storedPool struct {
	TotalCollected *big.Int
	Founders       [][20]byte
	Claimed        []*big.Int
}

// FoundersPool loads the founder pool singleton.
func (m *Manager) FoundersPool() (*founders.Pool, bool, error) {
	stored := new(storedPool)
	ok, err := m.readRecord(foundersPoolKey, stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return founders.RestorePool(stored.TotalCollected, stored.Founders, stored.Claimed), true, nil
}

// FoundersPoolPut stores the founder pool singleton.
func (m *Manager) FoundersPoolPut(pool *founders.Pool) error {
	clone := pool.Clone()
	return m.writeRecord(foundersPoolKey, &storedPool{
		TotalCollected: clone.TotalCollected,
		Founders:       clone.Founders,
		Claimed:        clone.Claimed,
	})
}

// FoundersAccrue advances the pool's running total by a founder-fee intake.
// Missing pool state is tolerated so fee routing does not depend on the pool
// having been initialised first.
func (m *Manager) FoundersAccrue(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	pool, ok, err := m.FoundersPool()
	if err != nil {
		return err
	}
	if !ok {
		pool = founders.NewPool()
	}
	pool.Accrue(amount)
	return m.FoundersPoolPut(pool)
}
