package founders

import (
	"errors"
	"math/big"

	"uponly/core/events"
	"uponly/core/types"
)

var errNilState = errors.New("founders engine: state not configured")

type engineState interface {
	SaleMetadata() (*types.SaleMetadata, bool, error)
	FoundersPool() (*Pool, bool, error)
	FoundersPoolPut(pool *Pool) error
	FounderPoolAccountEnsure() ([20]byte, error)
	FounderPoolAccount() ([20]byte, error)
	FounderPoolAuthority() types.Authority
	EnsureAssociatedTokenAccount(owner [20]byte, mint [20]byte) ([20]byte, error)
	Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
}

// Engine manages the founder revenue pool: a 60-slot roster whose members
// each withdraw an equal share of the cumulative founder-fee intake.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a founders engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(foundersEvent{evt: evt})
}

func (e *Engine) metadata() (*types.SaleMetadata, error) {
	meta, ok, err := e.state.SaleMetadata()
	if err != nil {
		return nil, err
	}
	if !ok || meta == nil || !meta.Initialized {
		return nil, ErrSaleNotInitialized
	}
	return meta, nil
}

// InitializePool creates the singleton pool together with its payment
// account. It fails if a pool already exists.
func (e *Engine) InitializePool(caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, err := e.metadata(); err != nil {
		return err
	}
	if _, ok, err := e.state.FoundersPool(); err != nil {
		return err
	} else if ok {
		return ErrPoolExists
	}
	if _, err := e.state.FounderPoolAccountEnsure(); err != nil {
		return err
	}
	if err := e.state.FoundersPoolPut(NewPool()); err != nil {
		return err
	}
	e.emit(poolInitializedEvent(caller))
	return nil
}

// Add admits a founder into the next roster slot. Only the deployer may
// call it and the roster caps at Capacity members.
func (e *Engine) Add(caller [20]byte, founder [20]byte) (int, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return 0, err
	}
	if caller != meta.Deployer {
		return 0, ErrUnauthorized
	}
	pool, ok, err := e.state.FoundersPool()
	if err != nil {
		return 0, err
	}
	if !ok || pool == nil {
		return 0, ErrPoolNotInitialized
	}
	if len(pool.Founders) >= Capacity {
		return 0, ErrRosterFull
	}
	if _, ok := pool.SlotOf(founder); ok {
		return 0, ErrAlreadyFounder
	}
	slot := pool.Append(founder)
	if err := e.state.FoundersPoolPut(pool); err != nil {
		return 0, err
	}
	e.emit(addedEvent(founder, slot))
	return slot, nil
}

// Claim pays the caller their outstanding share out of the pool account.
// The running total is untouched; only the slot's claimed marker advances.
func (e *Engine) Claim(founder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	pool, ok, err := e.state.FoundersPool()
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotInitialized
	}
	slot, ok := pool.SlotOf(founder)
	if !ok {
		return nil, ErrNotFounder
	}
	claimable := pool.Claimable(slot)
	if claimable.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	pool.Claimed[slot] = new(big.Int).Add(pool.Claimed[slot], claimable)
	if err := e.state.FoundersPoolPut(pool); err != nil {
		return nil, err
	}

	poolAccount, err := e.state.FounderPoolAccount()
	if err != nil {
		return nil, err
	}
	payoutAccount, err := e.state.EnsureAssociatedTokenAccount(founder, meta.PaymentToken)
	if err != nil {
		return nil, err
	}
	if err := e.state.Transfer(poolAccount, payoutAccount, e.state.FounderPoolAuthority(), claimable); err != nil {
		return nil, err
	}
	e.emit(claimedEvent(founder, slot, claimable))
	return claimable, nil
}
