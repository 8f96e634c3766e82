package pass

import (
	"errors"
	"math/big"

	"uponly/core/events"
	"uponly/core/types"
)

// PriceBaseUnits is the fixed pass price: 10,000 payment tokens at 6 decimals.
const PriceBaseUnits = 10_000 * 1_000_000

var errNilState = errors.New("pass engine: state not configured")

type engineState interface {
	SaleMetadata() (*types.SaleMetadata, bool, error)
	PassGet(owner [20]byte) (*Record, bool, error)
	PassPut(record *Record) error
	TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool, error)
	AssociatedTokenAddress(owner [20]byte, mint [20]byte) [20]byte
	Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
}

// Engine implements the access-pass registry: a one-time purchasable gate for
// the bonding-curve market plus the permanent referral binding consulted by
// the market's fee routing.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a pass engine with a no-op emitter.
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
	e.emitter.Emit(passEvent{evt: evt})
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

// deployerPaymentAccount resolves and validates the deployer's associated
// payment account. Ownership is re-checked on every call because the record
// is externally mutable between operations.
func (e *Engine) deployerPaymentAccount(meta *types.SaleMetadata) ([20]byte, error) {
	addr := e.state.AssociatedTokenAddress(meta.Deployer, meta.PaymentToken)
	account, ok, err := e.state.TokenAccountGet(addr)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok || account == nil {
		return [20]byte{}, ErrMissingDeployerAccount
	}
	if account.Owner != meta.Deployer {
		return [20]byte{}, ErrInvalidDeployerAccount
	}
	return addr, nil
}

func (e *Engine) referralPaymentAccount(meta *types.SaleMetadata, referral [20]byte) ([20]byte, error) {
	addr := e.state.AssociatedTokenAddress(referral, meta.PaymentToken)
	account, ok, err := e.state.TokenAccountGet(addr)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok || account == nil {
		return [20]byte{}, ErrMissingReferralAccount
	}
	if account.Owner != referral {
		return [20]byte{}, ErrInvalidReferralAccount
	}
	return addr, nil
}

// Purchase sells a pass to the buyer for the fixed price. A referral supplied
// on the first purchase attempt is bound permanently; once any referral is
// bound the price splits 50/50 between the referral and the deployer,
// otherwise the full price goes to the deployer.
func (e *Engine) Purchase(buyer [20]byte, referral *[20]byte) (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.PassGet(buyer)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		record = &Record{Owner: buyer}
	}
	if record.HasPass {
		return nil, ErrAlreadyHasPass
	}
	if !record.ReferralSet && referral != nil {
		if *referral == buyer {
			return nil, ErrSelfReferral
		}
		record.Referral = *referral
		record.ReferralSet = true
	}

	deployerAccount, err := e.deployerPaymentAccount(meta)
	if err != nil {
		return nil, err
	}
	buyerAccount := e.state.AssociatedTokenAddress(buyer, meta.PaymentToken)
	price := big.NewInt(PriceBaseUnits)
	auth := types.SignerAuthority(buyer)

	if record.ReferralSet {
		referralAccount, err := e.referralPaymentAccount(meta, record.Referral)
		if err != nil {
			return nil, err
		}
		half := new(big.Int).Quo(price, big.NewInt(2))
		if err := e.state.Transfer(buyerAccount, referralAccount, auth, half); err != nil {
			return nil, err
		}
		if err := e.state.Transfer(buyerAccount, deployerAccount, auth, half); err != nil {
			return nil, err
		}
	} else {
		if err := e.state.Transfer(buyerAccount, deployerAccount, auth, price); err != nil {
			return nil, err
		}
	}

	record.HasPass = true
	if err := e.state.PassPut(record); err != nil {
		return nil, err
	}
	e.emit(purchasedEvent(record))
	return record.Clone(), nil
}

// Grant issues a pass without payment. Only the deployer on record may call
// it. The granted record carries no referral binding; a later referral can
// still attach through other flows that bind one.
func (e *Engine) Grant(caller [20]byte, beneficiary [20]byte) (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	if caller != meta.Deployer {
		return nil, ErrUnauthorized
	}
	record, ok, err := e.state.PassGet(beneficiary)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		record = &Record{Owner: beneficiary}
	}
	if record.HasPass {
		return nil, ErrAlreadyHasPass
	}
	record.HasPass = true
	if err := e.state.PassPut(record); err != nil {
		return nil, err
	}
	e.emit(grantedEvent(record, caller))
	return record.Clone(), nil
}
