package market

import (
	"errors"
	"math/big"

	"uponly/core/events"
	"uponly/core/types"
	"uponly/native/fees"
	"uponly/native/pass"
)

var errNilState = errors.New("market engine: state not configured")

type engineState interface {
	SaleMetadata() (*types.SaleMetadata, bool, error)
	PassGet(owner [20]byte) (*pass.Record, bool, error)
	TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool, error)
	AssociatedTokenAddress(owner [20]byte, mint [20]byte) [20]byte
	EnsureAssociatedTokenAccount(owner [20]byte, mint [20]byte) ([20]byte, error)
	Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
	MintTo(mint [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
	Burn(mint [20]byte, from [20]byte, auth types.Authority, amount *big.Int) error
	CurveSnapshot() (CurveSnapshot, error)
	ReserveAccount() ([20]byte, error)
	ReserveAuthority() types.Authority
	MintAuthority() types.Authority
	FounderPoolAccount() ([20]byte, error)
	FoundersAccrue(amount *big.Int) error
}

// Engine implements the bonding-curve market. Buys are gated by the access
// pass, slice fees with truncating basis-point math and mint through the
// averaged-price quote; sells settle at the spot price with rounded shares and
// burn before paying out of the reserve.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a market engine with a no-op emitter.
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
	e.emitter.Emit(marketEvent{evt: evt})
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

// transfer moves amount between token accounts, treating a zero share as a
// no-op so dust-sized trades do not fail on empty fee legs.
func (e *Engine) transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	return e.state.Transfer(from, to, auth, amount)
}

// Buy executes an immediate purchase of sale tokens with a gross payment
// amount. The optional referral argument is part of the wire interface; fee
// routing follows only the binding persisted by the pass registry.
func (e *Engine) Buy(buyer [20]byte, amount *big.Int, referral *[20]byte) (*BuyReceipt, error) {
	_ = referral
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.PassGet(buyer)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil || !record.HasPass {
		return nil, ErrNoPass
	}
	deployerAccount, err := e.deployerPaymentAccount(meta)
	if err != nil {
		return nil, err
	}

	shares := fees.ImmediateSchedule().SplitGross(amount)
	snapshot, err := e.state.CurveSnapshot()
	if err != nil {
		return nil, err
	}
	// Immediate purchases refuse an unseeded curve; only the lock path prices
	// against an empty mint.
	if snapshot.Supply == nil || snapshot.Supply.Sign() <= 0 {
		return nil, ErrCurveNotSeeded
	}
	minted, err := QuoteMint(snapshot, shares.Net, ImmediateGrowth(amount))
	if err != nil {
		return nil, err
	}

	buyerAccount := e.state.AssociatedTokenAddress(buyer, meta.PaymentToken)
	auth := types.SignerAuthority(buyer)
	if record.ReferralSet {
		referralAccount, err := e.referralPaymentAccount(meta, record.Referral)
		if err != nil {
			return nil, err
		}
		referralShare := new(big.Int).Quo(shares.Team, big.NewInt(2))
		deployerShare := new(big.Int).Sub(shares.Team, referralShare)
		if err := e.transfer(buyerAccount, referralAccount, auth, referralShare); err != nil {
			return nil, err
		}
		if err := e.transfer(buyerAccount, deployerAccount, auth, deployerShare); err != nil {
			return nil, err
		}
	} else {
		if err := e.transfer(buyerAccount, deployerAccount, auth, shares.Team); err != nil {
			return nil, err
		}
	}

	poolAccount, err := e.state.FounderPoolAccount()
	if err != nil {
		return nil, err
	}
	if err := e.transfer(buyerAccount, poolAccount, auth, shares.Founder); err != nil {
		return nil, err
	}
	if err := e.state.FoundersAccrue(shares.Founder); err != nil {
		return nil, err
	}

	reserveAccount, err := e.state.ReserveAccount()
	if err != nil {
		return nil, err
	}
	deposit := new(big.Int).Add(shares.Net, shares.Liquidity)
	if err := e.transfer(buyerAccount, reserveAccount, auth, deposit); err != nil {
		return nil, err
	}

	buyerTokenAccount, err := e.state.EnsureAssociatedTokenAccount(buyer, meta.Mint)
	if err != nil {
		return nil, err
	}
	if err := e.state.MintTo(meta.Mint, buyerTokenAccount, e.state.MintAuthority(), minted); err != nil {
		return nil, err
	}

	receipt := &BuyReceipt{
		Gross:     new(big.Int).Set(amount),
		Team:      shares.Team,
		Founder:   shares.Founder,
		Liquidity: shares.Liquidity,
		Net:       shares.Net,
		Minted:    minted,
	}
	e.emit(boughtEvent(buyer, receipt))
	return receipt, nil
}

// Sell burns sale tokens and pays the seller out of the reserve at the spot
// price. The caller's pass record must exist but holding a pass is not
// required.
func (e *Engine) Sell(seller [20]byte, amount *big.Int) (*SellReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	record, ok, err := e.state.PassGet(seller)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPassRecordMissing
	}
	deployerAccount, err := e.deployerPaymentAccount(meta)
	if err != nil {
		return nil, err
	}

	snapshot, err := e.state.CurveSnapshot()
	if err != nil {
		return nil, err
	}
	value := SettlementValue(snapshot, amount)
	liquidityShare := RoundShare(value, fees.LockedLiquidityBps)
	teamShare := RoundShare(value, fees.TeamFeeBps)
	founderShare := RoundShare(value, fees.FounderFeeBps)
	rounded := RoundRat(value)
	payout := new(big.Int).Sub(rounded, teamShare)
	payout.Sub(payout, founderShare)
	payout.Sub(payout, liquidityShare)
	if payout.Sign() < 0 {
		payout = big.NewInt(0)
	}

	sellerTokenAccount := e.state.AssociatedTokenAddress(seller, meta.Mint)
	if err := e.state.Burn(meta.Mint, sellerTokenAccount, types.SignerAuthority(seller), amount); err != nil {
		return nil, err
	}

	reserveAccount, err := e.state.ReserveAccount()
	if err != nil {
		return nil, err
	}
	reserveAuth := e.state.ReserveAuthority()
	if record.ReferralSet {
		referralAccount, err := e.referralPaymentAccount(meta, record.Referral)
		if err != nil {
			return nil, err
		}
		referralShare := new(big.Int).Quo(teamShare, big.NewInt(2))
		deployerShare := new(big.Int).Sub(teamShare, referralShare)
		if err := e.transfer(reserveAccount, referralAccount, reserveAuth, referralShare); err != nil {
			return nil, err
		}
		if err := e.transfer(reserveAccount, deployerAccount, reserveAuth, deployerShare); err != nil {
			return nil, err
		}
	} else {
		if err := e.transfer(reserveAccount, deployerAccount, reserveAuth, teamShare); err != nil {
			return nil, err
		}
	}

	poolAccount, err := e.state.FounderPoolAccount()
	if err != nil {
		return nil, err
	}
	if err := e.transfer(reserveAccount, poolAccount, reserveAuth, founderShare); err != nil {
		return nil, err
	}
	if err := e.state.FoundersAccrue(founderShare); err != nil {
		return nil, err
	}

	sellerPaymentAccount, err := e.state.EnsureAssociatedTokenAccount(seller, meta.PaymentToken)
	if err != nil {
		return nil, err
	}
	if err := e.transfer(reserveAccount, sellerPaymentAccount, reserveAuth, payout); err != nil {
		return nil, err
	}

	receipt := &SellReceipt{
		Burned:    new(big.Int).Set(amount),
		Value:     rounded,
		Team:      teamShare,
		Founder:   founderShare,
		Liquidity: liquidityShare,
		Payout:    payout,
	}
	e.emit(soldEvent(seller, receipt))
	return receipt, nil
}
