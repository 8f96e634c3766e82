package vault

import (
	"errors"
	"math/big"
	"time"

	"uponly/core/events"
	"uponly/core/types"
	"uponly/native/fees"
	"uponly/native/market"
)

var errNilState = errors.New("vault engine: state not configured")

const secondsPerDay = 86_400

type engineState interface {
	SaleMetadata() (*types.SaleMetadata, bool, error)
	PositionGet(owner [20]byte) (*Position, bool, error)
	PositionPut(position *Position) error
	TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool, error)
	AssociatedTokenAddress(owner [20]byte, mint [20]byte) [20]byte
	EnsureAssociatedTokenAccount(owner [20]byte, mint [20]byte) ([20]byte, error)
	Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
	MintTo(mint [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error
	Burn(mint [20]byte, from [20]byte, auth types.Authority, amount *big.Int) error
	CurveSnapshot() (market.CurveSnapshot, error)
	ReserveAccount() ([20]byte, error)
	ReserveAuthority() types.Authority
	MintAuthority() types.Authority
	FounderPoolAccount() ([20]byte, error)
	FoundersAccrue(amount *big.Int) error
	VaultAccount(owner [20]byte) ([20]byte, error)
	VaultAccountEnsure(owner [20]byte) ([20]byte, error)
	VaultAuthority(owner [20]byte) types.Authority
}

// Engine implements time-locked vesting: a buy-and-lock mints at the
// band-discounted fee triple into a custodial per-user account, and the
// position settles at the claim-time spot price either after the unlock time
// or early with a team-share penalty.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a vault engine with a no-op emitter and wall-clock
// time source.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
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

// SetNowFunc overrides the engine's time source.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(vaultEvent{evt: evt})
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

func (e *Engine) transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	return e.state.Transfer(from, to, auth, amount)
}

// InitializeVault creates the caller's custodial sale-token account. Locking
// requires the account to exist beforehand.
func (e *Engine) InitializeVault(owner [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, err := e.metadata(); err != nil {
		return err
	}
	addr, err := e.state.VaultAccount(owner)
	if err != nil {
		return err
	}
	if _, ok, err := e.state.TokenAccountGet(addr); err != nil {
		return err
	} else if ok {
		return ErrVaultExists
	}
	if _, err := e.state.VaultAccountEnsure(owner); err != nil {
		return err
	}
	e.emit(vaultInitializedEvent(owner))
	return nil
}

// Lock executes a buy-and-lock: the gross payment is sliced at the band
// triple for the chosen duration, the net amount is quoted against the curve
// and the minted tokens go into custody until the unlock time. Unlike an
// immediate buy no access pass is required, and the referral is taken
// per call rather than from the pass binding.
func (e *Engine) Lock(owner [20]byte, amount *big.Int, lockDays uint64, referral *[20]byte) (*LockReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !fees.ValidLockDays(lockDays) {
		return nil, ErrInvalidLockPeriod
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	if position, ok, err := e.state.PositionGet(owner); err != nil {
		return nil, err
	} else if ok && position != nil && position.Active {
		return nil, ErrPositionActive
	}
	custodyAccount, err := e.state.VaultAccount(owner)
	if err != nil {
		return nil, err
	}
	if _, ok, err := e.state.TokenAccountGet(custodyAccount); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrVaultNotInitialized
	}
	deployerAccount, err := e.deployerPaymentAccount(meta)
	if err != nil {
		return nil, err
	}

	shares := fees.LockSchedule(lockDays).SplitGross(amount)
	snapshot, err := e.state.CurveSnapshot()
	if err != nil {
		return nil, err
	}
	minted, err := market.QuoteMint(snapshot, shares.Net, market.LockGrowth(shares.Net))
	if err != nil {
		return nil, err
	}

	ownerAccount := e.state.AssociatedTokenAddress(owner, meta.PaymentToken)
	auth := types.SignerAuthority(owner)
	if referral != nil {
		referralAccount, err := e.referralPaymentAccount(meta, *referral)
		if err != nil {
			return nil, err
		}
		// Both legs carry the truncated half; an odd team share leaves the
		// last unit with the buyer.
		half := new(big.Int).Quo(shares.Team, big.NewInt(2))
		if err := e.transfer(ownerAccount, referralAccount, auth, half); err != nil {
			return nil, err
		}
		if err := e.transfer(ownerAccount, deployerAccount, auth, half); err != nil {
			return nil, err
		}
	} else {
		if err := e.transfer(ownerAccount, deployerAccount, auth, shares.Team); err != nil {
			return nil, err
		}
	}

	poolAccount, err := e.state.FounderPoolAccount()
	if err != nil {
		return nil, err
	}
	if err := e.transfer(ownerAccount, poolAccount, auth, shares.Founder); err != nil {
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
	if err := e.transfer(ownerAccount, reserveAccount, auth, deposit); err != nil {
		return nil, err
	}

	if err := e.state.MintTo(meta.Mint, custodyAccount, e.state.MintAuthority(), minted); err != nil {
		return nil, err
	}

	unlockTime := uint64(e.nowFn()) + lockDays*secondsPerDay
	position := &Position{
		Owner:      owner,
		Amount:     new(big.Int).Set(minted),
		UnlockTime: unlockTime,
		LockDays:   lockDays,
		Active:     true,
	}
	if referral != nil {
		position.Referral = *referral
		position.ReferralSet = true
	}
	if err := e.state.PositionPut(position); err != nil {
		return nil, err
	}

	receipt := &LockReceipt{
		Gross:      new(big.Int).Set(amount),
		Team:       shares.Team,
		Founder:    shares.Founder,
		Liquidity:  shares.Liquidity,
		Net:        shares.Net,
		Minted:     minted,
		UnlockTime: unlockTime,
	}
	e.emit(lockedEvent(owner, receipt))
	return receipt, nil
}

// Claim settles a matured position at the claim-time spot price using the
// fee band the position was locked under.
func (e *Engine) Claim(owner [20]byte) (*SettleReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	position, err := e.activePosition(owner)
	if err != nil {
		return nil, err
	}
	if uint64(e.nowFn()) < position.UnlockTime {
		return nil, ErrLockNotExpired
	}
	return e.settle(meta, position, fees.LockSchedule(position.LockDays), false)
}

// EarlyUnlock settles a position before its unlock time. The team share of
// the position's fee band is raised by the early-exit penalty.
func (e *Engine) EarlyUnlock(owner [20]byte) (*SettleReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	meta, err := e.metadata()
	if err != nil {
		return nil, err
	}
	position, err := e.activePosition(owner)
	if err != nil {
		return nil, err
	}
	schedule := fees.LockSchedule(position.LockDays)
	schedule.TeamBps += fees.EarlyUnlockPenaltyBps
	return e.settle(meta, position, schedule, true)
}

func (e *Engine) activePosition(owner [20]byte) (*Position, error) {
	position, ok, err := e.state.PositionGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok || position == nil || !position.Active {
		return nil, ErrNoActivePosition
	}
	return position, nil
}

// settle burns the custody holding, routes the rounded fee shares out of the
// reserve and pays the owner the remainder. The founder share moves into the
// pool account without advancing the accrual total, the team share goes to
// the deployer whole even when the position carries a referral, and the
// liquidity share never leaves the reserve.
func (e *Engine) settle(meta *types.SaleMetadata, position *Position, schedule fees.Schedule, early bool) (*SettleReceipt, error) {
	deployerAccount, err := e.deployerPaymentAccount(meta)
	if err != nil {
		return nil, err
	}
	snapshot, err := e.state.CurveSnapshot()
	if err != nil {
		return nil, err
	}
	value := market.SettlementValue(snapshot, position.Amount)
	founderShare := market.RoundShare(value, schedule.FounderBps)
	teamShare := market.RoundShare(value, schedule.TeamBps)
	liquidityShare := market.RoundShare(value, schedule.LiquidityBps)
	rounded := market.RoundRat(value)
	payout := new(big.Int).Sub(rounded, founderShare)
	payout.Sub(payout, teamShare)
	payout.Sub(payout, liquidityShare)
	if payout.Sign() < 0 {
		payout = big.NewInt(0)
	}

	custodyAccount, err := e.state.VaultAccount(position.Owner)
	if err != nil {
		return nil, err
	}
	if err := e.state.Burn(meta.Mint, custodyAccount, e.state.VaultAuthority(position.Owner), position.Amount); err != nil {
		return nil, err
	}

	reserveAccount, err := e.state.ReserveAccount()
	if err != nil {
		return nil, err
	}
	reserveAuth := e.state.ReserveAuthority()
	poolAccount, err := e.state.FounderPoolAccount()
	if err != nil {
		return nil, err
	}
	if err := e.transfer(reserveAccount, poolAccount, reserveAuth, founderShare); err != nil {
		return nil, err
	}
	if err := e.transfer(reserveAccount, deployerAccount, reserveAuth, teamShare); err != nil {
		return nil, err
	}
	ownerPaymentAccount, err := e.state.EnsureAssociatedTokenAccount(position.Owner, meta.PaymentToken)
	if err != nil {
		return nil, err
	}
	if err := e.transfer(reserveAccount, ownerPaymentAccount, reserveAuth, payout); err != nil {
		return nil, err
	}

	burned := new(big.Int).Set(position.Amount)
	position.Active = false
	position.Amount = big.NewInt(0)
	if err := e.state.PositionPut(position); err != nil {
		return nil, err
	}

	receipt := &SettleReceipt{
		Burned:    burned,
		Value:     rounded,
		Team:      teamShare,
		Founder:   founderShare,
		Liquidity: liquidityShare,
		Payout:    payout,
		Early:     early,
	}
	e.emit(settledEvent(position.Owner, receipt))
	return receipt, nil
}
