package core

import (
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"uponly/core/events"
	"uponly/core/state"
	"uponly/core/types"
	"uponly/native/founders"
	"uponly/native/market"
	"uponly/native/pass"
	"uponly/native/vault"
	"uponly/observability"
	"uponly/storage"
)

var (
	// ErrAlreadyInitialized is returned when initialize runs twice.
	ErrAlreadyInitialized = errors.New("core: sale already initialized")
	// ErrMintNotRegistered is returned when initialize references a mint the
	// ledger does not know.
	ErrMintNotRegistered = errors.New("core: mint not registered")
	// ErrNotMintAuthority is returned when the initializer does not hold the
	// sale mint authority.
	ErrNotMintAuthority = errors.New("core: caller does not hold the mint authority")
)

// Ledger seed amounts moved into program custody by initialize.
const (
	reserveSeedAmount = 3_000
	saleSeedAmount    = 1_000_000_000
)

const (
	saleName   = "UpOnly"
	saleSymbol = "UP"
)

// Processor is the operation surface of the sale: it owns the state manager,
// wires the native engines to it and serialises all mutations behind one
// lock. RPC handlers and tools call operations here rather than touching
// engines directly.
type Processor struct {
	mu sync.Mutex

	state    *state.Manager
	pass     *pass.Engine
	market   *market.Engine
	founders *founders.Engine
	vault    *vault.Engine

	log     *slog.Logger
	metrics *observability.EngineMetrics
}

// NewProcessor builds a processor over the given database.
func NewProcessor(db storage.Database) *Processor {
	manager := state.NewManager(db)
	p := &Processor{
		state:    manager,
		pass:     pass.NewEngine(),
		market:   market.NewEngine(),
		founders: founders.NewEngine(),
		vault:    vault.NewEngine(),
		log:      slog.Default(),
		metrics:  observability.Metrics(),
	}
	p.pass.SetState(manager)
	p.market.SetState(manager)
	p.founders.SetState(manager)
	p.vault.SetState(manager)
	return p
}

// State exposes the underlying state manager for genesis setup and queries.
func (p *Processor) State() *state.Manager { return p.state }

// SetLogger overrides the processor's logger.
func (p *Processor) SetLogger(log *slog.Logger) {
	if log != nil {
		p.log = log
	}
}

// SetEmitter wires an event emitter into every engine.
func (p *Processor) SetEmitter(emitter events.Emitter) {
	p.pass.SetEmitter(emitter)
	p.market.SetEmitter(emitter)
	p.founders.SetEmitter(emitter)
	p.vault.SetEmitter(emitter)
}

// SetNowFunc overrides the vault's time source.
func (p *Processor) SetNowFunc(now func() int64) {
	p.vault.SetNowFunc(now)
}

func (p *Processor) observe(operation string, start time.Time, err error) {
	p.metrics.Observe(operation, start, err)
	if err != nil {
		p.log.Warn("operation failed", "operation", operation, "error", err)
		return
	}
	p.log.Info("operation applied", "operation", operation)
}

// apply runs a mutating operation against a staged write overlay. On failure
// the overlay is discarded whole, so an operation that dies between fee legs
// leaves every balance and record untouched.
func (p *Processor) apply(fn func() error) error {
	p.state.Begin()
	if err := fn(); err != nil {
		p.state.Discard()
		return err
	}
	return p.state.Commit()
}

// Initialize writes the sale metadata, seeds the program reserve with 3,000
// payment units and the program sale account with 1,000,000,000 sale units
// out of the deployer's holdings, then hands the sale mint authority to the
// derived mint authority. Both mints must already be registered and the
// deployer must hold the sale mint authority.
func (p *Processor) Initialize(deployer [20]byte, saleMint [20]byte, paymentMint [20]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	err := p.apply(func() error { return p.initialize(deployer, saleMint, paymentMint) })
	p.observe("initialize", start, err)
	return err
}

func (p *Processor) initialize(deployer [20]byte, saleMint [20]byte, paymentMint [20]byte) error {
	if _, ok, err := p.state.SaleMetadata(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}
	saleInfo, ok, err := p.state.MintInfoGet(saleMint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotRegistered
	}
	if _, ok, err := p.state.MintInfoGet(paymentMint); err != nil {
		return err
	} else if !ok {
		return ErrMintNotRegistered
	}
	if saleInfo.Authority != deployer {
		return ErrNotMintAuthority
	}

	meta := &types.SaleMetadata{
		Name:         saleName,
		Symbol:       saleSymbol,
		Mint:         saleMint,
		Authority:    p.state.MintAuthorityAddress(),
		PaymentToken: paymentMint,
		Deployer:     deployer,
		Initialized:  true,
	}
	if err := p.state.SaleMetadataPut(meta); err != nil {
		return err
	}

	auth := types.SignerAuthority(deployer)
	reserve, err := p.state.ReserveAccountEnsure()
	if err != nil {
		return err
	}
	deployerPayment := p.state.AssociatedTokenAddress(deployer, paymentMint)
	if err := p.state.Transfer(deployerPayment, reserve, auth, big.NewInt(reserveSeedAmount)); err != nil {
		return err
	}
	programSale, err := p.state.ProgramSaleAccountEnsure(saleMint)
	if err != nil {
		return err
	}
	deployerSale := p.state.AssociatedTokenAddress(deployer, saleMint)
	if err := p.state.Transfer(deployerSale, programSale, auth, big.NewInt(saleSeedAmount)); err != nil {
		return err
	}
	return p.state.SetMintAuthority(saleMint, auth, p.state.MintAuthorityAddress())
}

// InitializeFoundersPool creates the singleton founder pool.
func (p *Processor) InitializeFoundersPool(caller [20]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	err := p.apply(func() error { return p.founders.InitializePool(caller) })
	p.observe("initialize_founders_pool", start, err)
	return err
}

// BuyPass sells an access pass to the buyer.
func (p *Processor) BuyPass(buyer [20]byte, referral *[20]byte) (*pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var record *pass.Record
	err := p.apply(func() error {
		var err error
		record, err = p.pass.Purchase(buyer, referral)
		return err
	})
	p.observe("buy_pass", start, err)
	return record, err
}

// GivePass grants an access pass without payment. Deployer only.
func (p *Processor) GivePass(caller [20]byte, beneficiary [20]byte) (*pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var record *pass.Record
	err := p.apply(func() error {
		var err error
		record, err = p.pass.Grant(caller, beneficiary)
		return err
	})
	p.observe("give_pass", start, err)
	return record, err
}

// BuyToken executes an immediate curve purchase.
func (p *Processor) BuyToken(buyer [20]byte, amount *big.Int, referral *[20]byte) (*market.BuyReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var receipt *market.BuyReceipt
	err := p.apply(func() error {
		var err error
		receipt, err = p.market.Buy(buyer, amount, referral)
		return err
	})
	p.observe("buy_token", start, err)
	return receipt, err
}

// SellToken burns sale tokens back into the curve.
func (p *Processor) SellToken(seller [20]byte, amount *big.Int) (*market.SellReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var receipt *market.SellReceipt
	err := p.apply(func() error {
		var err error
		receipt, err = p.market.Sell(seller, amount)
		return err
	})
	p.observe("sell_token", start, err)
	return receipt, err
}

// InitializeUserVault creates the caller's custodial token account.
func (p *Processor) InitializeUserVault(owner [20]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	err := p.apply(func() error { return p.vault.InitializeVault(owner) })
	p.observe("initialize_user_vault", start, err)
	return err
}

// BuyAndLockToken executes a discounted purchase locked until the unlock
// time.
func (p *Processor) BuyAndLockToken(owner [20]byte, amount *big.Int, lockDays uint64, referral *[20]byte) (*vault.LockReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var receipt *vault.LockReceipt
	err := p.apply(func() error {
		var err error
		receipt, err = p.vault.Lock(owner, amount, lockDays, referral)
		return err
	})
	p.observe("buy_and_lock_token", start, err)
	return receipt, err
}

// ClaimLockedTokens settles a matured lock position.
func (p *Processor) ClaimLockedTokens(owner [20]byte) (*vault.SettleReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var receipt *vault.SettleReceipt
	err := p.apply(func() error {
		var err error
		receipt, err = p.vault.Claim(owner)
		return err
	})
	p.observe("claim_locked_tokens", start, err)
	return receipt, err
}

// EarlyUnlockTokens settles a lock position before maturity with the team
// penalty applied.
func (p *Processor) EarlyUnlockTokens(owner [20]byte) (*vault.SettleReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var receipt *vault.SettleReceipt
	err := p.apply(func() error {
		var err error
		receipt, err = p.vault.EarlyUnlock(owner)
		return err
	})
	p.observe("early_unlock_tokens", start, err)
	return receipt, err
}

// AddFounder admits a founder into the roster. Deployer only.
func (p *Processor) AddFounder(caller [20]byte, founder [20]byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var slot int
	err := p.apply(func() error {
		var err error
		slot, err = p.founders.Add(caller, founder)
		return err
	})
	p.observe("add_founder", start, err)
	return slot, err
}

// ClaimFounderShare pays the caller their outstanding pool share.
func (p *Processor) ClaimFounderShare(founder [20]byte) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start := time.Now()
	var amount *big.Int
	err := p.apply(func() error {
		var err error
		amount, err = p.founders.Claim(founder)
		return err
	})
	p.observe("claim_founder_share", start, err)
	return amount, err
}

// Metadata returns the sale metadata singleton.
func (p *Processor) Metadata() (*types.SaleMetadata, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.SaleMetadata()
}

// PassRecord returns the access-pass record for an owner.
func (p *Processor) PassRecord(owner [20]byte) (*pass.Record, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.PassGet(owner)
}

// LockPosition returns the lock position for an owner.
func (p *Processor) LockPosition(owner [20]byte) (*vault.Position, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.PositionGet(owner)
}

// FounderPool returns the founder pool singleton.
func (p *Processor) FounderPool() (*founders.Pool, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.FoundersPool()
}

// Curve returns the current reserve liquidity and sale supply.
func (p *Processor) Curve() (market.CurveSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.CurveSnapshot()
}
