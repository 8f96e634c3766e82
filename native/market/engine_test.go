package market

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"testing"

	"uponly/core/types"
	"uponly/native/pass"
)

type mockState struct {
	meta         *types.SaleMetadata
	passes       map[[20]byte]*pass.Record
	accounts     map[[20]byte]*types.TokenAccount
	mints        map[[20]byte]*types.MintInfo
	accrued      *big.Int
	reserveOwner [20]byte
	poolOwner    [20]byte
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func newMockState() *mockState {
	meta := &types.SaleMetadata{
		Name:         "UpOnly",
		Symbol:       "UP",
		Mint:         addr(0xAA),
		PaymentToken: addr(0xBB),
		Deployer:     addr(0x01),
		Initialized:  true,
	}
	m := &mockState{
		meta:         meta,
		passes:       make(map[[20]byte]*pass.Record),
		accounts:     make(map[[20]byte]*types.TokenAccount),
		mints:        make(map[[20]byte]*types.MintInfo),
		accrued:      big.NewInt(0),
		reserveOwner: addr(0xE1),
		poolOwner:    addr(0xE2),
	}
	m.mints[meta.Mint] = &types.MintInfo{Address: meta.Mint, Authority: addr(0xE3), Supply: big.NewInt(0), Decimals: 9}
	m.mints[meta.PaymentToken] = &types.MintInfo{Address: meta.PaymentToken, Authority: addr(0xE4), Supply: big.NewInt(0), Decimals: 6}
	m.ensureProgram(m.reserveOwner, meta.PaymentToken)
	m.ensureProgram(m.poolOwner, meta.PaymentToken)
	return m
}

func (m *mockState) SaleMetadata() (*types.SaleMetadata, bool, error) {
	return m.meta.Clone(), true, nil
}

func (m *mockState) PassGet(owner [20]byte) (*pass.Record, bool, error) {
	record, ok := m.passes[owner]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) TokenAccountGet(a [20]byte) (*types.TokenAccount, bool, error) {
	account, ok := m.accounts[a]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (m *mockState) AssociatedTokenAddress(owner [20]byte, mint [20]byte) [20]byte {
	sum := sha256.Sum256(append(append([]byte{}, owner[:]...), mint[:]...))
	var out [20]byte
	copy(out[:], sum[:20])
	return out
}

func (m *mockState) EnsureAssociatedTokenAccount(owner [20]byte, mint [20]byte) ([20]byte, error) {
	a := m.AssociatedTokenAddress(owner, mint)
	if _, ok := m.accounts[a]; !ok {
		m.accounts[a] = &types.TokenAccount{Address: a, Owner: owner, Mint: mint, Balance: big.NewInt(0)}
	}
	return a, nil
}

func (m *mockState) ensureProgram(owner [20]byte, mint [20]byte) [20]byte {
	a := m.AssociatedTokenAddress(owner, mint)
	m.accounts[a] = &types.TokenAccount{Address: a, Owner: owner, Mint: mint, Balance: big.NewInt(0), ProgramOwned: true}
	return a
}

func (m *mockState) Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	fromAcc, ok := m.accounts[from]
	if !ok {
		return errors.New("from account missing")
	}
	toAcc, ok := m.accounts[to]
	if !ok {
		return errors.New("to account missing")
	}
	if auth.Holder() != fromAcc.Owner {
		return errors.New("unauthorized")
	}
	if fromAcc.ProgramOwned && !auth.Derived() {
		return errors.New("program account requires derived authority")
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return errors.New("insufficient funds")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	return nil
}

func (m *mockState) MintTo(mint [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	info, ok := m.mints[mint]
	if !ok {
		return errors.New("mint missing")
	}
	if auth.Holder() != info.Authority {
		return errors.New("bad mint authority")
	}
	toAcc, ok := m.accounts[to]
	if !ok {
		return errors.New("to account missing")
	}
	info.Supply = new(big.Int).Add(info.Supply, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	return nil
}

func (m *mockState) Burn(mint [20]byte, from [20]byte, auth types.Authority, amount *big.Int) error {
	info, ok := m.mints[mint]
	if !ok {
		return errors.New("mint missing")
	}
	fromAcc, ok := m.accounts[from]
	if !ok {
		return errors.New("from account missing")
	}
	if auth.Holder() != fromAcc.Owner {
		return errors.New("unauthorized burn")
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return errors.New("insufficient token balance")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	info.Supply = new(big.Int).Sub(info.Supply, amount)
	return nil
}

func (m *mockState) CurveSnapshot() (CurveSnapshot, error) {
	reserve := m.AssociatedTokenAddress(m.reserveOwner, m.meta.PaymentToken)
	liquidity := big.NewInt(0)
	if acc, ok := m.accounts[reserve]; ok {
		liquidity = new(big.Int).Set(acc.Balance)
	}
	return CurveSnapshot{Liquidity: liquidity, Supply: new(big.Int).Set(m.mints[m.meta.Mint].Supply)}, nil
}

func (m *mockState) ReserveAccount() ([20]byte, error) {
	return m.AssociatedTokenAddress(m.reserveOwner, m.meta.PaymentToken), nil
}

func (m *mockState) ReserveAuthority() types.Authority {
	return types.DerivedAuthority(m.reserveOwner)
}

func (m *mockState) MintAuthority() types.Authority {
	return types.DerivedAuthority(m.mints[m.meta.Mint].Authority)
}

func (m *mockState) FounderPoolAccount() ([20]byte, error) {
	return m.AssociatedTokenAddress(m.poolOwner, m.meta.PaymentToken), nil
}

func (m *mockState) FoundersAccrue(amount *big.Int) error {
	if amount != nil && amount.Sign() > 0 {
		m.accrued = new(big.Int).Add(m.accrued, amount)
	}
	return nil
}

func (m *mockState) fund(owner [20]byte, mint [20]byte, amount int64) [20]byte {
	a, _ := m.EnsureAssociatedTokenAccount(owner, mint)
	m.accounts[a].Balance = big.NewInt(amount)
	return a
}

func (m *mockState) balance(account [20]byte) int64 {
	acc, ok := m.accounts[account]
	if !ok {
		return 0
	}
	return acc.Balance.Int64()
}

func (m *mockState) seedCurve(liquidity, supply int64) {
	reserve := m.AssociatedTokenAddress(m.reserveOwner, m.meta.PaymentToken)
	m.accounts[reserve].Balance = big.NewInt(liquidity)
	m.mints[m.meta.Mint].Supply = big.NewInt(supply)
}

func (m *mockState) grantPass(owner [20]byte) {
	m.passes[owner] = &pass.Record{Owner: owner, HasPass: true}
}

func newTestEngine(st *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(st)
	return engine
}

// mintAuthority in the mock is always derived; the market engine goes through
// the state-issued capability.

func TestBuySlicesFeesAndMints(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	buyer := addr(0x10)
	st.grantPass(buyer)
	st.seedCurve(100_000_000, 1_000_000_000)
	buyerPayment := st.fund(buyer, st.meta.PaymentToken, 2_000_000_000)
	deployerAccount := st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	receipt, err := engine.Buy(buyer, big.NewInt(1_000_000_000), nil)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if receipt.Team.Int64() != 20_000_000 || receipt.Founder.Int64() != 5_000_000 || receipt.Liquidity.Int64() != 75_000_000 {
		t.Fatalf("fee split mismatch: %+v", receipt)
	}
	if receipt.Net.Int64() != 900_000_000 {
		t.Fatalf("net: got %s, want 900000000", receipt.Net)
	}
	if receipt.Minted.Int64() != 8_780_487_804 {
		t.Fatalf("minted: got %s, want 8780487804", receipt.Minted)
	}
	if got := st.balance(deployerAccount); got != 20_000_000 {
		t.Fatalf("deployer received %d, want 20000000", got)
	}
	poolAccount, _ := st.FounderPoolAccount()
	if got := st.balance(poolAccount); got != 5_000_000 {
		t.Fatalf("pool received %d, want 5000000", got)
	}
	if st.accrued.Int64() != 5_000_000 {
		t.Fatalf("accrued %s, want 5000000", st.accrued)
	}
	reserveAccount, _ := st.ReserveAccount()
	if got := st.balance(reserveAccount); got != 100_000_000+975_000_000 {
		t.Fatalf("reserve balance %d, want 1075000000", got)
	}
	if got := st.balance(buyerPayment); got != 1_000_000_000 {
		t.Fatalf("buyer payment balance %d, want 1000000000", got)
	}
	buyerToken := st.AssociatedTokenAddress(buyer, st.meta.Mint)
	if got := st.balance(buyerToken); got != 8_780_487_804 {
		t.Fatalf("buyer token balance %d", got)
	}
}

func TestBuyRequiresPass(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	buyer := addr(0x10)
	st.seedCurve(100_000_000, 1_000_000_000)
	st.fund(buyer, st.meta.PaymentToken, 2_000_000_000)
	st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	if _, err := engine.Buy(buyer, big.NewInt(1_000_000), nil); !errors.Is(err, ErrNoPass) {
		t.Fatalf("expected ErrNoPass, got %v", err)
	}
	// A record without the pass flag is still not enough.
	st.passes[buyer] = &pass.Record{Owner: buyer}
	if _, err := engine.Buy(buyer, big.NewInt(1_000_000), nil); !errors.Is(err, ErrNoPass) {
		t.Fatalf("expected ErrNoPass for flagless record, got %v", err)
	}
}

func TestBuySplitsTeamShareWithBoundReferral(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	buyer := addr(0x10)
	referral := addr(0x20)
	st.passes[buyer] = &pass.Record{Owner: buyer, HasPass: true, Referral: referral, ReferralSet: true}
	st.seedCurve(100_000_000, 1_000_000_000)
	st.fund(buyer, st.meta.PaymentToken, 2_000_000_000)
	deployerAccount := st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)
	referralAccount := st.fund(referral, st.meta.PaymentToken, 0)

	if _, err := engine.Buy(buyer, big.NewInt(1_000_000_000), nil); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if got := st.balance(referralAccount); got != 10_000_000 {
		t.Fatalf("referral received %d, want 10000000", got)
	}
	if got := st.balance(deployerAccount); got != 10_000_000 {
		t.Fatalf("deployer received %d, want 10000000", got)
	}
}

func TestBuyBoundReferralAccountMissing(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	buyer := addr(0x10)
	referral := addr(0x20)
	st.passes[buyer] = &pass.Record{Owner: buyer, HasPass: true, Referral: referral, ReferralSet: true}
	st.seedCurve(100_000_000, 1_000_000_000)
	st.fund(buyer, st.meta.PaymentToken, 2_000_000_000)
	st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	if _, err := engine.Buy(buyer, big.NewInt(1_000_000_000), nil); !errors.Is(err, ErrMissingReferralAccount) {
		t.Fatalf("expected ErrMissingReferralAccount, got %v", err)
	}
}

func TestBuyEmptyCurveFails(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	buyer := addr(0x10)
	st.grantPass(buyer)
	st.fund(buyer, st.meta.PaymentToken, 2_000_000_000)
	st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	if _, err := engine.Buy(buyer, big.NewInt(1_000_000), nil); !errors.Is(err, ErrCurveNotSeeded) {
		t.Fatalf("expected ErrCurveNotSeeded, got %v", err)
	}
}

func TestSellSettlesFromReserve(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	seller := addr(0x10)
	// Sell does not require the pass flag, only a readable record.
	st.passes[seller] = &pass.Record{Owner: seller}
	st.seedCurve(200_000_000, 1_000_000_000)
	sellerToken := st.fund(seller, st.meta.Mint, 500_000_000)
	deployerAccount := st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	receipt, err := engine.Sell(seller, big.NewInt(500_000_000))
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if receipt.Value.Int64() != 100_000_000 {
		t.Fatalf("settlement value %s, want 100000000", receipt.Value)
	}
	if receipt.Team.Int64() != 2_000_000 || receipt.Founder.Int64() != 500_000 || receipt.Liquidity.Int64() != 7_500_000 {
		t.Fatalf("share mismatch: %+v", receipt)
	}
	if receipt.Payout.Int64() != 90_000_000 {
		t.Fatalf("payout %s, want 90000000", receipt.Payout)
	}
	if got := st.balance(sellerToken); got != 0 {
		t.Fatalf("seller tokens not burned, balance %d", got)
	}
	if got := st.mints[st.meta.Mint].Supply.Int64(); got != 500_000_000 {
		t.Fatalf("supply after burn %d, want 500000000", got)
	}
	if got := st.balance(deployerAccount); got != 2_000_000 {
		t.Fatalf("deployer received %d, want 2000000", got)
	}
	if st.accrued.Int64() != 500_000 {
		t.Fatalf("accrued %s, want 500000", st.accrued)
	}
	reserveAccount, _ := st.ReserveAccount()
	// Team, founder and payout leave the reserve; the liquidity share stays.
	if got := st.balance(reserveAccount); got != 200_000_000-92_500_000 {
		t.Fatalf("reserve balance %d, want 107500000", got)
	}
	sellerPayment := st.AssociatedTokenAddress(seller, st.meta.PaymentToken)
	if got := st.balance(sellerPayment); got != 90_000_000 {
		t.Fatalf("seller payout %d, want 90000000", got)
	}
}

func TestSellRequiresPassRecord(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	seller := addr(0x10)
	st.seedCurve(200_000_000, 1_000_000_000)
	st.fund(seller, st.meta.Mint, 500_000_000)
	st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)

	if _, err := engine.Sell(seller, big.NewInt(100)); !errors.Is(err, ErrPassRecordMissing) {
		t.Fatalf("expected ErrPassRecordMissing, got %v", err)
	}
}

func TestSellSplitsTeamShareWithBoundReferral(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	seller := addr(0x10)
	referral := addr(0x20)
	st.passes[seller] = &pass.Record{Owner: seller, HasPass: true, Referral: referral, ReferralSet: true}
	st.seedCurve(200_000_000, 1_000_000_000)
	st.fund(seller, st.meta.Mint, 500_000_000)
	deployerAccount := st.fund(st.meta.Deployer, st.meta.PaymentToken, 0)
	referralAccount := st.fund(referral, st.meta.PaymentToken, 0)

	if _, err := engine.Sell(seller, big.NewInt(500_000_000)); err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if got := st.balance(referralAccount); got != 1_000_000 {
		t.Fatalf("referral received %d, want 1000000", got)
	}
	if got := st.balance(deployerAccount); got != 1_000_000 {
		t.Fatalf("deployer received %d, want 1000000", got)
	}
}

func TestSellRejectsNonPositiveAmount(t *testing.T) {
	st := newMockState()
	engine := newTestEngine(st)
	if _, err := engine.Sell(addr(0x10), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Buy(addr(0x10), nil, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil buy, got %v", err)
	}
}
