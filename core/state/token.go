package state

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"uponly/core/types"
	"uponly/native/market"
)

// AssociatedTokenAddress derives the canonical account address for an
// (owner, mint) pair: the last 20 bytes of keccak256(owner || mint).
func (m *Manager) AssociatedTokenAddress(owner [20]byte, mint [20]byte) [20]byte {
	buf := make([]byte, 0, 40)
	buf = append(buf, owner[:]...)
	buf = append(buf, mint[:]...)
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[len(hash)-20:])
	return out
}

// TokenAccountGet loads a token account by address.
func (m *Manager) TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool, error) {
	account := new(types.TokenAccount)
	ok, err := m.readRecord(prefixedKey(accountPrefix, addr), account)
	if err != nil || !ok {
		return nil, false, err
	}
	return account, true, nil
}

// TokenAccountPut stores a token account. Balances are normalised to non-nil
// before encoding.
func (m *Manager) TokenAccountPut(account *types.TokenAccount) error {
	stored := account.Clone()
	return m.writeRecord(prefixedKey(accountPrefix, stored.Address), stored)
}

func (m *Manager) ensureAccount(owner [20]byte, mint [20]byte, programOwned bool) ([20]byte, error) {
	addr := m.AssociatedTokenAddress(owner, mint)
	if _, ok, err := m.TokenAccountGet(addr); err != nil {
		return [20]byte{}, err
	} else if ok {
		return addr, nil
	}
	account := &types.TokenAccount{
		Address:      addr,
		Owner:        owner,
		Mint:         mint,
		Balance:      big.NewInt(0),
		ProgramOwned: programOwned,
	}
	if err := m.TokenAccountPut(account); err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// EnsureAssociatedTokenAccount creates the canonical account for an
// (owner, mint) pair if it does not exist yet.
func (m *Manager) EnsureAssociatedTokenAccount(owner [20]byte, mint [20]byte) ([20]byte, error) {
	return m.ensureAccount(owner, mint, false)
}

// ReserveAccount returns the address of the program's payment reserve.
func (m *Manager) ReserveAccount() ([20]byte, error) {
	holder, err := m.ReserveHolderAddress()
	if err != nil {
		return [20]byte{}, err
	}
	paymentMint, err := m.paymentMint()
	if err != nil {
		return [20]byte{}, err
	}
	return m.AssociatedTokenAddress(holder, paymentMint), nil
}

// ReserveAccountEnsure creates the program payment reserve if missing.
func (m *Manager) ReserveAccountEnsure() ([20]byte, error) {
	holder, err := m.ReserveHolderAddress()
	if err != nil {
		return [20]byte{}, err
	}
	paymentMint, err := m.paymentMint()
	if err != nil {
		return [20]byte{}, err
	}
	return m.ensureAccount(holder, paymentMint, true)
}

// ProgramSaleAccountEnsure creates the program's sale-token holding account,
// seeded once at initialisation.
func (m *Manager) ProgramSaleAccountEnsure(mint [20]byte) ([20]byte, error) {
	holder, err := m.ReserveHolderAddress()
	if err != nil {
		return [20]byte{}, err
	}
	return m.ensureAccount(holder, mint, true)
}

// FounderPoolAccount returns the address of the founder pool's payment
// account.
func (m *Manager) FounderPoolAccount() ([20]byte, error) {
	paymentMint, err := m.paymentMint()
	if err != nil {
		return [20]byte{}, err
	}
	return m.AssociatedTokenAddress(m.FounderHolderAddress(), paymentMint), nil
}

// FounderPoolAccountEnsure creates the founder pool payment account if
// missing.
func (m *Manager) FounderPoolAccountEnsure() ([20]byte, error) {
	paymentMint, err := m.paymentMint()
	if err != nil {
		return [20]byte{}, err
	}
	return m.ensureAccount(m.FounderHolderAddress(), paymentMint, true)
}

// VaultAccount returns the address of a user's custodial sale-token account.
func (m *Manager) VaultAccount(owner [20]byte) ([20]byte, error) {
	meta, ok, err := m.SaleMetadata()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrMintNotFound
	}
	return m.AssociatedTokenAddress(m.VaultHolderAddress(owner), meta.Mint), nil
}

// VaultAccountEnsure creates a user's custodial sale-token account if missing.
func (m *Manager) VaultAccountEnsure(owner [20]byte) ([20]byte, error) {
	meta, ok, err := m.SaleMetadata()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrMintNotFound
	}
	return m.ensureAccount(m.VaultHolderAddress(owner), meta.Mint, true)
}

// MintInfoGet loads a mint record.
func (m *Manager) MintInfoGet(mint [20]byte) (*types.MintInfo, bool, error) {
	info := new(types.MintInfo)
	ok, err := m.readRecord(prefixedKey(mintPrefix, mint), info)
	if err != nil || !ok {
		return nil, false, err
	}
	return info, true, nil
}

// MintInfoPut stores a mint record.
func (m *Manager) MintInfoPut(info *types.MintInfo) error {
	stored := info.Clone()
	return m.writeRecord(prefixedKey(mintPrefix, stored.Address), stored)
}

// CreateMint registers a mint with zero supply under the given authority.
func (m *Manager) CreateMint(mint [20]byte, authority [20]byte, decimals uint8) error {
	return m.MintInfoPut(&types.MintInfo{
		Address:   mint,
		Authority: authority,
		Supply:    big.NewInt(0),
		Decimals:  decimals,
	})
}

// SetMintAuthority hands a mint's authority to a new holder. The current
// authority must cover the call.
func (m *Manager) SetMintAuthority(mint [20]byte, auth types.Authority, next [20]byte) error {
	info, ok, err := m.MintInfoGet(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotFound
	}
	if auth.Holder() != info.Authority {
		return ErrUnauthorized
	}
	info.Authority = next
	return m.MintInfoPut(info)
}

// Transfer moves amount between token accounts. The authority must cover the
// source account's owner, and program-owned accounts additionally require a
// derived capability. A zero amount is a no-op.
func (m *Manager) Transfer(from [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	source, ok, err := m.TokenAccountGet(from)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	dest, ok, err := m.TokenAccountGet(to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	if auth.Holder() != source.Owner {
		return ErrUnauthorized
	}
	if source.ProgramOwned && !auth.Derived() {
		return ErrUnauthorized
	}
	if source.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	source.Balance = new(big.Int).Sub(source.Balance, amount)
	dest.Balance = new(big.Int).Add(dest.Balance, amount)
	if err := m.TokenAccountPut(source); err != nil {
		return err
	}
	return m.TokenAccountPut(dest)
}

// MintTo credits freshly minted tokens to an account. The authority must
// match the mint's current authority.
func (m *Manager) MintTo(mint [20]byte, to [20]byte, auth types.Authority, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	info, ok, err := m.MintInfoGet(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotFound
	}
	if auth.Holder() != info.Authority {
		return ErrUnauthorized
	}
	dest, ok, err := m.TokenAccountGet(to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	if amount.Sign() == 0 {
		return nil
	}
	info.Supply = new(big.Int).Add(info.Supply, amount)
	dest.Balance = new(big.Int).Add(dest.Balance, amount)
	if err := m.MintInfoPut(info); err != nil {
		return err
	}
	return m.TokenAccountPut(dest)
}

// Burn destroys tokens held by an account and shrinks the supply. The
// authority must cover the account's owner, with the derived requirement for
// program-owned custody accounts.
func (m *Manager) Burn(mint [20]byte, from [20]byte, auth types.Authority, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	info, ok, err := m.MintInfoGet(mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMintNotFound
	}
	source, ok, err := m.TokenAccountGet(from)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	if auth.Holder() != source.Owner {
		return ErrUnauthorized
	}
	if source.ProgramOwned && !auth.Derived() {
		return ErrUnauthorized
	}
	if source.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if amount.Sign() == 0 {
		return nil
	}
	source.Balance = new(big.Int).Sub(source.Balance, amount)
	info.Supply = new(big.Int).Sub(info.Supply, amount)
	if err := m.TokenAccountPut(source); err != nil {
		return err
	}
	return m.MintInfoPut(info)
}

// Balance returns an account's balance, zero when the account is missing.
func (m *Manager) Balance(addr [20]byte) (*big.Int, error) {
	account, ok, err := m.TokenAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}

// Supply returns a mint's outstanding supply, zero when the mint is missing.
func (m *Manager) Supply(mint [20]byte) (*big.Int, error) {
	info, ok, err := m.MintInfoGet(mint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(info.Supply), nil
}

// CurveSnapshot reads the reserve balance and sale supply once for use across
// a pricing computation.
func (m *Manager) CurveSnapshot() (market.CurveSnapshot, error) {
	meta, ok, err := m.SaleMetadata()
	if err != nil {
		return market.CurveSnapshot{}, err
	}
	if !ok {
		return market.CurveSnapshot{}, ErrMintNotFound
	}
	reserve, err := m.ReserveAccount()
	if err != nil {
		return market.CurveSnapshot{}, err
	}
	liquidity, err := m.Balance(reserve)
	if err != nil {
		return market.CurveSnapshot{}, err
	}
	supply, err := m.Supply(meta.Mint)
	if err != nil {
		return market.CurveSnapshot{}, err
	}
	return market.CurveSnapshot{Liquidity: liquidity, Supply: supply}, nil
}
