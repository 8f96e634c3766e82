package state

import (
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"uponly/core/types"
	"uponly/storage"
)

var (
	// ErrAccountNotFound is returned when a token account does not exist.
	ErrAccountNotFound = errors.New("state: token account not found")
	// ErrMintNotFound is returned when a mint record does not exist.
	ErrMintNotFound = errors.New("state: mint not found")
	// ErrUnauthorized is returned when an authority does not cover the debited
	// account or mint.
	ErrUnauthorized = errors.New("state: authority does not cover account")
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
	// ErrInvalidAmount is returned for nil or negative transfer amounts.
	ErrInvalidAmount = errors.New("state: invalid amount")
)

var (
	saleMetadataKey = ethcrypto.Keccak256([]byte("sale:metadata"))
	foundersPoolKey = ethcrypto.Keccak256([]byte("founders:pool"))
	accountPrefix   = []byte("token-account:")
	mintPrefix      = []byte("mint:")
	passPrefix      = []byte("pass:")
	lockPrefix      = []byte("lock:")
)

func prefixedKey(prefix []byte, addr [20]byte) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

// deriveAddress computes a deterministic program address from seed parts. The
// seeds mirror the sale's authority namespaces: "mint_authority",
// "vault"+owner, "token_account"+payment mint and "founder_authority".
func deriveAddress(seeds ...[]byte) [20]byte {
	var buf []byte
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	hash := ethcrypto.Keccak256(buf)
	var out [20]byte
	copy(out[:], hash[len(hash)-20:])
	return out
}

// Manager persists the sale ledger in a key-value store: the metadata
// singleton, token accounts and mints, pass records, lock positions and the
// founder pool. Records are RLP encoded under keccak-hashed keys. It
// implements the state interface of every native engine and is the only
// issuer of derived authorities.
//
// Writes can be staged behind an overlay opened by Begin: records land in the
// overlay, reads observe them, and nothing reaches the database until Commit.
// A failed operation discards the overlay whole, so partially applied fee
// legs never persist. The caller serialises operations; the overlay is not
// safe for concurrent use.
type Manager struct {
	db    storage.Database
	stage map[string][]byte
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a write overlay. Any overlay already open is replaced.
func (m *Manager) Begin() {
	m.stage = make(map[string][]byte)
}

// Commit flushes the overlay into the database and closes it. Without an open
// overlay it is a no-op.
func (m *Manager) Commit() error {
	stage := m.stage
	m.stage = nil
	for key, value := range stage {
		if err := m.db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops the overlay without writing anything.
func (m *Manager) Discard() {
	m.stage = nil
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if m.stage != nil {
		if value, ok := m.stage[string(key)]; ok {
			return value, nil
		}
	}
	return m.db.Get(key)
}

func (m *Manager) put(key []byte, value []byte) error {
	if m.stage != nil {
		m.stage[string(key)] = value
		return nil
	}
	return m.db.Put(key, value)
}

func (m *Manager) readRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) writeRecord(key []byte, in interface{}) error {
	encoded, err := rlp.EncodeToBytes(in)
	if err != nil {
		return err
	}
	return m.put(key, encoded)
}

// SaleMetadata loads the metadata singleton.
func (m *Manager) SaleMetadata() (*types.SaleMetadata, bool, error) {
	meta := new(types.SaleMetadata)
	ok, err := m.readRecord(saleMetadataKey, meta)
	if err != nil || !ok {
		return nil, false, err
	}
	return meta, true, nil
}

// SaleMetadataPut stores the metadata singleton.
func (m *Manager) SaleMetadataPut(meta *types.SaleMetadata) error {
	return m.writeRecord(saleMetadataKey, meta)
}

func (m *Manager) paymentMint() ([20]byte, error) {
	meta, ok, err := m.SaleMetadata()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrMintNotFound
	}
	return meta.PaymentToken, nil
}

// MintAuthorityAddress returns the derived address that holds the sale mint
// authority after initialisation.
func (m *Manager) MintAuthorityAddress() [20]byte {
	return deriveAddress([]byte("mint_authority"))
}

// MintAuthority issues the capability for the derived mint authority.
func (m *Manager) MintAuthority() types.Authority {
	return types.DerivedAuthority(m.MintAuthorityAddress())
}

// ReserveHolderAddress returns the derived owner of the program reserve
// accounts. It depends only on the payment mint, so it is stable across the
// sale's lifetime.
func (m *Manager) ReserveHolderAddress() ([20]byte, error) {
	paymentMint, err := m.paymentMint()
	if err != nil {
		return [20]byte{}, err
	}
	return deriveAddress([]byte("token_account"), paymentMint[:]), nil
}

// ReserveAuthority issues the capability for the reserve holder. Before
// initialisation no metadata exists and the returned capability covers no
// account, so any debit attempted with it fails.
func (m *Manager) ReserveAuthority() types.Authority {
	holder, err := m.ReserveHolderAddress()
	if err != nil {
		return types.Authority{}
	}
	return types.DerivedAuthority(holder)
}

// FounderHolderAddress returns the derived owner of the founder pool account.
func (m *Manager) FounderHolderAddress() [20]byte {
	return deriveAddress([]byte("founder_authority"))
}

// FounderPoolAuthority issues the capability for the founder pool holder.
func (m *Manager) FounderPoolAuthority() types.Authority {
	return types.DerivedAuthority(m.FounderHolderAddress())
}

// VaultHolderAddress returns the derived owner of a user's custody account.
func (m *Manager) VaultHolderAddress(owner [20]byte) [20]byte {
	return deriveAddress([]byte("vault"), owner[:])
}

// VaultAuthority issues the capability for a user's custody holder.
func (m *Manager) VaultAuthority(owner [20]byte) types.Authority {
	return types.DerivedAuthority(m.VaultHolderAddress(owner))
}
