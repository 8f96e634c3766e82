package types

// Authority is a capability handle that authorises debits from accounts owned
// by its holder. Two kinds exist: signer authorities, representing a caller
// whose signature the host ledger has already verified, and derived
// authorities, issued by the state manager for program-controlled accounts
// (the reserve, per-user vaults, the founder pool and the mint authority).
// Derived authorities have no corresponding private key, so a signer
// authority can never stand in for one.
type Authority struct {
	holder  [20]byte
	derived bool
}

// SignerAuthority wraps a host-verified signer address.
func SignerAuthority(addr [20]byte) Authority {
	return Authority{holder: addr}
}

// DerivedAuthority wraps a program-derived address. Only the state manager
// issues these; operation handlers and external callers never construct them.
func DerivedAuthority(addr [20]byte) Authority {
	return Authority{holder: addr, derived: true}
}

// Holder returns the account address the capability speaks for.
func (a Authority) Holder() [20]byte { return a.holder }

// Derived reports whether the capability was issued by the state manager.
func (a Authority) Derived() bool { return a.derived }
