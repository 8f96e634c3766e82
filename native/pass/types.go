package pass

// Record is the per-user access pass state. The referral binding is
// write-once: once ReferralSet is true the stored address never changes and
// never equals the owner. Records are never deleted.
type Record struct {
	Owner       [20]byte
	HasPass     bool
	Referral    [20]byte
	ReferralSet bool
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
