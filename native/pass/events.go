package pass

import (
	"encoding/hex"

	"uponly/core/types"
)

const (
	// TypePurchased marks a paid pass sale.
	TypePurchased = "pass.purchased"
	// TypeGranted marks a deployer-issued pass.
	TypeGranted = "pass.granted"
)

type passEvent struct {
	evt *types.Event
}

func (e passEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e passEvent) Event() *types.Event { return e.evt }

func purchasedEvent(record *Record) *types.Event {
	attrs := map[string]string{
		"owner": hexAddr(record.Owner),
	}
	if record.ReferralSet {
		attrs["referral"] = hexAddr(record.Referral)
	}
	return &types.Event{Type: TypePurchased, Attributes: attrs}
}

func grantedEvent(record *Record, caller [20]byte) *types.Event {
	return &types.Event{Type: TypeGranted, Attributes: map[string]string{
		"owner":   hexAddr(record.Owner),
		"granter": hexAddr(caller),
	}}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
