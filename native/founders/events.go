package founders

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"uponly/core/types"
)

const (
	// TypePoolInitialized marks creation of the singleton founder pool.
	TypePoolInitialized = "founders.pool_initialized"
	// TypeAdded marks admission of a founder into a roster slot.
	TypeAdded = "founders.added"
	// TypeClaimed marks a founder share withdrawal.
	TypeClaimed = "founders.claimed"
)

type foundersEvent struct {
	evt *types.Event
}

func (e foundersEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e foundersEvent) Event() *types.Event { return e.evt }

func poolInitializedEvent(caller [20]byte) *types.Event {
	return &types.Event{Type: TypePoolInitialized, Attributes: map[string]string{
		"caller": hexAddr(caller),
	}}
}

func addedEvent(founder [20]byte, slot int) *types.Event {
	return &types.Event{Type: TypeAdded, Attributes: map[string]string{
		"founder": hexAddr(founder),
		"slot":    strconv.Itoa(slot),
	}}
}

func claimedEvent(founder [20]byte, slot int, amount *big.Int) *types.Event {
	return &types.Event{Type: TypeClaimed, Attributes: map[string]string{
		"founder": hexAddr(founder),
		"slot":    strconv.Itoa(slot),
		"amount":  amount.String(),
	}}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
