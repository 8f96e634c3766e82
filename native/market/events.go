package market

import (
	"encoding/hex"

	"uponly/core/types"
)

const (
	// TypeBought marks an immediate curve purchase.
	TypeBought = "market.bought"
	// TypeSold marks a curve sale settled from the reserve.
	TypeSold = "market.sold"
)

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

func boughtEvent(buyer [20]byte, receipt *BuyReceipt) *types.Event {
	return &types.Event{Type: TypeBought, Attributes: map[string]string{
		"buyer":  hexAddr(buyer),
		"gross":  receipt.Gross.String(),
		"net":    receipt.Net.String(),
		"minted": receipt.Minted.String(),
	}}
}

func soldEvent(seller [20]byte, receipt *SellReceipt) *types.Event {
	return &types.Event{Type: TypeSold, Attributes: map[string]string{
		"seller": hexAddr(seller),
		"burned": receipt.Burned.String(),
		"value":  receipt.Value.String(),
		"payout": receipt.Payout.String(),
	}}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
