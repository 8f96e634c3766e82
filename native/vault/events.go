package vault

import (
	"encoding/hex"
	"strconv"

	"uponly/core/types"
)

const (
	// TypeVaultInitialized marks creation of a custodial account.
	TypeVaultInitialized = "vault.initialized"
	// TypeLocked marks a buy-and-lock purchase.
	TypeLocked = "vault.locked"
	// TypeClaimed marks a matured claim settlement.
	TypeClaimed = "vault.claimed"
	// TypeEarlyUnlocked marks a penalised early exit.
	TypeEarlyUnlocked = "vault.early_unlocked"
)

type vaultEvent struct {
	evt *types.Event
}

func (e vaultEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vaultEvent) Event() *types.Event { return e.evt }

func vaultInitializedEvent(owner [20]byte) *types.Event {
	return &types.Event{Type: TypeVaultInitialized, Attributes: map[string]string{
		"owner": hexAddr(owner),
	}}
}

func lockedEvent(owner [20]byte, receipt *LockReceipt) *types.Event {
	return &types.Event{Type: TypeLocked, Attributes: map[string]string{
		"owner":       hexAddr(owner),
		"gross":       receipt.Gross.String(),
		"minted":      receipt.Minted.String(),
		"unlock_time": strconv.FormatUint(receipt.UnlockTime, 10),
	}}
}

func settledEvent(owner [20]byte, receipt *SettleReceipt) *types.Event {
	evtType := TypeClaimed
	if receipt.Early {
		evtType = TypeEarlyUnlocked
	}
	return &types.Event{Type: evtType, Attributes: map[string]string{
		"owner":  hexAddr(owner),
		"burned": receipt.Burned.String(),
		"value":  receipt.Value.String(),
		"payout": receipt.Payout.String(),
	}}
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
