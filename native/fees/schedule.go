package fees

import "math/big"

// BpsDenominator is the basis-point scale: 10,000 bps = 100%.
const BpsDenominator = 10_000

// Immediate-buy fee triple applied by the bonding-curve market.
const (
	TeamFeeBps         = 200 // 2%
	FounderFeeBps      = 50  // 0.5%
	LockedLiquidityBps = 750 // 7.5%
)

// EarlyUnlockPenaltyBps is added to the team share when a locked position is
// exited before its unlock time.
const EarlyUnlockPenaltyBps = 50

// Schedule is one (liquidity, team, founder) basis-point triple.
type Schedule struct {
	LiquidityBps uint64
	TeamBps      uint64
	FounderBps   uint64
}

// ImmediateSchedule returns the fixed triple used by immediate buys.
func ImmediateSchedule() Schedule {
	return Schedule{LiquidityBps: LockedLiquidityBps, TeamBps: TeamFeeBps, FounderBps: FounderFeeBps}
}

// LockSchedule resolves the fee triple for a lock duration. The founder share
// is constant at 25 bps across all seven bands; liquidity and team shares grow
// with the commitment.
func LockSchedule(lockDays uint64) Schedule {
	switch {
	case lockDays <= 3:
		return Schedule{LiquidityBps: 400, TeamBps: 100, FounderBps: 25}
	case lockDays <= 7:
		return Schedule{LiquidityBps: 500, TeamBps: 150, FounderBps: 25}
	case lockDays <= 14:
		return Schedule{LiquidityBps: 600, TeamBps: 200, FounderBps: 25}
	case lockDays <= 31:
		return Schedule{LiquidityBps: 1000, TeamBps: 250, FounderBps: 25}
	case lockDays <= 60:
		return Schedule{LiquidityBps: 1000, TeamBps: 300, FounderBps: 25}
	case lockDays <= 90:
		return Schedule{LiquidityBps: 1500, TeamBps: 400, FounderBps: 25}
	default:
		return Schedule{LiquidityBps: 2000, TeamBps: 500, FounderBps: 25}
	}
}

// ValidLockDays reports whether the duration is one of the accepted lock
// periods.
func ValidLockDays(lockDays uint64) bool {
	switch lockDays {
	case 3, 7, 14, 31, 60, 90:
		return true
	default:
		return false
	}
}

// Shares is the result of slicing a gross payment against a schedule. Net is
// the remainder forwarded to the bonding curve. For any non-negative gross,
// Team+Founder+Liquidity <= gross and Net >= 0.
type Shares struct {
	Team      *big.Int
	Founder   *big.Int
	Liquidity *big.Int
	Net       *big.Int
}

// SplitGross slices a gross amount against the schedule using truncating
// basis-point division.
func (s Schedule) SplitGross(gross *big.Int) Shares {
	amount := big.NewInt(0)
	if gross != nil && gross.Sign() > 0 {
		amount = new(big.Int).Set(gross)
	}
	team := bpsShare(amount, s.TeamBps)
	founder := bpsShare(amount, s.FounderBps)
	liquidity := bpsShare(amount, s.LiquidityBps)
	net := new(big.Int).Sub(amount, team)
	net.Sub(net, founder)
	net.Sub(net, liquidity)
	if net.Sign() < 0 {
		net = big.NewInt(0)
	}
	return Shares{Team: team, Founder: founder, Liquidity: liquidity, Net: net}
}

func bpsShare(amount *big.Int, bps uint64) *big.Int {
	share := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return share.Quo(share, big.NewInt(BpsDenominator))
}
