package market

import (
	"errors"
	"math/big"

	"uponly/native/fees"
)

// ErrCurveNotSeeded is returned when pricing is attempted against an empty
// curve (zero reserve liquidity or zero outstanding supply).
var ErrCurveNotSeeded = errors.New("market: bonding curve not seeded")

// CurveSnapshot is an immutable read of the external reserve balance and sale
// token supply, taken once at operation start and passed functionally through
// the pricing computation. Liquidity is in payment base units, Supply in sale
// token base units.
type CurveSnapshot struct {
	Liquidity *big.Int
	Supply    *big.Int
}

// ClampSupply returns a copy whose supply is at least one base unit. The
// settlement paths treat an empty mint as supply 1; the immediate-buy path
// does not and fails instead.
func (s CurveSnapshot) ClampSupply() CurveSnapshot {
	out := CurveSnapshot{Liquidity: ratInt(s.Liquidity), Supply: ratInt(s.Supply)}
	if out.Supply.Sign() < 1 {
		out.Supply = big.NewInt(1)
	}
	return out
}

// ImmediateGrowth is the liquidity growth assumed by the immediate-buy
// estimate: 95% of the gross payment.
func ImmediateGrowth(gross *big.Int) *big.Rat {
	growth := new(big.Rat).SetInt(ratInt(gross))
	return growth.Mul(growth, big.NewRat(95, 100))
}

// LockGrowth is the liquidity growth assumed by the lock path: the raw net
// amount, without the 95% scaling the immediate path applies.
func LockGrowth(net *big.Int) *big.Rat {
	return new(big.Rat).SetInt(ratInt(net))
}

// QuoteMint computes the token quantity minted for a net curve deposit using
// the averaged-price approximation: the spot price before the trade and a
// hypothetical post-trade price are averaged, and the net amount is divided by
// that average. All arithmetic is exact rational math; the result is floored
// to whole base units. This is a first-order approximation of the continuous
// curve, not an exact integral.
func QuoteMint(snap CurveSnapshot, net *big.Int, growth *big.Rat) (*big.Int, error) {
	liquidity := ratInt(snap.Liquidity)
	supply := ratInt(snap.Supply)
	if liquidity.Sign() <= 0 {
		return nil, ErrCurveNotSeeded
	}
	netAmount := ratInt(net)
	if netAmount.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	spotSupply := new(big.Int).Set(supply)
	if spotSupply.Sign() < 1 {
		spotSupply = big.NewInt(1)
	}
	liquidityRat := new(big.Rat).SetInt(liquidity)
	netRat := new(big.Rat).SetInt(netAmount)

	// The spot price clamps an empty mint to supply 1; the post-trade
	// denominator keeps the raw supply.
	priceStart := new(big.Rat).Quo(liquidityRat, new(big.Rat).SetInt(spotSupply))
	estimated := new(big.Rat).Quo(netRat, priceStart)
	postLiquidity := new(big.Rat).Add(liquidityRat, growth)
	postSupply := new(big.Rat).Add(new(big.Rat).SetInt(supply), estimated)
	priceEnd := new(big.Rat).Quo(postLiquidity, postSupply)

	avgPrice := new(big.Rat).Add(priceStart, priceEnd)
	avgPrice.Mul(avgPrice, big.NewRat(1, 2))
	if avgPrice.Sign() <= 0 {
		return nil, ErrCurveNotSeeded
	}
	minted := new(big.Rat).Quo(netRat, avgPrice)
	return floorRat(minted), nil
}

// SettlementValue prices a sale-token quantity at the spot price, returning
// the exact rational value in payment base units. With the payment token at 6
// decimals and the sale token at 9, the decimal rescaling cancels to
// amount * liquidity / max(supply, 1).
func SettlementValue(snap CurveSnapshot, amount *big.Int) *big.Rat {
	clamped := snap.ClampSupply()
	value := new(big.Rat).SetInt(ratInt(amount))
	value.Mul(value, new(big.Rat).SetInt(clamped.Liquidity))
	value.Quo(value, new(big.Rat).SetInt(clamped.Supply))
	return value
}

// RoundShare computes round(bps/10000 * value) with round-half-away-from-zero.
func RoundShare(value *big.Rat, bps uint64) *big.Int {
	share := new(big.Rat).SetFrac(new(big.Int).SetUint64(bps), big.NewInt(fees.BpsDenominator))
	share.Mul(share, value)
	return RoundRat(share)
}

// RoundRat rounds a rational to the nearest integer, halves away from zero.
func RoundRat(value *big.Rat) *big.Int {
	num := value.Num()
	den := value.Denom()
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	rem.Abs(rem)
	rem.Lsh(rem, 1)
	if rem.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			quo.Sub(quo, big.NewInt(1))
		} else {
			quo.Add(quo, big.NewInt(1))
		}
	}
	return quo
}

func floorRat(value *big.Rat) *big.Int {
	return new(big.Int).Div(value.Num(), value.Denom())
}

func ratInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
