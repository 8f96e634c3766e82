package market

import "math/big"

// BuyReceipt summarises an immediate buy: the truncating fee split of the
// gross payment and the quantity minted by the averaged-price quote.
type BuyReceipt struct {
	Gross     *big.Int
	Team      *big.Int
	Founder   *big.Int
	Liquidity *big.Int
	Net       *big.Int
	Minted    *big.Int
}

// SellReceipt summarises a sale: the rounded settlement value, the rounded
// fee shares and the payout remainder. The liquidity share never leaves the
// reserve.
type SellReceipt struct {
	Burned    *big.Int
	Value     *big.Int
	Team      *big.Int
	Founder   *big.Int
	Liquidity *big.Int
	Payout    *big.Int
}
