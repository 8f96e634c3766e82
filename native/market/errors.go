package market

import "errors"

var (
	ErrNoPass                 = errors.New("market: caller does not hold a pass")
	ErrPassRecordMissing      = errors.New("market: caller pass record not found")
	ErrInvalidAmount          = errors.New("market: amount must be positive")
	ErrMissingReferralAccount = errors.New("market: referral payment account required")
	ErrInvalidReferralAccount = errors.New("market: referral payment account owner mismatch")
	ErrMissingDeployerAccount = errors.New("market: deployer payment account required")
	ErrInvalidDeployerAccount = errors.New("market: deployer payment account owner mismatch")
	ErrSaleNotInitialized     = errors.New("market: sale not initialized")
)
