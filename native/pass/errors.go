package pass

import "errors"

var (
	ErrAlreadyHasPass         = errors.New("pass: user already holds a pass")
	ErrSelfReferral           = errors.New("pass: referral cannot be the buyer")
	ErrMissingReferralAccount = errors.New("pass: referral payment account required")
	ErrInvalidReferralAccount = errors.New("pass: referral payment account owner mismatch")
	ErrMissingDeployerAccount = errors.New("pass: deployer payment account required")
	ErrInvalidDeployerAccount = errors.New("pass: deployer payment account owner mismatch")
	ErrUnauthorized           = errors.New("pass: caller is not the deployer")
	ErrSaleNotInitialized     = errors.New("pass: sale not initialized")
)
