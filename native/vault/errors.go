package vault

import "errors"

var (
	// ErrVaultExists is returned when initialising a custody account that
	// already exists.
	ErrVaultExists = errors.New("vault: custody account already initialized")
	// ErrVaultNotInitialized is returned when locking without a custody
	// account.
	ErrVaultNotInitialized = errors.New("vault: custody account not initialized")
	// ErrPositionActive is returned when locking while a position is still
	// open.
	ErrPositionActive = errors.New("vault: active position exists")
	// ErrNoActivePosition is returned when claiming or unlocking without an
	// open position.
	ErrNoActivePosition = errors.New("vault: no active position")
	// ErrLockNotExpired is returned when claiming before the unlock time.
	ErrLockNotExpired = errors.New("vault: lock period not over")
	// ErrInvalidLockPeriod is returned for a lock duration outside the
	// accepted set.
	ErrInvalidLockPeriod = errors.New("vault: invalid lock period")
	// ErrInvalidAmount is returned for a nil or non-positive payment amount.
	ErrInvalidAmount = errors.New("vault: amount must be positive")
	// ErrMissingReferralAccount is returned when the referral has no payment
	// token account.
	ErrMissingReferralAccount = errors.New("vault: referral payment account missing")
	// ErrInvalidReferralAccount is returned when the referral payment account
	// is owned by someone else.
	ErrInvalidReferralAccount = errors.New("vault: referral payment account owner mismatch")
	// ErrMissingDeployerAccount is returned when the deployer has no payment
	// token account.
	ErrMissingDeployerAccount = errors.New("vault: deployer payment account missing")
	// ErrInvalidDeployerAccount is returned when the deployer payment account
	// is owned by someone else.
	ErrInvalidDeployerAccount = errors.New("vault: deployer payment account owner mismatch")
	// ErrSaleNotInitialized is returned when the sale metadata is missing.
	ErrSaleNotInitialized = errors.New("vault: sale not initialized")
)
