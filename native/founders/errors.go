package founders

import "errors"

var (
	// ErrPoolExists is returned when initialising a pool that already exists.
	ErrPoolExists = errors.New("founders: pool already initialized")
	// ErrPoolNotInitialized is returned when an operation needs a pool that
	// has not been created yet.
	ErrPoolNotInitialized = errors.New("founders: pool not initialized")
	// ErrRosterFull is returned when the roster already holds Capacity slots.
	ErrRosterFull = errors.New("founders: roster full")
	// ErrAlreadyFounder is returned when admitting an address that already
	// holds a slot.
	ErrAlreadyFounder = errors.New("founders: address already holds a slot")
	// ErrNotFounder is returned when a claimer holds no roster slot.
	ErrNotFounder = errors.New("founders: caller is not a founder")
	// ErrNothingToClaim is returned when a founder's claimable share is zero.
	ErrNothingToClaim = errors.New("founders: nothing to claim")
	// ErrUnauthorized is returned when a gated operation is attempted by an
	// account other than the deployer.
	ErrUnauthorized = errors.New("founders: caller is not the deployer")
	// ErrSaleNotInitialized is returned when the sale metadata is missing.
	ErrSaleNotInitialized = errors.New("founders: sale not initialized")
)
