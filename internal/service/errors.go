package service

import "errors"

// Kind classifies a service failure so boundary adapters can map it to a
// stable external status without inspecting message text.
type Kind int

const (
	// KindPersistence covers failures of the storage collaborator; they
	// propagate wrapped and are never recovered locally.
	KindPersistence Kind = iota
	// KindValidation covers malformed or out-of-range input.
	KindValidation
	// KindNotFound covers an absent coupon, grant, or template.
	KindNotFound
	// KindConflict covers state conflicts: exhausted stock, per-user
	// limits, duplicate codes, already-used grants.
	KindConflict
	// KindTemporal covers claims outside the coupon's validity window.
	KindTemporal
)

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCouponType is returned when a type name resolves to no canonical type.
	ErrInvalidCouponType = errors.New("unknown coupon type")

	// ErrMinAmountNotMet is returned when an order amount is below the coupon's minimum.
	ErrMinAmountNotMet = errors.New("order amount below coupon minimum")

	// ErrCouponNotFound is returned when no active coupon matches the given identifier.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrGrantNotFound is returned when a user holds no grant for the given coupon.
	ErrGrantNotFound = errors.New("user holds no grant for this coupon")

	// ErrCodeExists is returned when creating a coupon whose code is already in use.
	ErrCodeExists = errors.New("coupon code already exists")

	// ErrOutOfStock is returned when a coupon has no remaining claimable units.
	ErrOutOfStock = errors.New("coupon out of stock")

	// ErrPerUserLimitExceeded is returned when a user already holds the
	// maximum number of grants for a coupon.
	ErrPerUserLimitExceeded = errors.New("per-user claim limit reached")

	// ErrAlreadyUsed is returned when every matching grant has already been redeemed.
	ErrAlreadyUsed = errors.New("coupon already used")

	// ErrNotStarted is returned when a coupon's validity window has not opened yet.
	ErrNotStarted = errors.New("coupon not started")

	// ErrExpired is returned when a coupon's validity window has closed.
	ErrExpired = errors.New("coupon expired")
)

// KindOf reports the Kind of a service error. Unrecognized errors are
// persistence failures by definition: every locally raised error is one
// of the sentinels above.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidCouponType),
		errors.Is(err, ErrMinAmountNotMet):
		return KindValidation
	case errors.Is(err, ErrCouponNotFound),
		errors.Is(err, ErrGrantNotFound):
		return KindNotFound
	case errors.Is(err, ErrCodeExists),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrPerUserLimitExceeded),
		errors.Is(err, ErrAlreadyUsed):
		return KindConflict
	case errors.Is(err, ErrNotStarted),
		errors.Is(err, ErrExpired):
		return KindTemporal
	default:
		return KindPersistence
	}
}
