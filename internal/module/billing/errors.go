package billing

import "errors"

var (
	// ErrPlanNotFound is returned when a plan lookup misses.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrUnknownPrice is returned when a Stripe price does not map to a tier.
	ErrUnknownPrice = errors.New("unknown stripe price")
)
