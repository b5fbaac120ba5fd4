package domain

import "errors"

var (
	// ErrValidation marks caller mistakes rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks lookups of entities that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned by the stock pre-check; no write was attempted.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is returned after the optimistic-lock retry budget is exhausted.
	// The whole pricing request may be retried.
	ErrConflict = errors.New("stock version conflict")

	// ErrLockUnavailable is returned when the reservation lock cannot be
	// acquired within its retry budget.
	ErrLockUnavailable = errors.New("reservation lock unavailable")
)
