package models

import "errors"

// Domain errors. Infrastructure failures are wrapped around these with %w.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("state conflict")
	ErrDuplicateActive = errors.New("service already requested")
	ErrPhoneRequired   = errors.New("phone verification required")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidKind     = errors.New("item is not a service")
	ErrAlreadyOccupied = errors.New("room already occupied")
	ErrNoActiveStay    = errors.New("room has no active stay")
	ErrNotCleaning     = errors.New("room is not cleaning")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnavailable     = errors.New("broadcast layer unavailable")

	ErrNoStay        = errors.New("no active stay to verify against")
	ErrEmptyPhone    = errors.New("phone is empty")
	ErrPhoneMismatch = errors.New("phone does not match")

	ErrSubscriptionExpired = errors.New("hotel subscription expired")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
)
