// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates the email is already registered to another person.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInsufficientStock indicates a request for more copies than are in stock.
	// It also matches ErrValidation.
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrValidation)

	// ErrAgeRestricted indicates the person is younger than the item's age rating.
	ErrAgeRestricted = errors.New("age restricted")

	// ErrExpiredSubscription indicates the member's subscription is no longer valid.
	ErrExpiredSubscription = errors.New("subscription expired")

	// ErrNoValidItems indicates no loan line survived validation.
	ErrNoValidItems = errors.New("no valid items")

	// ErrAlreadyReturned indicates the loan is already closed.
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated person lacks the capability for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
