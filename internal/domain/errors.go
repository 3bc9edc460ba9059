package domain

import "errors"

// Expected auth outcomes. Each maps to a structured 4xx response; anything
// else surfacing from the stores is an infrastructure failure (5xx).
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidMobile      = errors.New("invalid mobile number")
	ErrExpiredPending     = errors.New("pending registration expired or not found")
	ErrAlreadyCompleted   = errors.New("pending registration already completed")
	ErrIdentityAssertion  = errors.New("identity assertion invalid")
	ErrEmailTaken         = errors.New("email already registered")
	ErrMobileTaken        = errors.New("mobile number already registered")
	ErrUserNotFound       = errors.New("user not found")
)
