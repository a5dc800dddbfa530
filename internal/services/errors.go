package services

import "errors"

// ErrValidation marks bad input. Handlers surface the wrapped message
// with a 400 status.
var ErrValidation = errors.New("validation failed")

// ErrForbidden is returned when an authenticated caller lacks the role
// or ownership an operation requires.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidPassword is returned by Login when the account exists but
// the password does not match. Distinct from store.ErrNotFound so the
// API can answer 401 vs 404.
var ErrInvalidPassword = errors.New("invalid password")

// ErrInvalidTransition is returned when a moderation action would move
// a resource along a transition the table does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStorage wraps object-storage failures so handlers can answer 500
// without leaking backend detail.
var ErrStorage = errors.New("storage failure")
