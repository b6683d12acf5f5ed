package model

import "errors"

var (
	// ErrNotFound is returned by stores when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	ErrAccountExists      = errors.New("account already exists")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionInvalid     = errors.New("session is invalid")

	// ErrHash signals that the entropy source failed while hashing. It is not retryable.
	ErrHash = errors.New("password hashing failed")
)
