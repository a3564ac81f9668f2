package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user-not-found")
	ErrDuplicateUsername = errors.New("duplicate-username")
	ErrDuplicateEmail    = errors.New("duplicate-email")
	ErrNotFound          = errors.New("not-found")

	// UnexpectedDatabaseError wraps driver failures the caller can't act on
	// beyond reporting an internal error.
	UnexpectedDatabaseError = errors.New("unexpected-database-error")

	ErrInvalidSigningAlg     = errors.New("invalid-signing-algorithm")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
	ErrExpiredToken          = errors.New("expired-token")
)
