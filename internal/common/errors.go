// Package common defines shared constants and sentinel errors used across
// the coordinator, its backends and the transport layer. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors: missing content or missing registry entry.
	ErrNotFound = errors.New("not found")

	// Registry rejected the sender.
	ErrUnauthorized = errors.New("unauthorized")

	// Malformed ciphertext, failed authentication or wrong key. The three
	// causes are reported identically.
	ErrDecryption = errors.New("decryption failed")

	// Registry write failures.
	ErrSubmission         = errors.New("transaction submission failed")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrTransactionTimeout = errors.New("transaction confirmation timed out")
	ErrConflict           = errors.New("resource already registered")

	// Boundary validation (malformed address or input).
	ErrValidation = errors.New("validation error")

	// Stored bytes do not match their content identifier.
	ErrCorrupt = errors.New("corrupt content")

	ErrInternal = errors.New("internal error")

	// Access token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// PartialWriteError reports a create that stored content but did not finish
// registering it. CID names the orphaned content so it can be registered
// later; Err is the registry-side cause.
type PartialWriteError struct {
	CID string
	Err error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("content stored as %s but not registered: %v", e.CID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
