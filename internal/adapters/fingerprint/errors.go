package fingerprint

import (
	"errors"
	"fmt"
)

// Sentinel errors for vendor lookups and imports
var (
	// ErrInvalidMAC indicates the MAC address format is invalid
	ErrInvalidMAC = errors.New("invalid MAC address format")

	// ErrEmptyMAC indicates an empty MAC address was provided
	ErrEmptyMAC = errors.New("empty MAC address")

	// ErrVendorNotFound indicates no vendor was found for the given prefix
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrRepositoryClosed indicates the repository has been closed
	ErrRepositoryClosed = errors.New("repository is closed")

	// ErrUnknownSource indicates an unsupported registry import source
	ErrUnknownSource = errors.New("unknown OUI source")
)

// DatabaseError wraps database-specific errors with the failed operation
type DatabaseError struct {
	Op  string // e.g. "lookup", "bulk_insert"
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("oui database %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// ValidationError wraps validation errors with the invalid value
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
