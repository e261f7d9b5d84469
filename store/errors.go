package store

import "errors"

var (
	// ErrProtectedTable is returned when deleting the default table.
	ErrProtectedTable = errors.New("default table cannot be deleted")

	// ErrInvalidRetention is returned for a non-positive cleanup window.
	ErrInvalidRetention = errors.New("retention window must be positive")
)
