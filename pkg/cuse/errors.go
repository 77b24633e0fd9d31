package cuse

import (
	cerrors "github.com/Aman-CERP/cuse/internal/errors"
)

// Sentinels for errors.Is. Errors returned by the engine carry the same code
// plus details about the offending type, field or limit.
var (
	// ErrNotConfiguredIndexingStrategy is returned when a type has no
	// registered strategy and no index override applies.
	ErrNotConfiguredIndexingStrategy = cerrors.New(cerrors.ErrCodeStrategyNotConfigured, "indexing strategy not configured", nil)

	// ErrNotConfiguredIdConverter is returned when an id type has no converter.
	ErrNotConfiguredIdConverter = cerrors.New(cerrors.ErrCodeIdConverterNotConfigured, "id converter not configured", nil)

	// ErrEmptyMatcher is returned when a field filter's value is blank.
	ErrEmptyMatcher = cerrors.New(cerrors.ErrCodeEmptyMatcher, "matcher value is empty", nil)

	// ErrInvalidSearch is returned when a search has neither filters nor a
	// raw query.
	ErrInvalidSearch = cerrors.New(cerrors.ErrCodeInvalidSearch, "search has no query", nil)

	// ErrSearchLimitExceeded is returned for a limit above MaxSearchLimit.
	ErrSearchLimitExceeded = cerrors.New(cerrors.ErrCodeSearchLimitExceeded, "search limit exceeded", nil)

	// ErrNegativeSearchLimit is returned for a limit below zero.
	ErrNegativeSearchLimit = cerrors.New(cerrors.ErrCodeNegativeSearchLimit, "search limit is negative", nil)

	// ErrEntityTypeMismatch is returned when a loader hands back a value that
	// is not of the searched type.
	ErrEntityTypeMismatch = cerrors.New(cerrors.ErrCodeEntityTypeMismatch, "loaded entity has unexpected type", nil)

	// ErrNilDependency is returned when a required collaborator is missing.
	ErrNilDependency = cerrors.New(cerrors.ErrCodeNilDependency, "nil dependency", nil)
)
