// Package errors provides structured error handling for cuse.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (missing strategies, converters, bad config)
//   - 4XX: Validation errors (caller input that can never execute)
//   - 5XX: Internal errors
//
// None of the codes are retryable: every condition is a caller or wiring
// mistake that fails the same way on every attempt.
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates wiring or configuration errors.
	CategoryConfig Category = "CONFIG"
	// CategoryValidation indicates invalid search input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeStrategyNotConfigured    = "ERR_101_STRATEGY_NOT_CONFIGURED"
	ErrCodeIdConverterNotConfigured = "ERR_102_ID_CONVERTER_NOT_CONFIGURED"
	ErrCodeConfigInvalid            = "ERR_103_CONFIG_INVALID"
	ErrCodeNilDependency            = "ERR_104_NIL_DEPENDENCY"

	// Validation errors (400-499)
	ErrCodeEmptyMatcher        = "ERR_401_EMPTY_MATCHER"
	ErrCodeInvalidSearch       = "ERR_402_INVALID_SEARCH"
	ErrCodeSearchLimitExceeded = "ERR_403_SEARCH_LIMIT_EXCEEDED"
	ErrCodeNegativeSearchLimit = "ERR_404_NEGATIVE_SEARCH_LIMIT"
	ErrCodeEntityTypeMismatch  = "ERR_405_ENTITY_TYPE_MISMATCH"
	ErrCodeInvalidIndexName    = "ERR_406_INVALID_INDEX_NAME"

	// Internal errors (500-599)
	ErrCodeInternal           = "ERR_501_INTERNAL"
	ErrCodeIdConversionFailed = "ERR_502_ID_CONVERSION_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
