package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeLimitReached is used when a subscription limit blocks the operation
	ErrCodeLimitReached = "ERR_LIMIT_REACHED"
	// ErrCodeModuleNotEnabled is used when the tenant lacks the required module
	ErrCodeModuleNotEnabled = "ERR_MODULE_NOT_ENABLED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,
	ErrCodeLimitReached: http.StatusUnprocessableEntity,

	// Entitlement denials -> 403 Forbidden
	ErrCodeModuleNotEnabled: http.StatusForbidden,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GenericErrorCodeMapping maps the generic domain error codes (the shared
// sentinel errors) to the standardized ERR_* codes. Specific business codes
// (TENANT_CODE_EXISTS, USER_LIMIT_REACHED, ...) are kept as-is so clients
// can branch on them; only the status code is derived for those.
var GenericErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"LIMIT_REACHED":        ErrCodeLimitReached,
	"MODULE_NOT_ENABLED":   ErrCodeModuleNotEnabled,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// domainErrorCodeHTTPStatus carries the domain codes whose status cannot be
// derived from their shape alone.
var domainErrorCodeHTTPStatus = map[string]int{
	// Authentication outcomes
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"TOKEN_ERROR":         http.StatusUnauthorized,
	"ACCOUNT_LOCKED":      http.StatusUnauthorized,
	"ACCOUNT_INACTIVE":    http.StatusUnauthorized,

	// Tenant standing blocks the whole request
	"TENANT_SUSPENDED":  http.StatusForbidden,
	"TENANT_INACTIVE":   http.StatusForbidden,
	"TENANT_NOT_ACTIVE": http.StatusForbidden,

	// Concurrency
	"OPTIMISTIC_LOCK_ERROR": http.StatusConflict,
	"BACKUP_IN_PROGRESS":    http.StatusConflict,

	// Business rules that read like validation but are state-dependent
	"SALE_TOTAL_MISMATCH":    http.StatusUnprocessableEntity,
	"INSUFFICIENT_POINTS":    http.StatusUnprocessableEntity,
	"BRANCH_TENANT_MISMATCH": http.StatusUnprocessableEntity,
	"CUSTOMER_BLOCKED":       http.StatusUnprocessableEntity,
	"EMPTY_SALE":             http.StatusBadRequest,
	"PASSWORD_HASH_ERROR":    http.StatusInternalServerError,
}

// NormalizeErrorCode converts a generic domain error code to the
// standardized format. Specific business codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := GenericErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// GetHTTPStatus returns the HTTP status code for an error code. ERR_* codes
// resolve through the explicit table; bare domain codes are classified by
// their shape. Unknown codes fall back to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if status, ok := domainErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return classifyDomainCode(code)
}

// classifyDomainCode derives an HTTP status from the naming conventions the
// domain layer follows for its error codes.
func classifyDomainCode(code string) int {
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasSuffix(code, "_LIMIT_REACHED"),
		strings.HasSuffix(code, "_IN_USE"),
		strings.HasSuffix(code, "_PROTECTED"),
		strings.HasSuffix(code, "_NOT_INACTIVE"),
		strings.HasSuffix(code, "_NOT_DOWNLOADABLE"),
		strings.HasSuffix(code, "_UNCHANGED"),
		strings.HasPrefix(code, "ALREADY_"),
		strings.HasPrefix(code, "NOT_"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "_REQUIRED"),
		strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_ACTIVE"),
		strings.HasSuffix(code, "_INACTIVE"),
		strings.HasSuffix(code, "_EXPIRED"),
		strings.HasSuffix(code, "_BLOCKED"):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
