package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Resource error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Rendering error codes
const (
	// ErrCodeRenderFailed covers staging, capture and assembly failures
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
	// ErrCodeDataUnavailable is used when render inputs could not be loaded
	ErrCodeDataUnavailable = "ERR_DATA_UNAVAILABLE"
	// ErrCodeStorageFailed is used when a document could not be saved
	ErrCodeStorageFailed = "ERR_STORAGE_FAILED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Availability error codes
const (
	ErrCodeShuttingDown = "ERR_SHUTTING_DOWN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	// The browser is an upstream dependency of the render
	ErrCodeRenderFailed:    http.StatusBadGateway,
	ErrCodeDataUnavailable: http.StatusServiceUnavailable,
	ErrCodeStorageFailed:   http.StatusInternalServerError,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeShuttingDown: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain and render error codes to API codes
var LegacyErrorCodeMapping = map[string]string{
	// domain
	"NOT_FOUND":              ErrCodeNotFound,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"INVALID_STATUS":         ErrCodeInvalidState,
	"INVALID_CLIENT":         ErrCodeInvalidInput,
	"INVALID_DOCUMENT_KIND":  ErrCodeInvalidInput,
	"INVALID_INVOICE_NUMBER": ErrCodeInvalidInput,
	"INVALID_PAYMENT_TERMS":  ErrCodeInvalidInput,
	"INVALID_TEMPLATE_NAME":  ErrCodeInvalidInput,
	"INTERNAL_ERROR":         ErrCodeInternal,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"SHUTTING_DOWN":          ErrCodeShuttingDown,

	// rendering
	"INVALID_REQUEST":  ErrCodeInvalidInput,
	"STAGING_FAILED":   ErrCodeRenderFailed,
	"CAPTURE_FAILED":   ErrCodeRenderFailed,
	"EMPTY_CAPTURE":    ErrCodeRenderFailed,
	"ASSEMBLY_FAILED":  ErrCodeRenderFailed,
	"DATA_UNAVAILABLE": ErrCodeDataUnavailable,
	"STORAGE_FAILED":   ErrCodeStorageFailed,
}

// NormalizeErrorCode converts a domain or render error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
