package dto

import "net/http"

// Codes produced by the HTTP layer itself. Domain errors keep their own code.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeBodyTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeTimeout         = "REQUEST_TIMEOUT"
	ErrCodeServiceDisabled = "GATEWAY_DISABLED"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Codes missing from the map are business-rule violations and answer 400.
var ErrorCodeHTTPStatus = map[string]int{
	// Auth
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusForbidden,
	"ACCOUNT_DISABLED":    http.StatusForbidden,

	// Resources
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeRouteNotFound: http.StatusNotFound,
	"ALREADY_EXISTS":     http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Transport
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeTimeout:      http.StatusGatewayTimeout,

	// Server side
	ErrCodeInternal:        http.StatusInternalServerError,
	"EMAIL_SEND_FAILED":    http.StatusInternalServerError,
	"UPLOAD_FAILED":        http.StatusInternalServerError,
	"REFUND_FAILED":        http.StatusBadGateway,
	ErrCodeServiceDisabled: http.StatusServiceUnavailable,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
