package dto

import (
	"net/http"
	"strings"
)

// Codes produced by the HTTP layer itself. Domain errors keep their own codes.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps exact error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:      http.StatusGatewayTimeout,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	"ALREADY_EXISTS":           http.StatusConflict,
	"CONCURRENCY_CONFLICT":     http.StatusConflict,
	"IMPORT_CONFLICT":          http.StatusConflict,
	"DUPLICATE_CUSTOMER":       http.StatusConflict,
	"USER_HAS_SALES":           http.StatusConflict,
	"INVALID_CREDENTIALS":      http.StatusUnauthorized,
	"ACCOUNT_LOCKED":           http.StatusForbidden,
	"ACCOUNT_INACTIVE":         http.StatusForbidden,
	"USER_INACTIVE":            http.StatusForbidden,
	"ANNOUNCEMENT_NOT_VISIBLE": http.StatusNotFound,
	"FILE_TOO_LARGE":           http.StatusRequestEntityTooLarge,
	"DB_ERROR":                 http.StatusInternalServerError,
	"STORAGE_ERROR":            http.StatusInternalServerError,
	"BACKUP_FILE_MISSING":      http.StatusInternalServerError,
	"BACKUP_CHECKSUM_MISMATCH": http.StatusUnprocessableEntity,
}

// suffixStatus and prefixStatus classify domain codes that are not listed above
var (
	suffixStatus = []struct {
		suffix string
		status int
	}{
		{"_NOT_FOUND", http.StatusNotFound},
		{"_EXISTS", http.StatusConflict},
		{"_IN_USE", http.StatusConflict},
	}
	prefixStatus = []struct {
		prefix string
		status int
	}{
		{"TOKEN_", http.StatusUnauthorized},
		{"INVALID_", http.StatusBadRequest},
		{"MISSING_", http.StatusBadRequest},
		{"EMPTY_", http.StatusBadRequest},
		{"UNSUPPORTED_", http.StatusBadRequest},
		{"TOO_MANY_", http.StatusBadRequest},
	}
)

// GetHTTPStatus returns the HTTP status code for an error code.
// Domain codes that match no rule are business rule violations (422).
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	for _, s := range suffixStatus {
		if strings.HasSuffix(code, s.suffix) {
			return s.status
		}
	}
	for _, p := range prefixStatus {
		if strings.HasPrefix(code, p.prefix) {
			return p.status
		}
	}
	if code == "" {
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
