package dto

import (
	"net/http"
	"strings"
)

// ErrorClass is the coarse category every error code falls into.
// Clients branch on the class; the code carries the specific reason.
type ErrorClass string

const (
	ClassUnauthorized       ErrorClass = "Unauthorized"
	ClassForbidden          ErrorClass = "Forbidden"
	ClassNotFound           ErrorClass = "NotFound"
	ClassInvalidInput       ErrorClass = "InvalidInput"
	ClassPreconditionFailed ErrorClass = "PreconditionFailed"
	ClassInternal           ErrorClass = "Internal"
)

// Transport-level error codes. Domain codes (VENDOR_NOT_APPROVED,
// COUPON_EXPIRED, ...) are passed through unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeInvalidID    = "INVALID_ID"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"

	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// codeClass classifies codes that the prefix rules below would get wrong
// or that do not follow them at all
var codeClass = map[string]ErrorClass{
	ErrCodeInternal:     ClassInternal,
	ErrCodeUnauthorized: ClassUnauthorized,
	ErrCodeTokenExpired: ClassUnauthorized,
	ErrCodeTokenInvalid: ClassUnauthorized,
	ErrCodeForbidden:    ClassForbidden,
	ErrCodeNotFound:     ClassNotFound,
	ErrCodeValidation:   ClassInvalidInput,
	ErrCodeBadRequest:   ClassInvalidInput,
	ErrCodeInvalidJSON:  ClassInvalidInput,
	ErrCodeInvalidID:    ClassInvalidInput,
	ErrCodeRateLimited:  ClassPreconditionFailed,

	ErrCodeRequestTooLarge: ClassInvalidInput,

	"CANCELLATION_REASON_REQUIRED": ClassInvalidInput,
	"ALREADY_EXISTS":               ClassPreconditionFailed,
	"CONCURRENCY_CONFLICT":         ClassPreconditionFailed,
	"OPTIMISTIC_LOCK_ERROR":        ClassPreconditionFailed,
	"PRECONDITION_FAILED":          ClassPreconditionFailed,
	"NO_FIELDS_TO_UPDATE":          ClassPreconditionFailed,
	"INVALID_STATE":                ClassPreconditionFailed,
	"INVALID_STATUS_TRANSITION":    ClassPreconditionFailed,
	"TERMINAL_STATE":               ClassPreconditionFailed,
	"VENDOR_NOT_APPROVED":          ClassPreconditionFailed,
	"MESSAGE_CLOSED":               ClassPreconditionFailed,
	"COUPON_INACTIVE":              ClassPreconditionFailed,
	"COUPON_NOT_STARTED":           ClassPreconditionFailed,
	"COUPON_EXPIRED":               ClassPreconditionFailed,
	"COUPON_USAGE_LIMIT":           ClassPreconditionFailed,
	"COUPON_MIN_PURCHASE":          ClassPreconditionFailed,
}

// statusOverride pins codes whose HTTP status differs from their class default
var statusOverride = map[string]int{
	"ALREADY_EXISTS":        http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"OPTIMISTIC_LOCK_ERROR": http.StatusConflict,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
}

var classStatus = map[ErrorClass]int{
	ClassUnauthorized:       http.StatusUnauthorized,
	ClassForbidden:          http.StatusForbidden,
	ClassNotFound:           http.StatusNotFound,
	ClassInvalidInput:       http.StatusBadRequest,
	ClassPreconditionFailed: http.StatusUnprocessableEntity,
	ClassInternal:           http.StatusInternalServerError,
}

// ClassOf returns the error class for a code. INVALID_* codes are input
// errors and *_NOT_FOUND codes are lookups; anything unknown is Internal.
func ClassOf(code string) ErrorClass {
	if class, ok := codeClass[code]; ok {
		return class
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return ClassInvalidInput
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return ClassNotFound
	}
	return ClassInternal
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := statusOverride[code]; ok {
		return status
	}
	return classStatus[ClassOf(code)]
}
