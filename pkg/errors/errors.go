package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Reason  string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code onto a transport status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WithDetail attaches a diagnostic key/value to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
	ErrUnprocessable
)

// Machine-readable reasons surfaced to callers
const (
	ReasonCardNotFound       = "card_not_found"
	ReasonCardInvalid        = "card_invalid"
	ReasonFacilityNotFound   = "facility_not_found"
	ReasonFacilityInactive   = "facility_inactive"
	ReasonNoApplicablePolicy = "no_applicable_policy"
	ReasonInvalidAmount      = "invalid_amount"
	ReasonInvalidTransition  = "invalid_transition"
	ReasonSequenceConflict   = "sequence_conflict"
	ReasonSequenceExhausted  = "sequence_exhausted"
	ReasonClaimNotFound      = "claim_not_found"
	ReasonCardTypeNotFound   = "card_type_not_found"
	ReasonValidationFailed   = "validation_failed"
	ReasonNotFound           = "not_found"
	ReasonForbidden          = "forbidden"
	ReasonUnauthorized       = "unauthorized"
	ReasonInternal           = "internal_error"
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Reason:  ReasonNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Reason:  ReasonValidationFailed,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Reason:  ReasonInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Reason:  ReasonUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Reason:  ReasonForbidden,
		Message: message,
	}
}

// Domain errors

func CardNotFound(cardNumber string) *AppError {
	return (&AppError{
		Code:    ErrNotFound,
		Reason:  ReasonCardNotFound,
		Message: "insurance card not found",
	}).WithDetail("card_number", cardNumber)
}

func CardInvalid(cardNumber string, reasons []string) *AppError {
	return (&AppError{
		Code:    ErrUnprocessable,
		Reason:  ReasonCardInvalid,
		Message: "insurance card is not valid",
	}).WithDetail("card_number", cardNumber).WithDetail("reasons", reasons)
}

func CardTypeNotFound(code string) *AppError {
	return (&AppError{
		Code:    ErrNotFound,
		Reason:  ReasonCardTypeNotFound,
		Message: "card type not found",
	}).WithDetail("card_type", code)
}

func FacilityNotFound(code string) *AppError {
	return (&AppError{
		Code:    ErrNotFound,
		Reason:  ReasonFacilityNotFound,
		Message: "healthcare facility not found",
	}).WithDetail("facility_code", code)
}

func FacilityInactive(code string) *AppError {
	return (&AppError{
		Code:    ErrUnprocessable,
		Reason:  ReasonFacilityInactive,
		Message: "healthcare facility is not active",
	}).WithDetail("facility_code", code)
}

func NoApplicablePolicy(details map[string]interface{}) *AppError {
	return &AppError{
		Code:    ErrUnprocessable,
		Reason:  ReasonNoApplicablePolicy,
		Message: "no applicable coverage policy",
		Details: details,
	}
}

func InvalidAmount(message string) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Reason:  ReasonInvalidAmount,
		Message: message,
	}
}

func InvalidTransition(from, to string) *AppError {
	return (&AppError{
		Code:    ErrConflict,
		Reason:  ReasonInvalidTransition,
		Message: fmt.Sprintf("cannot transition claim from %s to %s", from, to),
	}).WithDetail("from", from).WithDetail("to", to)
}

func SequenceConflict(monthKey string, err error) *AppError {
	return (&AppError{
		Code:    ErrConflict,
		Reason:  ReasonSequenceConflict,
		Message: "claim number assignment conflicted",
		Err:     err,
	}).WithDetail("month_key", monthKey)
}

func SequenceExhausted(monthKey string) *AppError {
	return (&AppError{
		Code:    ErrConflict,
		Reason:  ReasonSequenceExhausted,
		Message: "claim number sequence exhausted for month",
	}).WithDetail("month_key", monthKey)
}

func ClaimNotFound(ref string) *AppError {
	return (&AppError{
		Code:    ErrNotFound,
		Reason:  ReasonClaimNotFound,
		Message: "claim not found",
	}).WithDetail("claim", ref)
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasReason reports whether err carries an AppError with the given reason.
func HasReason(err error, reason string) bool {
	appErr, ok := As(err)
	return ok && appErr.Reason == reason
}
