package apperror

import (
	"fmt"
	"net/http"
)

// Stable error codes. Clients and tests match on these, never on messages.
const (
	CodeProviderUnavailable = "PRC_001"
	CodeProvidersExhausted  = "PRC_002"
	CodePriceUnavailable    = "PRC_003"

	CodeInvalidOrdering = "TAX_001"
	CodeInvalidRate     = "TAX_002"
	CodeInvalidProfit   = "TAX_003"

	CodeMissingField = "TX_001"
	CodeValidation   = "VAL_001"
	CodePayloadSize  = "VAL_002"

	CodeRateLimitExceeded = "RATE_001"

	CodeInternal   = "SYS_001"
	CodeStorage    = "SYS_002"
	CodeEncryption = "SYS_003"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code.
// It lets errors.Is match a freshly built constructor value against a wrapped chain.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Price resolution (PRC) ----

// ErrProviderUnavailable marks a single price source failure. The chain recovers from it.
func ErrProviderUnavailable(provider string, err error) *AppError {
	return Wrap(CodeProviderUnavailable, fmt.Sprintf("price provider %s unavailable", provider), http.StatusBadGateway, err)
}

// ErrProvidersExhausted carries the last underlying provider error.
func ErrProvidersExhausted(last error) *AppError {
	return Wrap(CodeProvidersExhausted, "all price providers exhausted", http.StatusServiceUnavailable, last)
}

func ErrPriceUnavailable(err error) *AppError {
	return Wrap(CodePriceUnavailable, "price unavailable", http.StatusServiceUnavailable, err)
}

// ---- Tax rules (TAX) ----

func ErrInvalidOrdering() *AppError {
	return New(CodeInvalidOrdering, "sell time precedes purchase time", http.StatusUnprocessableEntity)
}

func ErrInvalidRate(message string) *AppError {
	return New(CodeInvalidRate, message, http.StatusBadRequest)
}

func ErrInvalidProfit(err error) *AppError {
	return Wrap(CodeInvalidProfit, "profit is not a finite number", http.StatusBadRequest, err)
}

// ---- Transactions (TX) ----

func ErrMissingField(field string) *AppError {
	return New(CodeMissingField, fmt.Sprintf("missing required field %s", field), http.StatusUnprocessableEntity)
}

// Validation returns a VAL_001 request validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrPayloadTooLarge() *AppError {
	return New(CodePayloadSize, "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap(CodeStorage, "Report storage failure", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap(CodeEncryption, "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
