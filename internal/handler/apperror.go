package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive with at most two decimal places"}
	ErrInvalidKind        = &AppError{http.StatusBadRequest, "INVALID_TRANSACTION_KIND", "Transaction kind must be deposit, withdrawal, or transfer"}
	ErrInvalidChannel     = &AppError{http.StatusBadRequest, "INVALID_CHANNEL", "Unsupported transaction channel"}
	ErrAccountNotFound    = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrSameAccount        = &AppError{http.StatusUnprocessableEntity, "SAME_ACCOUNT", "Source and destination must differ"}
	ErrCurrencyMismatch   = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}
	ErrUnauthorizedPIN    = &AppError{http.StatusUnauthorized, "UNAUTHORIZED", "Authorization failed"}
	ErrInsufficientFunds  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrTransactionFailed  = &AppError{http.StatusConflict, "TRANSACTION_FAILED", "Transaction could not be completed, please retry"}
)
