package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"
)

// writeDomainError maps a service error to the API envelope. Validation
// failures become 400, ownership failures 403, missing records 404, state
// conflicts 409, anything else 500 (logged).
func writeDomainError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var editErr *domain.EditNotAllowedError
	var fieldErr *domain.MissingFormFieldError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrPaymentReceiptRequired),
		errors.As(err, &fieldErr):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.As(err, &editErr),
		errors.Is(err, domain.ErrFormLocked),
		errors.Is(err, domain.ErrNotPublished),
		errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrPurchaseLimitExceeded),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrAlreadyAttended),
		errors.Is(err, domain.ErrEventStarted),
		errors.Is(err, domain.ErrHasRegistrations):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		// The detail is for the log only; clients get an opaque message.
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
	}
}
