package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Registration precondition errors.
var (
	ErrNotPublished           = errors.New("event is not published")
	ErrDeadlinePassed         = errors.New("registration deadline has passed")
	ErrCapacityExceeded       = errors.New("event has reached its registration limit")
	ErrAlreadyRegistered      = errors.New("already registered for this event")
	ErrPaymentReceiptRequired = errors.New("payment receipt is required for paid events")
)

// Merchandise stock errors.
var (
	ErrOutOfStock            = errors.New("item is out of stock")
	ErrPurchaseLimitExceeded = errors.New("requested quantity exceeds the purchase limit")
	ErrInsufficientStock     = errors.New("requested quantity exceeds remaining stock")
)

// Lifecycle and transition errors.
var (
	ErrFormLocked       = errors.New("custom form cannot be changed once registrations exist")
	ErrAlreadyApproved  = errors.New("payment is already approved")
	ErrAlreadyAttended  = errors.New("attendance is already marked")
	ErrEventStarted     = errors.New("event has already started")
	ErrHasRegistrations = errors.New("event has active registrations")
)

// ErrDuplicateTicketID signals a collision on the global ticket_id
// constraint; the workflow retries with a fresh ID.
var ErrDuplicateTicketID = errors.New("ticket id already in use")

// EditNotAllowedError is returned when an event edit includes fields that are
// not editable in the event's current lifecycle status. The edit is rejected
// as a whole; no allowed subset is applied.
type EditNotAllowedError struct {
	Status EventStatus
	Fields []string
}

func (e *EditNotAllowedError) Error() string {
	return fmt.Sprintf("fields not editable while event is %s: %s", e.Status, strings.Join(e.Fields, ", "))
}

// MissingFormFieldError is returned when a required custom form field has no
// answer in the registration form data.
type MissingFormFieldError struct {
	Field string
}

func (e *MissingFormFieldError) Error() string {
	return fmt.Sprintf("required form field %q is missing", e.Field)
}
