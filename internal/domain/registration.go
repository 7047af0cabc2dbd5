package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the lifecycle state of a registration. Transitions
// are one-way: registered -> attended, or registered -> cancelled (which
// removes the record entirely).
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusAttended   RegistrationStatus = "attended"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// PaymentStatus tracks payment progress. pending -> completed via approval;
// pending -> failed via rejection.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Registration is a participant's claim on an event: an attendance spot for
// normal events, a purchase for merchandise events.
// swagger:model Registration
type Registration struct {
	ID            string `json:"id"`
	TicketID      string `json:"ticket_id"`
	EventID       string `json:"event_id"`
	ParticipantID string `json:"participant_id"`

	// Captured from the authenticated principal at registration time so
	// tickets and notifications do not depend on the identity collaborator.
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`

	FormData map[string]string `json:"form_data,omitempty"`
	Quantity int               `json:"quantity"`

	Status         RegistrationStatus `json:"status"`
	PaymentStatus  PaymentStatus      `json:"payment_status"`
	PaymentAmount  float64            `json:"payment_amount"`
	PaymentReceipt *string            `json:"payment_receipt,omitempty"`
	ReviewComment  *string            `json:"review_comment,omitempty"`

	QRCode      *string    `json:"qr_code,omitempty"`
	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`

	AttendanceDate *time.Time `json:"attendance_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationWithEvent bundles a registration with its event for listings.
type RegistrationWithEvent struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// RegistrationRepository defines storage for registrations. The reserve and
// release operations are transactional with the event's registration counter.
type RegistrationRepository interface {
	// CreateWithReserve inserts the registration and increments the event's
	// current_registrations in one transaction. The increment is conditional
	// on the registration limit; when no slot remains it returns
	// ErrCapacityExceeded and nothing is written. A violated active-pair
	// uniqueness constraint yields ErrAlreadyRegistered.
	CreateWithReserve(ctx context.Context, reg *Registration) error
	// DeleteWithRelease removes the registration and decrements the event's
	// current_registrations (floored at zero) in one transaction.
	DeleteWithRelease(ctx context.Context, reg *Registration) error
	GetByID(ctx context.Context, id string) (*Registration, error)
	// GetActiveByEventAndParticipant returns the non-cancelled registration
	// of the participant for the event, or ErrNotFound.
	GetActiveByEventAndParticipant(ctx context.Context, eventID, participantID string) (*Registration, error)
	ListByParticipantID(ctx context.Context, participantID string) ([]*Registration, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
	// UpdatePayment persists payment status, review comment, and QR code.
	UpdatePayment(ctx context.Context, reg *Registration) error
	// UpdatePaymentTakingStock persists the payment columns and takes qty
	// units of the event's stock in one transaction. The guarded decrement
	// decides which of two racing approvals wins; when fewer than qty units
	// remain it returns ErrInsufficientStock and nothing is written.
	UpdatePaymentTakingStock(ctx context.Context, reg *Registration, qty int) error
	// UpdateTicket persists QR code and email delivery state after the
	// best-effort issuance step.
	UpdateTicket(ctx context.Context, reg *Registration) error
	// SetAttended transitions the registration to attended at the given time.
	SetAttended(ctx context.Context, id string, at time.Time) error
	// CountActiveByEventID counts non-cancelled registrations for the event.
	CountActiveByEventID(ctx context.Context, eventID string) (int, error)
}

// RegisterRequest is the participant's input to a registration or purchase.
type RegisterRequest struct {
	FormData       map[string]string `json:"form_data"`
	Quantity       int               `json:"quantity"`
	PaymentReceipt *string           `json:"payment_receipt"`
}

// RegistrationOutcome is the result of a registration attempt. Message is a
// human-facing note, e.g. that a paid registration awaits payment review.
type RegistrationOutcome struct {
	Registration *Registration `json:"registration"`
	Message      string        `json:"message"`
}

// RegistrationService is the registration/purchase workflow plus the
// participant-side and organizer-side registration transitions.
type RegistrationService interface {
	Register(ctx context.Context, eventID string, p Principal, req *RegisterRequest) (*RegistrationOutcome, error)
	Cancel(ctx context.Context, registrationID string, p Principal, reason string) error
	MarkAttended(ctx context.Context, registrationID string, p Principal) (*Registration, error)
	ListMyRegistrations(ctx context.Context, p Principal) ([]*RegistrationWithEvent, error)
	ListEventRegistrations(ctx context.Context, eventID string, p Principal) ([]*Registration, error)
}

// PaymentService finalizes pending paid registrations.
type PaymentService interface {
	Approve(ctx context.Context, registrationID string, p Principal) (*Registration, error)
	Reject(ctx context.Context, registrationID string, p Principal, comment string) error
}
