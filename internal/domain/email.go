package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationResult records the outcome of a best-effort notification.
// Failures are logged and recorded, never escalated to the caller.
type NotificationResult struct {
	Sent bool
	Err  error
}

// TicketEmailData holds data for the ticket delivery email.
type TicketEmailData struct {
	Email           string
	ParticipantName string
	EventName       string
	TicketID        string
	QRCode          string
}

// PaymentApprovedEmailData holds data for the payment approval email.
type PaymentApprovedEmailData struct {
	Email           string
	ParticipantName string
	EventName       string
	TicketID        string
	Amount          float64
}

// EventPublishedEmailData holds data for the organizer publish alert.
type EventPublishedEmailData struct {
	Email     string
	EventName string
	EventID   string
}

// Notifier sends domain notifications. Every method is best-effort: the
// returned result says what happened, and no method returns an error that
// should fail the caller's workflow.
type Notifier interface {
	SendTicket(ctx context.Context, data *TicketEmailData) NotificationResult
	SendPaymentApproved(ctx context.Context, data *PaymentApprovedEmailData) NotificationResult
	SendEventPublished(ctx context.Context, data *EventPublishedEmailData) NotificationResult
}
