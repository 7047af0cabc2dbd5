package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusevents/internal/domain"
)

const (
	notifyAttempts = 3
	notifyBackoff  = 2 * time.Second
)

type notifier struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// NewNotifier returns a Notifier that renders templates and sends mail with
// up to three attempts and linear backoff (2s, 4s). Every send is
// best-effort: the result records the failure, the caller's workflow never
// fails because of it.
func NewNotifier(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.Notifier {
	return &notifier{
		mailer:   mailer,
		renderer: renderer,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

func (n *notifier) send(ctx context.Context, templateName, to string, data any) domain.NotificationResult {
	subject, htmlBody, textBody, err := n.renderer.Render(templateName, data)
	if err != nil {
		n.logger.ErrorContext(ctx, "render notification template", "template", templateName, "err", err)
		return domain.NotificationResult{Err: fmt.Errorf("render %s template: %w", templateName, err)}
	}

	var lastErr error
	for attempt := 1; attempt <= notifyAttempts; attempt++ {
		if err := n.mailer.Send(to, subject, htmlBody, textBody); err != nil {
			lastErr = err
			n.logger.WarnContext(ctx, "send notification failed",
				"template", templateName, "to", to, "attempt", attempt, "err", err)
			if attempt < notifyAttempts {
				n.sleep(time.Duration(attempt) * notifyBackoff)
			}
			continue
		}
		return domain.NotificationResult{Sent: true}
	}
	return domain.NotificationResult{Err: fmt.Errorf("send %s notification: %w", templateName, lastErr)}
}

func (n *notifier) SendTicket(ctx context.Context, data *domain.TicketEmailData) domain.NotificationResult {
	if data == nil {
		return domain.NotificationResult{Err: fmt.Errorf("ticket email data is nil")}
	}
	return n.send(ctx, "ticket", data.Email, data)
}

func (n *notifier) SendPaymentApproved(ctx context.Context, data *domain.PaymentApprovedEmailData) domain.NotificationResult {
	if data == nil {
		return domain.NotificationResult{Err: fmt.Errorf("payment approved email data is nil")}
	}
	return n.send(ctx, "payment_approved", data.Email, data)
}

func (n *notifier) SendEventPublished(ctx context.Context, data *domain.EventPublishedEmailData) domain.NotificationResult {
	if data == nil {
		return domain.NotificationResult{Err: fmt.Errorf("event published email data is nil")}
	}
	return n.send(ctx, "event_published", data.Email, data)
}
