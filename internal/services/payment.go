package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campusevents/internal/domain"
)

type paymentService struct {
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	renderer       domain.TicketRenderer
	notifier       domain.Notifier
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewPaymentService creates the organizer-side payment approval workflow.
func NewPaymentService(
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	renderer domain.TicketRenderer,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.PaymentService {
	return &paymentService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		renderer:       renderer,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

// load fetches the registration and its event and re-validates that the
// caller manages the event. Route middleware already gates the role; this
// check stands on its own in case the workflow is reached without it.
func (s *paymentService) load(ctx context.Context, registrationID string, p domain.Principal) (*domain.Registration, *domain.Event, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get registration: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	if !p.CanManage(event.OrganizerID) {
		return nil, nil, domain.ErrForbidden
	}
	return reg, event, nil
}

func (s *paymentService) Approve(ctx context.Context, registrationID string, p domain.Principal) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, event, err := s.load(ctx, registrationID, p)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus == domain.PaymentCompleted {
		return nil, domain.ErrAlreadyApproved
	}

	reg.PaymentStatus = domain.PaymentCompleted
	reg.UpdatedAt = s.now()

	if reg.QRCode == nil {
		payload := &domain.TicketPayload{
			TicketID:         reg.TicketID,
			EventID:          event.ID,
			EventName:        event.Name,
			ParticipantID:    reg.ParticipantID,
			ParticipantName:  reg.ParticipantName,
			ParticipantEmail: reg.ParticipantEmail,
			RegistrationDate: reg.CreatedAt,
			Status:           reg.Status,
		}
		qr, err := s.renderer.Render(ctx, payload)
		if err != nil {
			s.logger.ErrorContext(ctx, "render ticket on approval", "registration_id", reg.ID, "err", err)
		} else {
			reg.QRCode = &qr
		}
	}

	// Paid merchandise stock was never reserved at registration time, so two
	// pending purchases can both cover the last unit. The stock is taken in
	// the same transaction that completes the payment: the guarded decrement
	// decides which approval wins, the loser fails with a stock error, and a
	// failed write leaves neither the stock nor the status changed.
	if event.Type == domain.EventTypeMerchandise {
		if err := s.regRepo.UpdatePaymentTakingStock(ctx, reg, reg.Quantity); err != nil {
			reg.PaymentStatus = domain.PaymentPending
			if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrOutOfStock) {
				return nil, err
			}
			return nil, fmt.Errorf("complete payment: %w", err)
		}
	} else {
		if err := s.regRepo.UpdatePayment(ctx, reg); err != nil {
			reg.PaymentStatus = domain.PaymentPending
			return nil, fmt.Errorf("update payment: %w", err)
		}
	}

	result := s.notifier.SendPaymentApproved(ctx, &domain.PaymentApprovedEmailData{
		Email:           reg.ParticipantEmail,
		ParticipantName: reg.ParticipantName,
		EventName:       event.Name,
		TicketID:        reg.TicketID,
		Amount:          reg.PaymentAmount,
	})
	if result.Sent {
		sentAt := s.now()
		reg.EmailSent = true
		reg.EmailSentAt = &sentAt
		if err := s.regRepo.UpdateTicket(ctx, reg); err != nil {
			s.logger.ErrorContext(ctx, "persist email state", "registration_id", reg.ID, "err", err)
		}
	}
	return reg, nil
}

func (s *paymentService) Reject(ctx context.Context, registrationID string, p domain.Principal, comment string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return fmt.Errorf("%w: rejection comment is required", domain.ErrInvalidInput)
	}

	reg, _, err := s.load(ctx, registrationID, p)
	if err != nil {
		return err
	}
	if reg.PaymentStatus == domain.PaymentCompleted {
		return domain.ErrAlreadyApproved
	}

	// No counter reversal: pending purchases never took stock, and the
	// participant keeps the registration record with the reviewer's comment.
	reg.PaymentStatus = domain.PaymentFailed
	reg.ReviewComment = &comment
	reg.UpdatedAt = s.now()
	if err := s.regRepo.UpdatePayment(ctx, reg); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}
