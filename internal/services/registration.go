package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"campusevents/internal/domain"
)

// ticketIDRetries bounds retries on the rare ticket_id unique collision.
const ticketIDRetries = 3

type registrationService struct {
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	ticketIDs      domain.TicketIDGenerator
	renderer       domain.TicketRenderer
	notifier       domain.Notifier
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewRegistrationService creates the registration workflow with the given
// repositories and collaborators.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	ticketIDs domain.TicketIDGenerator,
	renderer domain.TicketRenderer,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		ticketIDs:      ticketIDs,
		renderer:       renderer,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *registrationService) Register(ctx context.Context, eventID string, p domain.Principal, req *domain.RegisterRequest) (*domain.RegistrationOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if req == nil {
		return nil, domain.ErrInvalidInput
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := s.now()
	if err := domain.CheckRegistrationOpen(event, now); err != nil {
		return nil, err
	}

	// One active registration per (participant, event). The repository's
	// partial unique index is the authoritative guard; this check exists for
	// a friendly error before any counter is touched.
	if _, err := s.regRepo.GetActiveByEventAndParticipant(ctx, eventID, p.ID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get active registration: %w", err)
	}

	qty := 1
	switch event.Type {
	case domain.EventTypeNormal:
		if err := validateFormData(event.FormFields, req.FormData); err != nil {
			return nil, err
		}
	case domain.EventTypeMerchandise:
		qty = req.Quantity
		if err := domain.CheckStock(event, qty); err != nil {
			return nil, err
		}
		if err := validateItemSelection(event.ItemDetails, req.FormData); err != nil {
			return nil, err
		}
	}

	amount := event.RegistrationFee * float64(qty)
	if amount > 0 && (req.PaymentReceipt == nil || strings.TrimSpace(*req.PaymentReceipt) == "") {
		return nil, domain.ErrPaymentReceiptRequired
	}

	reg := &domain.Registration{
		EventID:          eventID,
		ParticipantID:    p.ID,
		ParticipantName:  p.Name,
		ParticipantEmail: p.Email,
		FormData:         req.FormData,
		Quantity:         qty,
		Status:           domain.RegistrationStatusRegistered,
		PaymentStatus:    domain.PaymentCompleted,
		PaymentAmount:    amount,
		PaymentReceipt:   req.PaymentReceipt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if amount > 0 {
		reg.PaymentStatus = domain.PaymentPending
	}

	if err := s.createWithFreshTicketID(ctx, reg); err != nil {
		return nil, err
	}

	// Free merchandise is confirmed immediately, so its stock is taken now.
	// Paid merchandise stock is taken at payment approval instead.
	if event.Type == domain.EventTypeMerchandise && reg.PaymentStatus == domain.PaymentCompleted {
		if err := s.eventRepo.DecrementStock(ctx, eventID, qty); err != nil {
			// Undo the slot and the row so the failed purchase leaves no trace.
			if delErr := s.regRepo.DeleteWithRelease(ctx, reg); delErr != nil {
				s.logger.ErrorContext(ctx, "undo registration after stock failure",
					"registration_id", reg.ID, "err", delErr)
			}
			if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrOutOfStock) {
				return nil, err
			}
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if reg.PaymentStatus == domain.PaymentPending {
		return &domain.RegistrationOutcome{
			Registration: reg,
			Message:      "registration received; your payment is under review",
		}, nil
	}

	s.issueTicket(ctx, event, reg)
	return &domain.RegistrationOutcome{
		Registration: reg,
		Message:      "registration confirmed",
	}, nil
}

// createWithFreshTicketID assigns a ticket ID and inserts the registration,
// retrying with a new ID when the ticket_id constraint trips.
func (s *registrationService) createWithFreshTicketID(ctx context.Context, reg *domain.Registration) error {
	for attempt := 0; attempt < ticketIDRetries; attempt++ {
		id, err := s.ticketIDs.Generate()
		if err != nil {
			return fmt.Errorf("generate ticket id: %w", err)
		}
		reg.TicketID = id
		err = s.regRepo.CreateWithReserve(ctx, reg)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrDuplicateTicketID) {
			continue
		}
		if errors.Is(err, domain.ErrCapacityExceeded) || errors.Is(err, domain.ErrAlreadyRegistered) {
			return err
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return fmt.Errorf("create registration: %w", domain.ErrDuplicateTicketID)
}

// issueTicket renders the QR payload and emails the ticket. Both are
// best-effort: failures are logged and recorded, never returned.
func (s *registrationService) issueTicket(ctx context.Context, event *domain.Event, reg *domain.Registration) {
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
		s.logger.ErrorContext(ctx, "render ticket", "registration_id", reg.ID, "err", err)
	} else {
		reg.QRCode = &qr
	}

	result := s.notifier.SendTicket(ctx, &domain.TicketEmailData{
		Email:           reg.ParticipantEmail,
		ParticipantName: reg.ParticipantName,
		EventName:       event.Name,
		TicketID:        reg.TicketID,
		QRCode:          valueOrEmpty(reg.QRCode),
	})
	if result.Sent {
		sentAt := s.now()
		reg.EmailSent = true
		reg.EmailSentAt = &sentAt
	}

	if err := s.regRepo.UpdateTicket(ctx, reg); err != nil {
		s.logger.ErrorContext(ctx, "persist ticket state", "registration_id", reg.ID, "err", err)
	}
}

func (s *registrationService) Cancel(ctx context.Context, registrationID string, p domain.Principal, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	if reg.ParticipantID != p.ID && p.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !s.now().Before(event.StartDate) {
		return domain.ErrEventStarted
	}

	// Cancellation is a hard delete: it frees the capacity slot and the
	// (participant, event) uniqueness slot so re-registering works.
	if err := s.regRepo.DeleteWithRelease(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete registration: %w", err)
	}
	s.logger.InfoContext(ctx, "registration cancelled",
		"registration_id", reg.ID, "event_id", reg.EventID, "reason", reason)
	return nil
}

func (s *registrationService) MarkAttended(ctx context.Context, registrationID string, p domain.Principal) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !p.CanManage(event.OrganizerID) {
		return nil, domain.ErrForbidden
	}

	if reg.Status == domain.RegistrationStatusAttended {
		return nil, domain.ErrAlreadyAttended
	}

	at := s.now()
	if err := s.regRepo.SetAttended(ctx, reg.ID, at); err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}
	reg.Status = domain.RegistrationStatusAttended
	reg.AttendanceDate = &at
	return reg, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, p domain.Principal) ([]*domain.RegistrationWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.regRepo.ListByParticipantID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.RegistrationWithEvent, 0, len(regs))
	for _, reg := range regs {
		ev, ok := eventsByID[reg.EventID]
		if !ok {
			ev, err = s.eventRepo.GetByID(ctx, reg.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Event deleted but registration remains; skip it.
					continue
				}
				return nil, fmt.Errorf("get event for registration: %w", err)
			}
			eventsByID[reg.EventID] = ev
		}
		result = append(result, &domain.RegistrationWithEvent{Registration: reg, Event: ev})
	}
	return result, nil
}

func (s *registrationService) ListEventRegistrations(ctx context.Context, eventID string, p domain.Principal) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !p.CanManage(event.OrganizerID) {
		return nil, domain.ErrForbidden
	}

	regs, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

// validateFormData checks required custom form answers, select options, and
// optional answer patterns.
func validateFormData(fields []domain.FormField, data map[string]string) error {
	for _, f := range fields {
		answer, ok := data[f.Label]
		answer = strings.TrimSpace(answer)
		if f.Required && (!ok || answer == "") {
			return &domain.MissingFormFieldError{Field: f.Label}
		}
		if answer == "" {
			continue
		}
		if len(f.Options) > 0 && !containsString(f.Options, answer) {
			return fmt.Errorf("%w: %q is not an option for field %q", domain.ErrInvalidInput, answer, f.Label)
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				// A broken pattern in the event definition must not block
				// registrations.
				continue
			}
			if !re.MatchString(answer) {
				return fmt.Errorf("%w: field %q does not match the expected format", domain.ErrInvalidInput, f.Label)
			}
		}
	}
	return nil
}

// validateItemSelection checks that a purchase selection names only known
// variant values.
func validateItemSelection(details *domain.ItemDetails, data map[string]string) error {
	if details == nil {
		return nil
	}
	checks := []struct {
		key     string
		allowed []string
	}{
		{"size", details.Sizes},
		{"color", details.Colors},
		{"variant", details.Variants},
	}
	for _, c := range checks {
		v, ok := data[c.key]
		if !ok || v == "" {
			continue
		}
		if len(c.allowed) == 0 || !containsString(c.allowed, v) {
			return fmt.Errorf("%w: %q is not an available %s", domain.ErrInvalidInput, v, c.key)
		}
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
