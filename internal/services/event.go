package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	regRepo        domain.RegistrationRepository
	notifier       domain.Notifier
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewEventService creates the organizer-facing event management service.
func NewEventService(
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		regRepo:        regRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, p domain.Principal, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if p.Role == domain.RoleParticipant {
		return domain.ErrForbidden
	}

	// Events are always born as drafts owned by the caller.
	event.OrganizerID = p.ID
	event.IsPublished = false
	event.CurrentRegistrations = 0
	event.CreatedAt = s.now()
	event.UpdatedAt = event.CreatedAt

	if err := event.Validate(); err != nil {
		return err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, publishedOnly bool, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, publishedOnly, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) ListEventsByOrganizer(ctx context.Context, p domain.Principal) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizerID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list events by organizer: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID string, p domain.Principal, patch *domain.EventPatch) (*domain.Event, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if patch == nil {
		return nil, false, domain.ErrInvalidInput
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get event: %w", err)
	}
	if !p.CanManage(event.OrganizerID) {
		return nil, false, domain.ErrForbidden
	}

	fields := patch.FieldNames()
	if len(fields) == 0 {
		return event, false, nil
	}

	now := s.now()
	if err := domain.AuthorizeEdit(event, now, fields); err != nil {
		return nil, false, err
	}

	wasPublished := event.IsPublished
	patch.Apply(event)
	if err := event.Validate(); err != nil {
		return nil, false, err
	}
	event.UpdatedAt = now

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("update event: %w", err)
	}

	justPublished := !wasPublished && event.IsPublished
	if justPublished {
		// Organizer alert is best-effort: a failed notification never fails
		// the edit.
		result := s.notifier.SendEventPublished(ctx, &domain.EventPublishedEmailData{
			Email:     p.Email,
			EventName: event.Name,
			EventID:   event.ID,
		})
		if result.Err != nil {
			s.logger.WarnContext(ctx, "event published notification failed",
				"event_id", event.ID, "err", result.Err)
		}
	}
	return event, justPublished, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID string, p domain.Principal) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !p.CanManage(event.OrganizerID) {
		return domain.ErrForbidden
	}

	// The delete statement's registration guard is authoritative; this check
	// exists for a friendly error without racing the delete.
	count, err := s.regRepo.CountActiveByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if count > 0 {
		return domain.ErrHasRegistrations
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrHasRegistrations) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
