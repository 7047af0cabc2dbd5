package domain

import (
	"context"
	"fmt"
	"time"
)

// EventType distinguishes attendance events from merchandise sales.
type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeMerchandise EventType = "merchandise"
)

// EventCategory classifies an event for listing and discovery.
type EventCategory string

const (
	CategoryAcademic  EventCategory = "academic"
	CategoryCultural  EventCategory = "cultural"
	CategorySports    EventCategory = "sports"
	CategoryTechnical EventCategory = "technical"
	CategoryWorkshop  EventCategory = "workshop"
	CategorySeminar   EventCategory = "seminar"
	CategorySocial    EventCategory = "social"
	CategoryCareer    EventCategory = "career"
	CategoryWellness  EventCategory = "wellness"
	CategoryMerchDrop EventCategory = "merch_drop"
)

var validCategories = map[EventCategory]struct{}{
	CategoryAcademic:  {},
	CategoryCultural:  {},
	CategorySports:    {},
	CategoryTechnical: {},
	CategoryWorkshop:  {},
	CategorySeminar:   {},
	CategorySocial:    {},
	CategoryCareer:    {},
	CategoryWellness:  {},
	CategoryMerchDrop: {},
}

// FormField is one entry of the ordered custom form definition on a normal
// event. Options apply to select fields; Pattern is an optional regular
// expression answers must match.
type FormField struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

// ItemDetails describes the purchasable variants of a merchandise event.
// At least one of the three lists must be non-empty.
type ItemDetails struct {
	Sizes    []string `json:"sizes,omitempty"`
	Colors   []string `json:"colors,omitempty"`
	Variants []string `json:"variants,omitempty"`
}

// Empty reports whether no variant dimension is defined.
func (d ItemDetails) Empty() bool {
	return len(d.Sizes) == 0 && len(d.Colors) == 0 && len(d.Variants) == 0
}

// Event is a campus event or merchandise drop.
// swagger:model Event
type Event struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Category             EventCategory `json:"category"`
	Type                 EventType     `json:"type"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              time.Time     `json:"end_date"`
	RegistrationDeadline time.Time     `json:"registration_deadline"`
	RegistrationFee      float64       `json:"registration_fee"`
	RegistrationLimit    *int          `json:"registration_limit"`
	IsPublished          bool          `json:"is_published"`
	CurrentRegistrations int           `json:"current_registrations"`
	OrganizerID          string        `json:"organizer_id"`

	// Normal events only.
	FormFields []FormField `json:"form_fields,omitempty"`

	// Merchandise events only.
	ItemDetails   *ItemDetails `json:"item_details,omitempty"`
	StockQuantity *int         `json:"stock_quantity,omitempty"`
	PurchaseLimit *int         `json:"purchase_limit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants of the event definition: date ordering,
// non-negative fee and counters, and the type-specific required fields.
func (e *Event) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if _, ok := validCategories[e.Category]; !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, e.Category)
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: end date must not be before start date", ErrInvalidInput)
	}
	if e.RegistrationDeadline.After(e.StartDate) {
		return fmt.Errorf("%w: registration deadline must not be after start date", ErrInvalidInput)
	}
	if e.RegistrationFee < 0 {
		return fmt.Errorf("%w: registration fee must not be negative", ErrInvalidInput)
	}
	if e.RegistrationLimit != nil && *e.RegistrationLimit <= 0 {
		return fmt.Errorf("%w: registration limit must be positive", ErrInvalidInput)
	}
	if e.CurrentRegistrations < 0 {
		return fmt.Errorf("%w: current registrations must not be negative", ErrInvalidInput)
	}

	switch e.Type {
	case EventTypeNormal:
		for _, f := range e.FormFields {
			if f.Label == "" {
				return fmt.Errorf("%w: form field label is required", ErrInvalidInput)
			}
		}
	case EventTypeMerchandise:
		if e.ItemDetails == nil || e.ItemDetails.Empty() {
			return fmt.Errorf("%w: merchandise events need item details", ErrInvalidInput)
		}
		if e.StockQuantity == nil || *e.StockQuantity < 0 {
			return fmt.Errorf("%w: merchandise events need a non-negative stock quantity", ErrInvalidInput)
		}
		if e.PurchaseLimit == nil || *e.PurchaseLimit < 1 {
			return fmt.Errorf("%w: merchandise events need a purchase limit of at least 1", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, e.Type)
	}
	return nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns one page of events plus the total count for the filter.
	List(ctx context.Context, publishedOnly bool, params PaginationParams) ([]*Event, int, error)
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	// Delete removes the event. It returns ErrHasRegistrations when any
	// non-cancelled registration still references the event.
	Delete(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty from the event's stock with a
	// guard condition; it returns ErrInsufficientStock when fewer than qty
	// units remain.
	DecrementStock(ctx context.Context, eventID string, qty int) error
}

// EventPatch carries the fields of an event edit request. Nil pointers mean
// "not submitted"; FieldNames reports the submitted set for lifecycle
// authorization.
type EventPatch struct {
	Name                 *string        `json:"name"`
	Description          *string        `json:"description"`
	Category             *EventCategory `json:"category"`
	StartDate            *time.Time     `json:"start_date"`
	EndDate              *time.Time     `json:"end_date"`
	RegistrationDeadline *time.Time     `json:"registration_deadline"`
	RegistrationFee      *float64       `json:"registration_fee"`
	RegistrationLimit    *int           `json:"registration_limit"`
	IsPublished          *bool          `json:"is_published"`
	FormFields           *[]FormField   `json:"form_fields"`
	ItemDetails          *ItemDetails   `json:"item_details"`
	StockQuantity        *int           `json:"stock_quantity"`
	PurchaseLimit        *int           `json:"purchase_limit"`
}

// FieldNames returns the wire names of the submitted fields.
func (p *EventPatch) FieldNames() []string {
	var names []string
	if p.Name != nil {
		names = append(names, FieldName)
	}
	if p.Description != nil {
		names = append(names, FieldDescription)
	}
	if p.Category != nil {
		names = append(names, FieldCategory)
	}
	if p.StartDate != nil {
		names = append(names, FieldStartDate)
	}
	if p.EndDate != nil {
		names = append(names, FieldEndDate)
	}
	if p.RegistrationDeadline != nil {
		names = append(names, FieldRegistrationDeadline)
	}
	if p.RegistrationFee != nil {
		names = append(names, FieldRegistrationFee)
	}
	if p.RegistrationLimit != nil {
		names = append(names, FieldRegistrationLimit)
	}
	if p.IsPublished != nil {
		names = append(names, FieldIsPublished)
	}
	if p.FormFields != nil {
		names = append(names, FieldFormFields)
	}
	if p.ItemDetails != nil {
		names = append(names, FieldItemDetails)
	}
	if p.StockQuantity != nil {
		names = append(names, FieldStockQuantity)
	}
	if p.PurchaseLimit != nil {
		names = append(names, FieldPurchaseLimit)
	}
	return names
}

// Apply merges the submitted fields into the event.
func (p *EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.RegistrationDeadline != nil {
		e.RegistrationDeadline = *p.RegistrationDeadline
	}
	if p.RegistrationFee != nil {
		e.RegistrationFee = *p.RegistrationFee
	}
	if p.RegistrationLimit != nil {
		e.RegistrationLimit = p.RegistrationLimit
	}
	if p.IsPublished != nil {
		e.IsPublished = *p.IsPublished
	}
	if p.FormFields != nil {
		e.FormFields = *p.FormFields
	}
	if p.ItemDetails != nil {
		e.ItemDetails = p.ItemDetails
	}
	if p.StockQuantity != nil {
		e.StockQuantity = p.StockQuantity
	}
	if p.PurchaseLimit != nil {
		e.PurchaseLimit = p.PurchaseLimit
	}
}

// EventService defines organizer-facing event management.
type EventService interface {
	CreateEvent(ctx context.Context, p Principal, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, publishedOnly bool, params PaginationParams) ([]*Event, int, error)
	ListEventsByOrganizer(ctx context.Context, p Principal) ([]*Event, error)
	// UpdateEvent applies a lifecycle-authorized edit. justPublished is true
	// when this edit flipped the event from unpublished to published.
	UpdateEvent(ctx context.Context, eventID string, p Principal, patch *EventPatch) (event *Event, justPublished bool, err error)
	DeleteEvent(ctx context.Context, eventID string, p Principal) error
}
