package domain

import "time"

// EventStatus is the lifecycle bucket of an event, derived from its publish
// flag and dates. It governs which fields an edit may touch.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
)

// Wire names of the client-editable event fields.
const (
	FieldName                 = "name"
	FieldDescription          = "description"
	FieldCategory             = "category"
	FieldStartDate            = "start_date"
	FieldEndDate              = "end_date"
	FieldRegistrationDeadline = "registration_deadline"
	FieldRegistrationFee      = "registration_fee"
	FieldRegistrationLimit    = "registration_limit"
	FieldIsPublished          = "is_published"
	FieldFormFields           = "form_fields"
	FieldItemDetails          = "item_details"
	FieldStockQuantity        = "stock_quantity"
	FieldPurchaseLimit        = "purchase_limit"
)

// Fields that are never client-editable, whatever the lifecycle bucket.
var immutableFields = map[string]struct{}{
	"organizer_id":          {},
	"current_registrations": {},
	"id":                    {},
}

// Editable field sets per lifecycle bucket. Draft allows everything (form
// locking is handled separately); ongoing and completed allow only the
// publish toggle, alone.
var publishedEditable = map[string]struct{}{
	FieldDescription:          {},
	FieldRegistrationDeadline: {},
	FieldRegistrationLimit:    {},
	FieldIsPublished:          {},
}

// ClassifyEvent returns the lifecycle bucket of the event at the given time.
func ClassifyEvent(e *Event, now time.Time) EventStatus {
	if !e.IsPublished {
		return StatusDraft
	}
	if now.Before(e.StartDate) {
		return StatusPublished
	}
	if !now.After(e.EndDate) {
		return StatusOngoing
	}
	return StatusCompleted
}

// AuthorizeEdit decides whether an edit touching the named fields is allowed
// in the event's current lifecycle bucket. Enforcement is all-or-nothing: a
// single disallowed field rejects the whole edit.
//
// Draft events are fully editable except that the custom form definition
// locks once the first registration exists. Published events allow only
// description, registration deadline, registration limit, and the publish
// flag. Ongoing and completed events allow the publish flag alone.
func AuthorizeEdit(e *Event, now time.Time, fields []string) error {
	for _, f := range fields {
		if _, ok := immutableFields[f]; ok {
			return &EditNotAllowedError{Status: ClassifyEvent(e, now), Fields: []string{f}}
		}
	}

	status := ClassifyEvent(e, now)
	switch status {
	case StatusDraft:
		if e.CurrentRegistrations > 0 {
			for _, f := range fields {
				if f == FieldFormFields {
					return ErrFormLocked
				}
			}
		}
		return nil
	case StatusPublished:
		var rejected []string
		for _, f := range fields {
			if _, ok := publishedEditable[f]; !ok {
				rejected = append(rejected, f)
			}
		}
		if len(rejected) > 0 {
			return &EditNotAllowedError{Status: status, Fields: rejected}
		}
		return nil
	default: // ongoing, completed
		var rejected []string
		for _, f := range fields {
			if f != FieldIsPublished {
				rejected = append(rejected, f)
			}
		}
		if len(rejected) > 0 {
			return &EditNotAllowedError{Status: status, Fields: rejected}
		}
		return nil
	}
}
