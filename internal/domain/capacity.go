package domain

import "time"

// CheckRegistrationOpen reports whether the event accepts new registrations
// at the given time. The capacity check here is advisory: the authoritative
// guard is the conditional reserve in the registration repository.
func CheckRegistrationOpen(e *Event, now time.Time) error {
	if !e.IsPublished {
		return ErrNotPublished
	}
	if now.After(e.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	if e.RegistrationLimit != nil && e.CurrentRegistrations >= *e.RegistrationLimit {
		return ErrCapacityExceeded
	}
	return nil
}

// CheckStock validates a merchandise purchase quantity against the purchase
// limit and the remaining stock.
func CheckStock(e *Event, qty int) error {
	if qty < 1 {
		return ErrInvalidInput
	}
	if e.PurchaseLimit != nil && qty > *e.PurchaseLimit {
		return ErrPurchaseLimitExceeded
	}
	if e.StockQuantity != nil {
		if *e.StockQuantity == 0 {
			return ErrOutOfStock
		}
		if qty > *e.StockQuantity {
			return ErrInsufficientStock
		}
	}
	return nil
}
