package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"campusevents/internal/domain"
)

const eventColumns = `id, name, description, category, type, start_date, end_date,
		registration_deadline, registration_fee, registration_limit, is_published,
		current_registrations, organizer_id, form_fields, item_details,
		stock_quantity, purchase_limit, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	formFields, itemDetails, err := marshalEventJSON(e)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (name, description, category, type, start_date, end_date,
			registration_deadline, registration_fee, registration_limit, is_published,
			current_registrations, organizer_id, form_fields, item_details,
			stock_quantity, purchase_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.Category, e.Type, e.StartDate, e.EndDate,
		e.RegistrationDeadline, e.RegistrationFee, e.RegistrationLimit, e.IsPublished,
		e.CurrentRegistrations, e.OrganizerID, formFields, itemDetails,
		e.StockQuantity, e.PurchaseLimit, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, publishedOnly bool, params domain.PaginationParams) ([]*domain.Event, int, error) {
	filter := ``
	if publishedOnly {
		filter = ` WHERE is_published = TRUE`
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+filter).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + ` FROM events` + filter +
		` ORDER BY start_date ASC LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	formFields, itemDetails, err := marshalEventJSON(e)
	if err != nil {
		return err
	}
	query := `
		UPDATE events SET name = $1, description = $2, category = $3, type = $4,
			start_date = $5, end_date = $6, registration_deadline = $7,
			registration_fee = $8, registration_limit = $9, is_published = $10,
			organizer_id = $11, form_fields = $12, item_details = $13,
			stock_quantity = $14, purchase_limit = $15, updated_at = $16
		WHERE id = $17
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Name, e.Description, e.Category, e.Type,
		e.StartDate, e.EndDate, e.RegistrationDeadline,
		e.RegistrationFee, e.RegistrationLimit, e.IsPublished,
		e.OrganizerID, formFields, itemDetails,
		e.StockQuantity, e.PurchaseLimit, e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an event that has no non-cancelled registrations left.
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM events
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND status <> 'cancelled'
		  )
	`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrHasRegistrations
	}
	return domain.ErrNotFound
}

// DecrementStock takes qty units of stock with a guard condition so the
// counter can never go negative under concurrent purchases.
func (r *eventRepository) DecrementStock(ctx context.Context, eventID string, qty int) error {
	query := `
		UPDATE events
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, qty)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func marshalEventJSON(e *domain.Event) (formFields []byte, itemDetails []byte, err error) {
	if e.FormFields != nil {
		formFields, err = json.Marshal(e.FormFields)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal form fields: %w", err)
		}
	}
	if e.ItemDetails != nil {
		itemDetails, err = json.Marshal(e.ItemDetails)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal item details: %w", err)
		}
	}
	return formFields, itemDetails, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		regLimit    sql.NullInt64
		stockQty    sql.NullInt64
		purchaseLim sql.NullInt64
		formFields  []byte
		itemDetails []byte
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Category, &e.Type, &e.StartDate, &e.EndDate,
		&e.RegistrationDeadline, &e.RegistrationFee, &regLimit, &e.IsPublished,
		&e.CurrentRegistrations, &e.OrganizerID, &formFields, &itemDetails,
		&stockQty, &purchaseLim, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if regLimit.Valid {
		v := int(regLimit.Int64)
		e.RegistrationLimit = &v
	}
	if stockQty.Valid {
		v := int(stockQty.Int64)
		e.StockQuantity = &v
	}
	if purchaseLim.Valid {
		v := int(purchaseLim.Int64)
		e.PurchaseLimit = &v
	}
	if len(formFields) > 0 {
		if err := json.Unmarshal(formFields, &e.FormFields); err != nil {
			return nil, fmt.Errorf("unmarshal form fields: %w", err)
		}
	}
	if len(itemDetails) > 0 {
		e.ItemDetails = &domain.ItemDetails{}
		if err := json.Unmarshal(itemDetails, e.ItemDetails); err != nil {
			return nil, fmt.Errorf("unmarshal item details: %w", err)
		}
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
