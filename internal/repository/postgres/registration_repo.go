package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"campusevents/internal/domain"
)

// Constraint names referenced when mapping unique violations.
const (
	constraintActivePair = "registrations_active_pair_idx"
	constraintTicketID   = "registrations_ticket_id_key"
)

const registrationColumns = `id, ticket_id, event_id, participant_id, participant_name,
		participant_email, form_data, quantity, status, payment_status, payment_amount,
		payment_receipt, review_comment, qr_code, email_sent, email_sent_at,
		attendance_date, created_at, updated_at`

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

// CreateWithReserve reserves a capacity slot and inserts the registration in
// one transaction. The conditional counter update is the authoritative
// capacity guard: when no slot remains it touches zero rows and the whole
// attempt rolls back.
func (r *registrationRepository) CreateWithReserve(ctx context.Context, reg *domain.Registration) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	reserve := `
		UPDATE events
		SET current_registrations = current_registrations + 1, updated_at = NOW()
		WHERE id = $1
		  AND (registration_limit IS NULL OR current_registrations < registration_limit)
	`
	result, err := tx.ExecContext(ctx, reserve, reg.EventID)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCapacityExceeded
	}

	formData, err := json.Marshal(reg.FormData)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}
	insert := `
		INSERT INTO registrations (ticket_id, event_id, participant_id, participant_name,
			participant_email, form_data, quantity, status, payment_status, payment_amount,
			payment_receipt, email_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, insert,
		reg.TicketID, reg.EventID, reg.ParticipantID, reg.ParticipantName,
		reg.ParticipantEmail, formData, reg.Quantity, reg.Status, reg.PaymentStatus,
		reg.PaymentAmount, reg.PaymentReceipt, reg.EmailSent, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DeleteWithRelease removes the registration and frees its capacity slot in
// one transaction. The decrement is floored at zero.
func (r *registrationRepository) DeleteWithRelease(ctx context.Context, reg *domain.Registration) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, reg.ID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	release := `
		UPDATE events
		SET current_registrations = GREATEST(current_registrations - 1, 0), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, release, reg.EventID); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetActiveByEventAndParticipant(ctx context.Context, eventID, participantID string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND participant_id = $2 AND status <> 'cancelled'
	`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, participantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByParticipantID(ctx context.Context, participantID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE participant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

func (r *registrationRepository) UpdatePayment(ctx context.Context, reg *domain.Registration) error {
	query := `
		UPDATE registrations
		SET payment_status = $1, review_comment = $2, qr_code = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.DB.ExecContext(ctx, query,
		reg.PaymentStatus, reg.ReviewComment, reg.QRCode, reg.UpdatedAt, reg.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePaymentTakingStock takes stock and persists the payment columns in
// one transaction, so a failed write can never leave stock consumed by a
// payment that is still pending.
func (r *registrationRepository) UpdatePaymentTakingStock(ctx context.Context, reg *domain.Registration, qty int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	take := `
		UPDATE events
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`
	result, err := tx.ExecContext(ctx, take, reg.EventID, qty)
	if err != nil {
		return fmt.Errorf("take stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInsufficientStock
	}

	update := `
		UPDATE registrations
		SET payment_status = $1, review_comment = $2, qr_code = $3, updated_at = $4
		WHERE id = $5
	`
	result, err = tx.ExecContext(ctx, update,
		reg.PaymentStatus, reg.ReviewComment, reg.QRCode, reg.UpdatedAt, reg.ID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	rows, _ = result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *registrationRepository) UpdateTicket(ctx context.Context, reg *domain.Registration) error {
	query := `
		UPDATE registrations
		SET qr_code = $1, email_sent = $2, email_sent_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.DB.ExecContext(ctx, query,
		reg.QRCode, reg.EmailSent, reg.EmailSentAt, reg.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationRepository) SetAttended(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE registrations
		SET status = 'attended', attendance_date = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'registered'
	`
	result, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationRepository) CountActiveByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> 'cancelled'`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// mapUniqueViolation turns Postgres unique violations into domain errors the
// workflow can branch on.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case constraintActivePair:
			return domain.ErrAlreadyRegistered
		case constraintTicketID:
			return domain.ErrDuplicateTicketID
		}
	}
	return fmt.Errorf("insert registration: %w", err)
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var (
		formData    []byte
		receipt     sql.NullString
		comment     sql.NullString
		qrCode      sql.NullString
		emailSentAt sql.NullTime
		attendance  sql.NullTime
	)
	err := row.Scan(
		&reg.ID, &reg.TicketID, &reg.EventID, &reg.ParticipantID, &reg.ParticipantName,
		&reg.ParticipantEmail, &formData, &reg.Quantity, &reg.Status, &reg.PaymentStatus,
		&reg.PaymentAmount, &receipt, &comment, &qrCode, &reg.EmailSent, &emailSentAt,
		&attendance, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if receipt.Valid {
		reg.PaymentReceipt = &receipt.String
	}
	if comment.Valid {
		reg.ReviewComment = &comment.String
	}
	if qrCode.Valid {
		reg.QRCode = &qrCode.String
	}
	if emailSentAt.Valid {
		reg.EmailSentAt = &emailSentAt.Time
	}
	if attendance.Valid {
		reg.AttendanceDate = &attendance.Time
	}
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &reg.FormData); err != nil {
			return nil, fmt.Errorf("unmarshal form data: %w", err)
		}
	}
	return reg, nil
}

func collectRegistrations(rows *sql.Rows) ([]*domain.Registration, error) {
	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
