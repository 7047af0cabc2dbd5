package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campusevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			event: &domain.Event{
				Name:                 "Spring Hackathon",
				Category:             domain.CategoryTechnical,
				Type:                 domain.EventTypeNormal,
				StartDate:            start,
				EndDate:              start.Add(6 * time.Hour),
				RegistrationDeadline: start.Add(-24 * time.Hour),
				OrganizerID:          "org-uuid-1",
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-uuid-1"))
			},
			wantID:  "ev-uuid-1",
			wantErr: false,
		},
		{
			name: "db error",
			event: &domain.Event{
				Name:        "Spring Hackathon",
				Category:    domain.CategoryTechnical,
				Type:        domain.EventTypeNormal,
				OrganizerID: "org-uuid-1",
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantID:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func eventRows(t *testing.T, id string) *sqlmock.Rows {
	t.Helper()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "description", "category", "type", "start_date", "end_date",
		"registration_deadline", "registration_fee", "registration_limit", "is_published",
		"current_registrations", "organizer_id", "form_fields", "item_details",
		"stock_quantity", "purchase_limit", "created_at", "updated_at",
	}).AddRow(
		id, "Spring Hackathon", "annual hackathon", "technical", "normal", start, start.Add(6*time.Hour),
		start.Add(-24*time.Hour), 0.0, 100, true,
		12, "org-uuid-1", []byte(`[{"label":"Team name","type":"text","required":true}]`), nil,
		nil, nil, start.Add(-30*24*time.Hour), start.Add(-30*24*time.Hour),
	)
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
			WithArgs("ev-uuid-1").
			WillReturnRows(eventRows(t, "ev-uuid-1"))

		repo := NewEventRepository(db)
		e, err := repo.GetByID(ctx, "ev-uuid-1")
		require.NoError(t, err)
		require.Equal(t, "ev-uuid-1", e.ID)
		require.Equal(t, domain.EventTypeNormal, e.Type)
		require.NotNil(t, e.RegistrationLimit)
		require.Equal(t, 100, *e.RegistrationLimit)
		require.Len(t, e.FormFields, 1)
		require.Equal(t, "Team name", e.FormFields[0].Label)
		require.Nil(t, e.StockQuantity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("published page", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events WHERE is_published = TRUE`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE is_published = TRUE ORDER BY start_date ASC LIMIT \$1 OFFSET \$2`).
			WithArgs(20, 20).
			WillReturnRows(eventRows(t, "ev-uuid-1"))

		repo := NewEventRepository(db)
		events, total, err := repo.List(ctx, true, domain.PaginationParams{Page: 2, PageSize: 20})
		require.NoError(t, err)
		require.Equal(t, 42, total)
		require.Len(t, events, 1)
		require.Equal(t, "ev-uuid-1", events[0].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
			WillReturnError(sql.ErrConnDone)

		repo := NewEventRepository(db)
		_, _, err = repo.List(ctx, false, domain.PaginationParams{Page: 1, PageSize: 20})
		require.Error(t, err)
	})
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM events`).
			WithArgs("ev-uuid-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewEventRepository(db)
		require.NoError(t, repo.Delete(ctx, "ev-uuid-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked by active registrations", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM events`).
			WithArgs("ev-uuid-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("ev-uuid-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		repo := NewEventRepository(db)
		err = repo.Delete(ctx, "ev-uuid-1")
		require.ErrorIs(t, err, domain.ErrHasRegistrations)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM events`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		repo := NewEventRepository(db)
		err = repo.Delete(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events`).
			WithArgs("ev-uuid-1", 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewEventRepository(db)
		require.NoError(t, repo.DecrementStock(ctx, "ev-uuid-1", 2))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejects when stock too low", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events`).
			WithArgs("ev-uuid-1", 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewEventRepository(db)
		err = repo.DecrementStock(ctx, "ev-uuid-1", 5)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
	})
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	event := &domain.Event{
		ID:                   "ev-uuid-1",
		Name:                 "Spring Hackathon",
		Description:          "updated",
		Category:             domain.CategoryTechnical,
		Type:                 domain.EventTypeNormal,
		StartDate:            start,
		EndDate:              start.Add(6 * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		RegistrationLimit:    intPtr(100),
		IsPublished:          true,
		OrganizerID:          "org-uuid-1",
		UpdatedAt:            start,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewEventRepository(db)
		require.NoError(t, repo.Update(ctx, event))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE events SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewEventRepository(db)
		err = repo.Update(ctx, event)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
