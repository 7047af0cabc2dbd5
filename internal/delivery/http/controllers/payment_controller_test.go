package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusevents/internal/domain"
)

type mockPaymentService struct {
	registration *domain.Registration
	err          error
	rejectedID   string
	comment      string
}

func (m *mockPaymentService) Approve(ctx context.Context, registrationID string, p domain.Principal) (*domain.Registration, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.registration, nil
}

func (m *mockPaymentService) Reject(ctx context.Context, registrationID string, p domain.Principal, comment string) error {
	if m.err != nil {
		return m.err
	}
	m.rejectedID = registrationID
	m.comment = comment
	return nil
}

func TestPaymentController_Approve_Success(t *testing.T) {
	svc := &mockPaymentService{registration: &domain.Registration{
		ID:            "r1",
		PaymentStatus: domain.PaymentCompleted,
	}}
	ctrl := NewPaymentController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/registrations/r1/approve", nil)
	req.SetPathValue("registrationID", "r1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.Approve(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestPaymentController_Approve_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"already approved", domain.ErrAlreadyApproved},
		{"stock ran out", domain.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewPaymentController(testLogger(), &mockPaymentService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/registrations/r1/approve", nil)
			req.SetPathValue("registrationID", "r1")
			req = organizerContext(req)
			w := httptest.NewRecorder()

			ctrl.Approve(w, req)

			if w.Code != http.StatusConflict {
				t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
			}
		})
	}
}

func TestPaymentController_Reject_Success(t *testing.T) {
	svc := &mockPaymentService{}
	ctrl := NewPaymentController(testLogger(), svc)

	b, _ := json.Marshal(map[string]string{"comment": "receipt unreadable"})
	req := httptest.NewRequest(http.MethodPost, "/registrations/r1/reject", bytes.NewReader(b))
	req.SetPathValue("registrationID", "r1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.Reject(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if svc.rejectedID != "r1" || svc.comment != "receipt unreadable" {
		t.Fatalf("reject not forwarded: id=%q comment=%q", svc.rejectedID, svc.comment)
	}
}

func TestPaymentController_Reject_MissingComment(t *testing.T) {
	ctrl := NewPaymentController(testLogger(), &mockPaymentService{})

	b, _ := json.Marshal(map[string]string{"comment": ""})
	req := httptest.NewRequest(http.MethodPost, "/registrations/r1/reject", bytes.NewReader(b))
	req.SetPathValue("registrationID", "r1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.Reject(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
