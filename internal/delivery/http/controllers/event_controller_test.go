package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

type mockEventService struct {
	event         *domain.Event
	events        []*domain.Event
	total         int
	justPublished bool
	err           error

	createdEvent *domain.Event
	deletedID    string
}

func (m *mockEventService) CreateEvent(ctx context.Context, p domain.Principal, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	event.ID = "ev-1"
	m.createdEvent = event
	return nil
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) ListEvents(ctx context.Context, publishedOnly bool, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.events, m.total, nil
}

func (m *mockEventService) ListEventsByOrganizer(ctx context.Context, p domain.Principal) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func (m *mockEventService) UpdateEvent(ctx context.Context, eventID string, p domain.Principal, patch *domain.EventPatch) (*domain.Event, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.event, m.justPublished, nil
}

func (m *mockEventService) DeleteEvent(ctx context.Context, eventID string, p domain.Principal) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = eventID
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func organizerContext(req *http.Request) *http.Request {
	p := domain.Principal{ID: "org-1", Name: "Orla", Email: "orla@campus.edu", Role: domain.RoleOrganizer}
	return req.WithContext(middleware.SetPrincipal(req.Context(), p))
}

func sampleEvent() *domain.Event {
	start := time.Now().Add(48 * time.Hour)
	return &domain.Event{
		ID:                   "ev-1",
		Name:                 "Spring Hackathon",
		Category:             domain.CategoryTechnical,
		Type:                 domain.EventTypeNormal,
		StartDate:            start,
		EndDate:              start.Add(6 * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		IsPublished:          true,
		OrganizerID:          "org-1",
	}
}

func TestEventController_CreateEvent_Success(t *testing.T) {
	svc := &mockEventService{}
	ctrl := NewEventController(testLogger(), svc)

	body := map[string]any{
		"name":                  "Spring Hackathon",
		"category":              "technical",
		"type":                  "normal",
		"start_date":            time.Now().Add(48 * time.Hour),
		"end_date":              time.Now().Add(54 * time.Hour),
		"registration_deadline": time.Now().Add(24 * time.Hour),
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(b))
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if svc.createdEvent == nil || svc.createdEvent.Name != "Spring Hackathon" {
		t.Fatalf("service did not receive the event")
	}
}

func TestEventController_CreateEvent_MissingName(t *testing.T) {
	ctrl := NewEventController(testLogger(), &mockEventService{})

	body := map[string]any{
		"category":              "technical",
		"type":                  "normal",
		"start_date":            time.Now().Add(48 * time.Hour),
		"end_date":              time.Now().Add(54 * time.Hour),
		"registration_deadline": time.Now().Add(24 * time.Hour),
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(b))
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEventController_CreateEvent_Forbidden(t *testing.T) {
	svc := &mockEventService{err: domain.ErrForbidden}
	ctrl := NewEventController(testLogger(), svc)

	body := map[string]any{
		"name":                  "Spring Hackathon",
		"category":              "technical",
		"type":                  "normal",
		"start_date":            time.Now().Add(48 * time.Hour),
		"end_date":              time.Now().Add(54 * time.Hour),
		"registration_deadline": time.Now().Add(24 * time.Hour),
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(b))
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestEventController_GetEvent(t *testing.T) {
	svc := &mockEventService{event: sampleEvent()}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.GetEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Data  EventView         `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data.ID != "ev-1" {
		t.Fatalf("expected event ev-1, got %q", resp.Data.ID)
	}
	if resp.Data.Status != domain.StatusPublished {
		t.Fatalf("expected derived status published, got %q", resp.Data.Status)
	}
}

func TestEventController_GetEvent_NotFound(t *testing.T) {
	svc := &mockEventService{err: domain.ErrNotFound}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
	req.SetPathValue("eventID", "missing")
	w := httptest.NewRecorder()

	ctrl.GetEvent(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestEventController_GetEvent_InternalError(t *testing.T) {
	svc := &mockEventService{err: errors.New("pq: connection reset by peer")}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.GetEvent(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("response body leaks the internal error: %s", w.Body.String())
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Message != "internal server error" {
		t.Fatalf("expected opaque message, got %+v", resp.Error)
	}
}

func TestEventController_ListEvents(t *testing.T) {
	svc := &mockEventService{events: []*domain.Event{sampleEvent()}, total: 35}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events?page=2&page_size=10", nil)
	w := httptest.NewRecorder()

	ctrl.ListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Data  ListEventsResponse `json:"data"`
		Error *helpers.APIError  `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Data.Items))
	}
	if resp.Data.Pagination.Total != 35 || resp.Data.Pagination.Page != 2 || resp.Data.Pagination.TotalPages != 4 {
		t.Fatalf("unexpected pagination meta: %+v", resp.Data.Pagination)
	}
}

func TestEventController_UpdateEvent_EditConflict(t *testing.T) {
	svc := &mockEventService{err: &domain.EditNotAllowedError{
		Status: domain.StatusPublished,
		Fields: []string{domain.FieldStartDate},
	}}
	ctrl := NewEventController(testLogger(), svc)

	b, _ := json.Marshal(map[string]any{"start_date": time.Now()})
	req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", bytes.NewReader(b))
	req.SetPathValue("eventID", "ev-1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.UpdateEvent(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != helpers.ErrCodeConflict {
		t.Fatalf("expected conflict error code, got %+v", resp.Error)
	}
}

func TestEventController_DeleteEvent_HasRegistrations(t *testing.T) {
	svc := &mockEventService{err: domain.ErrHasRegistrations}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
	req.SetPathValue("eventID", "ev-1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.DeleteEvent(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestEventController_DeleteEvent_Success(t *testing.T) {
	svc := &mockEventService{}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
	req.SetPathValue("eventID", "ev-1")
	req = organizerContext(req)
	w := httptest.NewRecorder()

	ctrl.DeleteEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if svc.deletedID != "ev-1" {
		t.Fatalf("expected delete of ev-1, got %q", svc.deletedID)
	}
}
