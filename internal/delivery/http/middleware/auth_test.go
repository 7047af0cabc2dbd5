package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	principal domain.Principal
	err       error
}

func (f *fakeTokenVerifier) Verify(_ string) (domain.Principal, error) {
	if f.err != nil {
		return domain.Principal{}, f.err
	}
	return f.principal, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	participant := domain.Principal{ID: "user-123", Name: "Sam", Email: "sam@campus.edu", Role: domain.RoleParticipant}

	tests := []struct {
		name          string
		authHeader    string
		verifier      domain.TokenVerifier
		wantStatus    int
		wantBodyCode  string
		nextCalled    bool
		wantContextID string
	}{
		{
			name:          "valid token sets context and calls next",
			authHeader:    "Bearer valid-token",
			verifier:      &fakeTokenVerifier{principal: participant},
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantContextID: "user-123",
		},
		{
			name:         "missing authorization header",
			authHeader:   "",
			verifier:     &fakeTokenVerifier{principal: participant},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
			nextCalled:   false,
		},
		{
			name:         "invalid authorization format no Bearer prefix",
			authHeader:   "Basic abc",
			verifier:     &fakeTokenVerifier{principal: participant},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
			nextCalled:   false,
		},
		{
			name:         "empty token after Bearer",
			authHeader:   "Bearer ",
			verifier:     &fakeTokenVerifier{principal: participant},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
			nextCalled:   false,
		},
		{
			name:         "verifier returns error",
			authHeader:   "Bearer bad-token",
			verifier:     &fakeTokenVerifier{err: errors.New("invalid or expired token")},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
			nextCalled:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var captured domain.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				p, ok := PrincipalFromContext(r.Context())
				if ok {
					captured = p
				}
				w.WriteHeader(http.StatusOK)
			})
			wrap := RequireAuth(tt.verifier, logger)
			handler := wrap(next)

			req := httptest.NewRequest(http.MethodGet, "http://test/registrations/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			assert.Equal(t, tt.nextCalled, nextCalled, "next handler called")
			if tt.nextCalled && tt.wantContextID != "" {
				assert.Equal(t, tt.wantContextID, captured.ID, "principal ID in context")
				assert.Equal(t, domain.RoleParticipant, captured.Role, "principal role in context")
			}
			if tt.wantStatus != http.StatusOK && tt.wantBodyCode != "" {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	organizer := domain.Principal{ID: "org-1", Role: domain.RoleOrganizer}
	participant := domain.Principal{ID: "par-1", Role: domain.RoleParticipant}

	tests := []struct {
		name       string
		principal  *domain.Principal
		allowed    []domain.Role
		wantStatus int
	}{
		{
			name:       "allowed role passes",
			principal:  &organizer,
			allowed:    []domain.Role{domain.RoleOrganizer, domain.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "disallowed role gets 403",
			principal:  &participant,
			allowed:    []domain.Role{domain.RoleOrganizer, domain.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing principal gets 401",
			principal:  nil,
			allowed:    []domain.Role{domain.RoleOrganizer},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireRole(tt.allowed...)(next)

			req := httptest.NewRequest(http.MethodPost, "http://test/events", nil)
			if tt.principal != nil {
				req = req.WithContext(SetPrincipal(req.Context(), *tt.principal))
			}
			rr := httptest.NewRecorder()

			handler(rr, req)
			require.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
