package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

// RegisterEventRequest is the request body for POST /events/{eventID}/registrations.
type RegisterEventRequest struct {
	FormData       map[string]string `json:"form_data"`
	Quantity       int               `json:"quantity"`
	PaymentReceipt *string           `json:"payment_receipt"`
}

// Validate implements Validator.
func (r RegisterEventRequest) Validate() []string {
	var errs []string
	if r.Quantity < 0 {
		errs = append(errs, "quantity must not be negative")
	}
	if r.PaymentReceipt != nil && strings.TrimSpace(*r.PaymentReceipt) == "" {
		errs = append(errs, "payment_receipt cannot be empty when provided")
	}
	return errs
}

// RegisterSuccessResponse is the success response envelope for POST /events/{eventID}/registrations (201).
type RegisterSuccessResponse struct {
	Data  *domain.RegistrationOutcome `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// ListMyRegistrationsSuccessResponse is the success response envelope for GET /registrations (200).
type ListMyRegistrationsSuccessResponse struct {
	Data  []*domain.RegistrationWithEvent `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// ListEventRegistrationsSuccessResponse is the success response envelope for GET /events/{eventID}/registrations (200).
type ListEventRegistrationsSuccessResponse struct {
	Data  []*domain.Registration `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// CancelRegistrationRequest is the request body for DELETE /registrations/{registrationID}.
type CancelRegistrationRequest struct {
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (c CancelRegistrationRequest) Validate() []string {
	if strings.TrimSpace(c.Reason) == "" {
		return []string{"reason is required"}
	}
	return nil
}

// CancelRegistrationResponse is the data payload for DELETE /registrations/{registrationID} (200).
type CancelRegistrationResponse struct {
	Status string `json:"status"`
}

// CancelRegistrationSuccessResponse is the success response envelope for DELETE /registrations/{registrationID} (200).
type CancelRegistrationSuccessResponse struct {
	Data  CancelRegistrationResponse `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// MarkAttendedSuccessResponse is the success response envelope for POST /registrations/{registrationID}/attendance (200).
type MarkAttendedSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the authenticated participant for an event, or purchases merchandise when the event is a merchandise drop (quantity required). Paid events require a payment_receipt reference and leave the registration pending until an organizer approves the payment. Free registrations are confirmed immediately and a ticket is issued.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RegisterEventRequest true "Registration input"
// @Success 201 {object} controllers.RegisterSuccessResponse "data contains the registration and a status message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid form data, missing receipt)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not published, deadline passed, full, already registered, out of stock)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req RegisterEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	outcome, err := c.Service.Register(r.Context(), eventID, p, &domain.RegisterRequest{
		FormData:       req.FormData,
		Quantity:       req.Quantity,
		PaymentReceipt: req.PaymentReceipt,
	})
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, outcome)
}

// ListMyRegistrations godoc
// @Summary List my registrations
// @Description Returns the authenticated participant's registrations, each bundled with its event.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyRegistrationsSuccessResponse "data is an array of registrations with events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations [get]
func (c *RegistrationController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Service.ListMyRegistrations(r.Context(), p)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	if regs == nil {
		regs = []*domain.RegistrationWithEvent{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}

// ListEventRegistrations godoc
// @Summary List registrations for an event
// @Description Returns all registrations for the event. Only the organizer who owns the event (or an admin) can list.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListEventRegistrationsSuccessResponse "data is an array of registrations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [get]
func (c *RegistrationController) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Service.ListEventRegistrations(r.Context(), eventID, p)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Cancels a registration before the event starts, removing it and releasing the slot so the participant can register again. Only the registration owner (or an admin) can cancel. A reason is required.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Param body body CancelRegistrationRequest true "Cancellation reason"
// @Success 200 {object} controllers.CancelRegistrationSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event already started)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	registrationID := r.PathValue("registrationID")
	if registrationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return
	}
	var req CancelRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Cancel(r.Context(), registrationID, p, req.Reason); err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelRegistrationResponse{Status: "cancelled"})
}

// MarkAttended godoc
// @Summary Mark a registration as attended
// @Description Records attendance for a registration. Only the organizer who owns the event (or an admin) can mark attendance. Marking twice is rejected.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.MarkAttendedSuccessResponse "data contains the updated registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already attended)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/attendance [post]
func (c *RegistrationController) MarkAttended(w http.ResponseWriter, r *http.Request) {
	registrationID := r.PathValue("registrationID")
	if registrationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, err := c.Service.MarkAttended(r.Context(), registrationID, p)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}
