package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

// ApprovePaymentSuccessResponse is the success response envelope for POST /registrations/{registrationID}/approve (200).
type ApprovePaymentSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RejectPaymentRequest is the request body for POST /registrations/{registrationID}/reject.
type RejectPaymentRequest struct {
	Comment string `json:"comment"`
}

// Validate implements Validator.
func (r RejectPaymentRequest) Validate() []string {
	if strings.TrimSpace(r.Comment) == "" {
		return []string{"comment is required"}
	}
	return nil
}

// RejectPaymentResponse is the data payload for POST /registrations/{registrationID}/reject (200).
type RejectPaymentResponse struct {
	Status string `json:"status"`
}

// RejectPaymentSuccessResponse is the success response envelope for POST /registrations/{registrationID}/reject (200).
type RejectPaymentSuccessResponse struct {
	Data  RejectPaymentResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type PaymentController struct {
	Logger  *slog.Logger
	Service domain.PaymentService
}

func NewPaymentController(logger *slog.Logger, svc domain.PaymentService) *PaymentController {
	return &PaymentController{
		Logger:  logger,
		Service: svc,
	}
}

// Approve godoc
// @Summary Approve a pending payment
// @Description Marks the registration's payment as completed, issues the ticket, and emails it to the participant. For merchandise purchases the stock is decremented at approval time; approval fails with 409 when stock has run out. Only the organizer who owns the event (or an admin) can approve.
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.ApprovePaymentSuccessResponse "data contains the updated registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already approved, insufficient stock)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/approve [post]
func (c *PaymentController) Approve(w http.ResponseWriter, r *http.Request) {
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
	reg, err := c.Service.Approve(r.Context(), registrationID, p)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// Reject godoc
// @Summary Reject a pending payment
// @Description Marks the registration's payment as failed with a mandatory review comment. The registration row is kept so the participant can see why the payment was rejected. Only the organizer who owns the event (or an admin) can reject.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Param body body RejectPaymentRequest true "Review comment"
// @Success 200 {object} controllers.RejectPaymentSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (missing comment)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already approved)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/reject [post]
func (c *PaymentController) Reject(w http.ResponseWriter, r *http.Request) {
	registrationID := r.PathValue("registrationID")
	if registrationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing registrationID")
		return
	}
	var req RejectPaymentRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Reject(r.Context(), registrationID, p, req.Comment); err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RejectPaymentResponse{Status: "rejected"})
}
