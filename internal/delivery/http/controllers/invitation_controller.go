package controllers

import (
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// InviteRequest is the request body for POST /events/{eventID}/invitations.
// Exactly one of user_id, contact_id, or email (+name) identifies the invitee.
type InviteRequest struct {
	UserID          string `json:"user_id,omitempty"`
	ContactID       string `json:"contact_id,omitempty"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
	Method          string `json:"method,omitempty"`
	PersonalMessage string `json:"personal_message,omitempty"`
}

// Validate implements Validator. The exactly-one-variant rule is enforced in
// full by the domain; this catches the obvious shapes early.
func (i InviteRequest) Validate() []string {
	var errs []string
	populated := 0
	if i.UserID != "" {
		populated++
	}
	if i.ContactID != "" {
		populated++
	}
	if i.Email != "" {
		populated++
	}
	if populated != 1 {
		errs = append(errs, "exactly one of user_id, contact_id, or email must be set")
	}
	if i.Email != "" && !emailRegex.MatchString(i.Email) {
		errs = append(errs, "email format is invalid")
	}
	return errs
}

// target builds the domain invitation target from the request.
func (i InviteRequest) target(w http.ResponseWriter) (domain.InvitationTarget, bool) {
	switch {
	case i.UserID != "":
		id, ok := parseUUIDField(w, i.UserID, "user_id")
		if !ok {
			return domain.InvitationTarget{}, false
		}
		return domain.UserTarget(id), true
	case i.ContactID != "":
		id, ok := parseUUIDField(w, i.ContactID, "contact_id")
		if !ok {
			return domain.InvitationTarget{}, false
		}
		return domain.ContactTarget(id), true
	default:
		return domain.ManualTarget(i.Email, i.Name), true
	}
}

// InvitationSuccessResponse is the success response envelope for single-invitation endpoints.
type InvitationSuccessResponse struct {
	Data  *domain.EventInvitation `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ListInvitationsResponse is the response body for GET /events/{eventID}/invitations.
type ListInvitationsResponse struct {
	Invitations []*domain.EventInvitation `json:"invitations"`
	Meta        helpers.PaginationMeta    `json:"meta"`
}

// ListInvitationsSuccessResponse is the success response envelope for GET /events/{eventID}/invitations (200).
type ListInvitationsSuccessResponse struct {
	Data  ListInvitationsResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// Invite godoc
// @Summary Invite someone to an event
// @Description Creates an invitation for a registered user, an external contact, or a raw email recipient, and dispatches it. A delivery failure leaves the invitation Pending for later retry.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body InviteRequest true "Invitee and delivery method"
// @Success 201 {object} controllers.InvitationSuccessResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already invited)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [post]
func (c *InvitationController) Invite(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	method, err := domain.ParseInvitationMethod(req.Method)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	target, ok := req.target(w)
	if !ok {
		return
	}
	inv, err := c.Service.InviteToEvent(r.Context(), userID, eventID, target, method, req.PersonalMessage)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ListInvitations godoc
// @Summary List an event's invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitationsSuccessResponse "data contains invitations and pagination meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	invitations, total, err := c.Service.ListEventInvitations(r.Context(), userID, eventID, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitationsResponse{
		Invitations: invitations,
		Meta:        helpers.NewPaginationMeta(params, total),
	})
}

// DeliveryEventRequest is the request body for POST /invitations/{invitationID}/delivery.
// Status must be one of sent, delivered, opened; responses arrive via the RSVP
// endpoint, not here.
type DeliveryEventRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (d DeliveryEventRequest) Validate() []string {
	if d.Status == "" {
		return []string{"status is required"}
	}
	return nil
}

// RecordDelivery godoc
// @Summary Record a delivery event for an invitation
// @Description Advances the invitation's delivery status (sent, delivered, opened). Out-of-order or backward reports are rejected. Intended for delivery provider webhooks.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Param body body DeliveryEventRequest true "New delivery status"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the updated invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (illegal transition)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/delivery [post]
func (c *InvitationController) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	invitationID, ok := pathUUID(w, r, "invitationID")
	if !ok {
		return
	}
	var req DeliveryEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Service.RecordDeliveryEvent(r.Context(), invitationID, domain.InvitationStatus(req.Status))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// RespondRequest is the request body for POST /rsvp/{token}.
type RespondRequest struct {
	Decision string `json:"decision"`
}

// Validate implements Validator.
func (re RespondRequest) Validate() []string {
	switch re.Decision {
	case "accepted", "declined":
		return nil
	case "":
		return []string{"decision is required"}
	default:
		return []string{"decision must be accepted or declined"}
	}
}

// Respond godoc
// @Summary Respond to an invitation (RSVP)
// @Description Records the invitee's accept or decline using the opaque token from the invitation link. No authentication required. Unknown and expired tokens are indistinguishable.
// @Tags invitations
// @Accept json
// @Produce json
// @Param token path string true "RSVP token"
// @Param body body RespondRequest true "Decision (accepted or declined)"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the updated invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already responded)"
// @Failure 410 {object} helpers.APIResponse "error.code: gone (token expired or unknown)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rsvp/{token} [post]
func (c *InvitationController) Respond(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	var req RespondRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Service.RespondToInvitation(r.Context(), token, domain.InvitationDecision(req.Decision))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}

// CancelInvitation godoc
// @Summary Cancel an invitation
// @Description Withdraws a not-yet-responded invitation. Only the event organizer or a co-organizer may cancel. The invitation record is preserved with status cancelled.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} controllers.InvitationSuccessResponse "data contains the cancelled invitation"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already terminal)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID} [delete]
func (c *InvitationController) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, ok := pathUUID(w, r, "invitationID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	inv, err := c.Service.CancelInvitation(r.Context(), userID, invitationID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}
