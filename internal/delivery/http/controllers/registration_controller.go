package controllers

import (
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// RegisterForEventRequest is the request body for POST /events/{eventID}/registrations.
// With no registrant fields the authenticated user registers themselves;
// organizers may instead register an external contact (contact_id) or a
// walk-up attendee (email + name).
type RegisterForEventRequest struct {
	ContactID string `json:"contact_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`

	GuestCount int      `json:"guest_count,omitempty"`
	GuestNames []string `json:"guest_names,omitempty"`

	SpecialNeeds domain.SpecialNeeds `json:"special_needs,omitempty"`

	InvitationID string `json:"invitation_id,omitempty"`
}

// Validate implements Validator.
func (rr RegisterForEventRequest) Validate() []string {
	var errs []string
	if rr.ContactID != "" && rr.Email != "" {
		errs = append(errs, "contact_id and email are mutually exclusive")
	}
	if rr.Email != "" && !emailRegex.MatchString(rr.Email) {
		errs = append(errs, "email format is invalid")
	}
	if rr.GuestCount < 0 {
		errs = append(errs, "guest_count cannot be negative")
	}
	if len(rr.GuestNames) > rr.GuestCount {
		errs = append(errs, "guest_names cannot have more entries than guest_count")
	}
	return errs
}

// RegistrationSuccessResponse is the success response envelope for single-registration endpoints.
type RegistrationSuccessResponse struct {
	Data  *domain.EventRegistration `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// ListRegistrationsResponse is the response body for GET /events/{eventID}/registrations.
type ListRegistrationsResponse struct {
	Registrations []*domain.EventRegistration `json:"registrations"`
	Meta          helpers.PaginationMeta      `json:"meta"`
}

// ListRegistrationsSuccessResponse is the success response envelope for GET /events/{eventID}/registrations (200).
type ListRegistrationsSuccessResponse struct {
	Data  ListRegistrationsResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// MarkNoShowsResponse is the response body for POST /events/{eventID}/no-shows.
type MarkNoShowsResponse struct {
	Marked int `json:"marked"`
}

// MarkNoShowsSuccessResponse is the success response envelope for POST /events/{eventID}/no-shows (200).
type MarkNoShowsSuccessResponse struct {
	Data  MarkNoShowsResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
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
// @Description Registers the authenticated user (default), an external contact, or a walk-up attendee for a published event. When the event is full and has a waitlist, the registration is waitlisted instead.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RegisterForEventRequest true "Registrant and party details"
// @Success 201 {object} controllers.RegistrationSuccessResponse "data contains the registration; status is registered or waitlisted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full, duplicate, or not accepting registrations)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterForEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var registrant domain.RegistrantIdentity
	switch {
	case req.ContactID != "":
		id, ok := parseUUIDField(w, req.ContactID, "contact_id")
		if !ok {
			return
		}
		registrant = domain.ContactRegistrant(id)
	case req.Email != "":
		registrant = domain.ManualRegistrant(req.Email, req.Name, req.Phone, req.Company)
	default:
		registrant = domain.UserRegistrant(userID)
	}

	regReq := domain.RegisterRequest{
		EventID:      eventID,
		Registrant:   registrant,
		GuestCount:   req.GuestCount,
		GuestNames:   req.GuestNames,
		SpecialNeeds: req.SpecialNeeds,
	}
	if req.InvitationID != "" {
		id, ok := parseUUIDField(w, req.InvitationID, "invitation_id")
		if !ok {
			return
		}
		regReq.InvitationID = &id
		regReq.Source = domain.SourceInvitation
	}

	reg, err := c.Service.RegisterForEvent(r.Context(), regReq)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// CancelRegistration godoc
// @Summary Cancel a registration
// @Description Cancels a registration. A registrant may cancel their own; organizers may cancel any. Freed seats promote waitlisted parties in FIFO order and the waitlist is renumbered. Cancelling an already-cancelled registration succeeds without effect.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.RegistrationSuccessResponse "data contains the cancelled registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (terminal status)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /registrations/{registrationID} [delete]
func (c *RegistrationController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := pathUUID(w, r, "registrationID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.CancelRegistration(r.Context(), userID, registrationID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// CheckIn godoc
// @Summary Check in a registration
// @Description Marks a registered attendee as attended. Only the event organizer or a co-organizer may check in attendees, and not before the event starts.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param registrationID path string true "Registration ID (UUID)"
// @Success 200 {object} controllers.RegistrationSuccessResponse "data contains the checked-in registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already checked in, not registered, or event not started)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{registrationID}/checkin [post]
func (c *RegistrationController) CheckIn(w http.ResponseWriter, r *http.Request) {
	registrationID, ok := pathUUID(w, r, "registrationID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	reg, err := c.Service.CheckIn(r.Context(), userID, registrationID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// MarkNoShows godoc
// @Summary Mark no-shows for an ended event
// @Description Marks every still-registered (not checked-in) attendee as a no-show. Only allowed after the event's end time plus the grace period. Running it again marks nothing.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.MarkNoShowsSuccessResponse "data contains the number of registrations marked"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event not ended)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/no-shows [post]
func (c *RegistrationController) MarkNoShows(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	marked, err := c.Service.MarkNoShows(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MarkNoShowsResponse{Marked: marked})
}

// ListRegistrations godoc
// @Summary List an event's registrations
// @Description Lists registrations for the event, optionally filtered by status or source. Only the event organizer or a co-organizer may list.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param status query string false "Registration status filter"
// @Param source query string false "Registration source filter"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRegistrationsSuccessResponse "data contains registrations and pagination meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [get]
func (c *RegistrationController) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var filter domain.RegistrationFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.RegistrationStatus(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("source"); s != "" {
		source := domain.RegistrationSource(s)
		filter.Source = &source
	}

	params := helpers.ParsePagination(r)
	regs, total, err := c.Service.ListEventRegistrations(r.Context(), userID, eventID, filter, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRegistrationsResponse{
		Registrations: regs,
		Meta:          helpers.NewPaginationMeta(params, total),
	})
}
