package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// pathUUID parses the named path value as a UUID. On failure it writes a 400
// JSON error and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDField parses a UUID carried in a request body field. On failure it
// writes a 400 JSON error and returns false.
func parseUUIDField(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// requireUserID reads the authenticated user ID set by the auth middleware.
// On failure it writes a 401 JSON error and returns false.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Location    domain.Location `json:"location"`

	IsPrivate          bool `json:"is_private,omitempty"`
	Capacity           *int `json:"capacity,omitempty"`
	AllowGuests        bool `json:"allow_guests,omitempty"`
	MaxGuestsPerPerson int  `json:"max_guests_per_person,omitempty"`

	RegistrationOpens  *time.Time `json:"registration_opens,omitempty"`
	RegistrationCloses *time.Time `json:"registration_closes,omitempty"`
	AllowWaitlist      bool       `json:"allow_waitlist,omitempty"`
}

// Validate implements Validator. Structural checks only; business invariants
// are enforced by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Title == "" {
		errs = append(errs, "title is required")
	}
	if c.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if c.EndTime.IsZero() {
		errs = append(errs, "end_time is required")
	}
	if c.Capacity != nil && *c.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	if c.MaxGuestsPerPerson < 0 {
		errs = append(errs, "max_guests_per_person cannot be negative")
	}
	return errs
}

// EventSuccessResponse is the success response envelope for single-event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the response body for GET /events.
type ListEventsResponse struct {
	Events []*domain.Event        `json:"events"`
	Meta   helpers.PaginationMeta `json:"meta"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates a Draft event owned by the authenticated user. The event must be published before it accepts registrations.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event details"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	now := time.Now()
	event := domain.NewEvent(req.Title, req.Description, req.CategoryID, userID, req.StartTime, req.EndTime, req.Location, now)
	event.IsPrivate = req.IsPrivate
	event.Capacity = req.Capacity
	event.AllowGuests = req.AllowGuests
	event.MaxGuestsPerPerson = req.MaxGuestsPerPerson
	event.RegistrationOpens = req.RegistrationOpens
	event.RegistrationCloses = req.RegistrationCloses
	event.AllowWaitlist = req.AllowWaitlist

	created, err := c.Service.CreateEvent(r.Context(), userID, event)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists events ordered by start time. Supports filtering by category, organizer, status, privacy, time window, and title substring.
// @Tags events
// @Produce json
// @Param category_id query string false "Category ID"
// @Param organizer_id query string false "Organizer user ID (matches owner or co-organizer)"
// @Param status query string false "Event status (draft, published, cancelled, completed)"
// @Param is_private query bool false "Privacy filter"
// @Param starts_after query string false "RFC3339 lower bound on start time"
// @Param starts_before query string false "RFC3339 upper bound on start time"
// @Param q query string false "Title substring (case insensitive)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains events and pagination meta"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.EventFilter{TitleContains: query.Get("q")}

	if s := query.Get("category_id"); s != "" {
		filter.CategoryID = &s
	}
	if s := query.Get("organizer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "organizer_id must be a valid UUID")
			return
		}
		filter.OrganizerID = &id
	}
	if s := query.Get("status"); s != "" {
		status := domain.EventStatus(s)
		filter.Status = &status
	}
	if s := query.Get("is_private"); s != "" {
		private := s == "true"
		filter.IsPrivate = &private
	}
	if s := query.Get("starts_after"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "starts_after must be RFC3339")
			return
		}
		filter.StartsAfter = &t
	}
	if s := query.Get("starts_before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "starts_before must be RFC3339")
			return
		}
		filter.StartsBefore = &t
	}

	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), filter, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Events: events,
		Meta:   helpers.NewPaginationMeta(params, total),
	})
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All
// fields optional; omitted fields are unchanged. Set clear_capacity to remove
// the capacity limit.
type UpdateEventRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id"`
	StartTime   *time.Time       `json:"start_time"`
	EndTime     *time.Time       `json:"end_time"`
	Location    *domain.Location `json:"location"`

	IsPrivate          *bool `json:"is_private"`
	Capacity           *int  `json:"capacity"`
	ClearCapacity      bool  `json:"clear_capacity,omitempty"`
	AllowGuests        *bool `json:"allow_guests"`
	MaxGuestsPerPerson *int  `json:"max_guests_per_person"`

	RegistrationOpens  *time.Time `json:"registration_opens"`
	RegistrationCloses *time.Time `json:"registration_closes"`
	AllowWaitlist      *bool      `json:"allow_waitlist"`
	CoOrganizers       []string   `json:"co_organizers"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && *u.Title == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Capacity != nil && *u.Capacity < 1 {
		errs = append(errs, "capacity must be at least 1")
	}
	if u.Capacity != nil && u.ClearCapacity {
		errs = append(errs, "capacity and clear_capacity are mutually exclusive")
	}
	for _, s := range u.CoOrganizers {
		if _, err := uuid.Parse(s); err != nil {
			errs = append(errs, "co_organizers must be valid UUIDs")
			break
		}
	}
	return errs
}

// UpdateEvent godoc
// @Summary Update event details
// @Description Patches event fields. Only the organizer or a co-organizer may update. Capacity may be lowered below the current confirmed count; existing registrations are never revoked.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	patch := domain.EventPatch{
		Title:              req.Title,
		Description:        req.Description,
		CategoryID:         req.CategoryID,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Location:           req.Location,
		IsPrivate:          req.IsPrivate,
		AllowGuests:        req.AllowGuests,
		MaxGuestsPerPerson: req.MaxGuestsPerPerson,
		RegistrationOpens:  req.RegistrationOpens,
		RegistrationCloses: req.RegistrationCloses,
		AllowWaitlist:      req.AllowWaitlist,
	}
	if req.ClearCapacity {
		patch.CapacitySet = true
	} else if req.Capacity != nil {
		patch.CapacitySet = true
		patch.Capacity = req.Capacity
	}
	if req.CoOrganizers != nil {
		ids := make([]uuid.UUID, 0, len(req.CoOrganizers))
		for _, s := range req.CoOrganizers {
			id, err := uuid.Parse(s)
			if err != nil {
				helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "co_organizers must be valid UUIDs")
				return
			}
			ids = append(ids, id)
		}
		patch.CoOrganizers = ids
	}

	event, err := c.Service.UpdateEvent(r.Context(), userID, eventID, patch)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// PublishEvent godoc
// @Summary Publish a draft event
// @Description Moves the event from Draft to Published, opening it for registration. Only the organizer or a co-organizer may publish.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the published event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not in Draft)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/publish [post]
func (c *EventController) PublishEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.PublishEvent(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CancelEvent godoc
// @Summary Cancel an event
// @Description Cancels the event, cancels all active registrations, and sends cancellation notices. Only the organizer or a co-organizer may cancel.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the cancelled event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already terminal)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [post]
func (c *EventController) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.CancelEvent(r.Context(), userID, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
