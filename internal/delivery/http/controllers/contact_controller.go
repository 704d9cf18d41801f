package controllers

import (
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// CreateContactRequest is the request body for POST /contacts.
type CreateContactRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Validate implements Validator.
func (c CreateContactRequest) Validate() []string {
	var errs []string
	if c.Email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegex.MatchString(c.Email) {
		errs = append(errs, "email format is invalid")
	}
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateContactRequest is the request body for PATCH /contacts/{contactID}.
type UpdateContactRequest struct {
	Email       *string `json:"email"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"company_name"`
	Notes       *string `json:"notes"`
}

// Validate implements Validator.
func (u UpdateContactRequest) Validate() []string {
	var errs []string
	if u.Email != nil && !emailRegex.MatchString(*u.Email) {
		errs = append(errs, "email format is invalid")
	}
	if u.Name != nil && *u.Name == "" {
		errs = append(errs, "name cannot be empty")
	}
	return errs
}

// ContactSuccessResponse is the success response envelope for single-contact endpoints.
type ContactSuccessResponse struct {
	Data  *domain.ExternalContact `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ListContactsResponse is the response body for GET /contacts.
type ListContactsResponse struct {
	Contacts []*domain.ExternalContact `json:"contacts"`
	Meta     helpers.PaginationMeta    `json:"meta"`
}

// ListContactsSuccessResponse is the success response envelope for GET /contacts (200).
type ListContactsSuccessResponse struct {
	Data  ListContactsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type ContactController struct {
	Logger  *slog.Logger
	Service domain.ContactService
}

func NewContactController(logger *slog.Logger, svc domain.ContactService) *ContactController {
	return &ContactController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateContact godoc
// @Summary Create an external contact
// @Description Adds a person to the authenticated user's contact book. Contacts can be invited to events without holding an account.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateContactRequest true "Contact details"
// @Success 201 {object} controllers.ContactSuccessResponse "data contains the created contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts [post]
func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	contact := &domain.ExternalContact{
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		Notes:       req.Notes,
	}
	if err := c.Service.CreateContact(r.Context(), userID, contact); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, contact)
}

// GetContact godoc
// @Summary Get a contact by ID
// @Description Returns the contact. Only the creator may read it.
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID (UUID)"
// @Success 200 {object} controllers.ContactSuccessResponse "data contains the contact"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID} [get]
func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	contact, err := c.Service.GetContact(r.Context(), userID, contactID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contact)
}

// UpdateContact godoc
// @Summary Update a contact
// @Description Patches contact fields. Only the creator may update.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param contactID path string true "Contact ID (UUID)"
// @Param body body UpdateContactRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.ContactSuccessResponse "data contains the updated contact"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts/{contactID} [patch]
func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}
	var req UpdateContactRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	contact, err := c.Service.GetContact(r.Context(), userID, contactID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.CompanyName != nil {
		contact.CompanyName = *req.CompanyName
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	if err := c.Service.UpdateContact(r.Context(), userID, contact); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, contact)
}

// ListContacts godoc
// @Summary List the authenticated user's contacts
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListContactsSuccessResponse "data contains contacts and pagination meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts [get]
func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	contacts, total, err := c.Service.ListContacts(r.Context(), userID, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListContactsResponse{
		Contacts: contacts,
		Meta:     helpers.NewPaginationMeta(params, total),
	})
}
