package controllers

import (
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// CreateCategoryRequest is the request body for POST /categories.
type CreateCategoryRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ColorHex    string `json:"color_hex,omitempty"`
	IconName    string `json:"icon_name,omitempty"`
}

// Validate implements Validator.
func (c CreateCategoryRequest) Validate() []string {
	var errs []string
	if c.ID == "" {
		errs = append(errs, "id is required")
	}
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateCategoryRequest is the request body for PATCH /categories/{categoryID}.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ColorHex    *string `json:"color_hex"`
	IconName    *string `json:"icon_name"`
	IsActive    *bool   `json:"is_active"`
}

// Validate implements Validator.
func (u UpdateCategoryRequest) Validate() []string {
	if u.Name != nil && *u.Name == "" {
		return []string{"name cannot be empty"}
	}
	return nil
}

// CategorySuccessResponse is the success response envelope for single-category endpoints.
type CategorySuccessResponse struct {
	Data  *domain.EventCategory `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListCategoriesSuccessResponse is the success response envelope for GET /categories (200).
type ListCategoriesSuccessResponse struct {
	Data  []*domain.EventCategory `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type CategoryController struct {
	Logger  *slog.Logger
	Service domain.CategoryService
	UserSvc domain.UserService
}

func NewCategoryController(logger *slog.Logger, svc domain.CategoryService, userSvc domain.UserService) *CategoryController {
	return &CategoryController{
		Logger:  logger,
		Service: svc,
		UserSvc: userSvc,
	}
}

// actor resolves the authenticated user for admin-gated operations.
func (c *CategoryController) actor(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}
	user, err := c.UserSvc.GetByID(r.Context(), userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return nil, false
	}
	return user, true
}

// CreateCategory godoc
// @Summary Create an event category
// @Description Adds a category to the catalog. Admin only.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCategoryRequest true "Category details"
// @Success 201 {object} controllers.CategorySuccessResponse "data contains the created category"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (duplicate id)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /categories [post]
func (c *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	category := &domain.EventCategory{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ColorHex:    req.ColorHex,
		IconName:    req.IconName,
		IsActive:    true,
	}
	if err := c.Service.CreateCategory(r.Context(), actor, category); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Update an event category
// @Description Patches category fields, including deactivation. Admin only. Deactivating a category does not affect existing events.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryID path string true "Category ID (slug)"
// @Param body body UpdateCategoryRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.CategorySuccessResponse "data contains the updated category"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /categories/{categoryID} [patch]
func (c *CategoryController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	if categoryID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing categoryID")
		return
	}
	var req UpdateCategoryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := c.actor(w, r)
	if !ok {
		return
	}
	category, err := c.Service.GetCategory(r.Context(), categoryID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.ColorHex != nil {
		category.ColorHex = *req.ColorHex
	}
	if req.IconName != nil {
		category.IconName = *req.IconName
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := c.Service.UpdateCategory(r.Context(), actor, category); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, category)
}

// GetCategory godoc
// @Summary Get a category by ID
// @Tags categories
// @Produce json
// @Param categoryID path string true "Category ID (slug)"
// @Success 200 {object} controllers.CategorySuccessResponse "data contains the category"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /categories/{categoryID} [get]
func (c *CategoryController) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	if categoryID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing categoryID")
		return
	}
	category, err := c.Service.GetCategory(r.Context(), categoryID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, category)
}

// ListCategories godoc
// @Summary List event categories
// @Tags categories
// @Produce json
// @Param active_only query bool false "Only active categories"
// @Success 200 {object} controllers.ListCategoriesSuccessResponse "data contains the categories"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /categories [get]
func (c *CategoryController) ListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"
	categories, err := c.Service.ListCategories(r.Context(), activeOnly)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, categories)
}
