package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/repository"
	"github.com/tastebase/recipe-service/internal/service"
	"github.com/tastebase/recipe-service/pkg/httputil"
	"github.com/tastebase/recipe-service/pkg/middleware"
	"github.com/tastebase/recipe-service/pkg/pagination"
	"github.com/tastebase/recipe-service/pkg/validator"
)

// RecipeHandler handles HTTP requests for recipe endpoints.
type RecipeHandler struct {
	service *service.RecipeService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new recipe HTTP handler.
func NewRecipeHandler(svc *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// RecipeImageRequest is image metadata attached on recipe creation.
type RecipeImageRequest struct {
	Filename  string `json:"filename" validate:"required,max=255"`
	MimeType  string `json:"mime_type" validate:"required,max=100"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateRecipeRequest is the JSON request body for creating a recipe.
type CreateRecipeRequest struct {
	Title         string               `json:"title" validate:"required,min=1,max=500"`
	DescriptionMD string               `json:"description_md"`
	IngredientsMD string               `json:"ingredients_md"`
	StepsMD       string               `json:"steps_md"`
	CookTimeMin   int                  `json:"cook_time_min" validate:"gte=0"`
	Servings      int                  `json:"servings" validate:"gte=0"`
	Images        []RecipeImageRequest `json:"images" validate:"dive"`
}

// UpdateRecipeRequest is the JSON request body for updating a recipe.
type UpdateRecipeRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=500"`
	DescriptionMD *string `json:"description_md"`
	IngredientsMD *string `json:"ingredients_md"`
	StepsMD       *string `json:"steps_md"`
	CookTimeMin   *int    `json:"cook_time_min" validate:"omitempty,gte=0"`
	Servings      *int    `json:"servings" validate:"omitempty,gte=0"`
	Status        *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// --- Handlers ---

// ListRecipes handles GET /api/v1/recipes
// @Summary List recipes
// @Description Returns paginated recipes, newest first, each with its rating summary
// @Tags recipes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param author_id query string false "Filter by author UUID"
// @Param status query string false "Filter by status" Enums(draft,published,archived)
// @Param search query string false "Search in title and description"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/recipes [get]
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.RecipeFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if v := r.URL.Query().Get("author_id"); v != "" {
		filter.AuthorID = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.IsValidStatus(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "status must be one of: draft, published, archived"},
			})
			return
		}
		filter.Status = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	recipes, total, err := h.service.ListRecipes(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(recipes, total, params))
}

// GetRecipe handles GET /api/v1/recipes/{idOrSlug}
// It accepts both a UUID and a slug. Markdown fields are rendered to HTML
// for this response; nothing rendered is ever cached.
// @Summary Get recipe by ID or slug
// @Description Returns the recipe detail with rendered HTML, rating summary and recent reviews
// @Tags recipes
// @Produce json
// @Param idOrSlug path string true "Recipe UUID or URL slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/recipes/{idOrSlug} [get]
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "recipe id or slug is required"},
		})
		return
	}

	viewerID := middleware.UserIDFromContext(r.Context())

	detail, err := h.service.GetRecipeDetail(r.Context(), idOrSlug, viewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// CreateRecipe handles POST /api/v1/recipes
// @Summary Create a recipe
// @Description Creates a recipe owned by the authenticated user. Markdown fields are sanitized before storage.
// @Tags recipes
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param request body CreateRecipeRequest true "Recipe to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/recipes [post]
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	authorID := middleware.UserIDFromContext(r.Context())

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateRecipeInput{
		Title:         req.Title,
		DescriptionMD: req.DescriptionMD,
		IngredientsMD: req.IngredientsMD,
		StepsMD:       req.StepsMD,
		CookTimeMin:   req.CookTimeMin,
		Servings:      req.Servings,
	}
	for _, img := range req.Images {
		input.Images = append(input.Images, service.RecipeImageInput{
			Filename:  img.Filename,
			MimeType:  img.MimeType,
			SortOrder: img.SortOrder,
			IsPrimary: img.IsPrimary,
		})
	}

	recipe, err := h.service.CreateRecipe(r.Context(), authorID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: recipe})
}

// UpdateRecipe handles PUT /api/v1/recipes/{id}
// @Summary Update a recipe
// @Description Partially updates a recipe. Author only; changed markdown fields are re-sanitized.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path string true "Recipe UUID"
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param request body UpdateRecipeRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/recipes/{id} [put]
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	authorID := middleware.UserIDFromContext(r.Context())

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateRecipeInput{
		Title:         req.Title,
		DescriptionMD: req.DescriptionMD,
		IngredientsMD: req.IngredientsMD,
		StepsMD:       req.StepsMD,
		CookTimeMin:   req.CookTimeMin,
		Servings:      req.Servings,
		Status:        req.Status,
	}

	recipe, err := h.service.UpdateRecipe(r.Context(), id.String(), authorID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recipe})
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
// @Summary Delete a recipe
// @Description Deletes a recipe and its reviews and image metadata. Author only.
// @Tags recipes
// @Produce json
// @Param id path string true "Recipe UUID"
// @Param X-User-ID header string true "Authenticated user UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/recipes/{id} [delete]
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	authorID := middleware.UserIDFromContext(r.Context())

	if err := h.service.DeleteRecipe(r.Context(), id.String(), authorID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}
