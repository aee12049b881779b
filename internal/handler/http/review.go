package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/service"
	"github.com/tastebase/recipe-service/pkg/httputil"
	"github.com/tastebase/recipe-service/pkg/middleware"
	"github.com/tastebase/recipe-service/pkg/pagination"
	"github.com/tastebase/recipe-service/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
// Rating is a pointer so that an explicit zero survives decoding.
type CreateReviewRequest struct {
	Rating *int   `json:"rating" validate:"required,min=0,max=5"`
	BodyMD string `json:"body_md" validate:"required"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/recipes/{recipeId}/reviews
// @Summary List recipe reviews
// @Description Returns paginated reviews for a recipe with the rating summary
// @Tags reviews
// @Produce json
// @Param recipeId path string true "Recipe UUID"
// @Param sort query string false "Sort order" Enums(newest,positive,negative) default(newest)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/recipes/{recipeId}/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "recipeId")
	if recipeID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "recipe id is required"},
		})
		return
	}

	sort := r.URL.Query().Get("sort")
	if !domain.IsValidReviewSort(sort) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "sort must be one of: newest, positive, negative"},
		})
		return
	}

	params := pagination.FromRequest(r)

	result, err := h.service.ListReviews(r.Context(), recipeID, sort, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":           result.Reviews,
		"rating_summary": result.Summary,
		"total_count":    result.TotalCount,
		"page":           result.Page,
		"per_page":       result.PerPage,
		"total_pages":    result.TotalPages,
	})
}

// CreateReview handles POST /api/v1/recipes/{recipeId}/reviews
// @Summary Create a recipe review
// @Description Submits a review for a recipe. One review per user per recipe.
// @Tags reviews
// @Accept json
// @Produce json
// @Param recipeId path string true "Recipe UUID"
// @Param X-User-ID header string true "Authenticated user UUID"
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/recipes/{recipeId}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	recipeID := chi.URLParam(r, "recipeId")
	if recipeID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "recipe id is required"},
		})
		return
	}

	authorID := middleware.UserIDFromContext(r.Context())

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
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

	input := &service.CreateReviewInput{
		RecipeID: recipeID,
		AuthorID: authorID,
		Rating:   *req.Rating,
		BodyMD:   req.BodyMD,
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}
