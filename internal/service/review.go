package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/event"
	"github.com/tastebase/recipe-service/internal/markup"
	"github.com/tastebase/recipe-service/internal/repository"
	apperrors "github.com/tastebase/recipe-service/pkg/errors"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	RecipeID string
	AuthorID string
	Rating   int
	BodyMD   string
}

// ReviewListResult contains rendered reviews and their aggregate summary.
type ReviewListResult struct {
	Reviews    []RenderedReview      `json:"reviews"`
	Summary    *domain.RatingSummary `json:"rating_summary"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	TotalPages int                   `json:"total_pages"`
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	repo      repository.ReviewRepository
	recipes   repository.RecipeRepository
	producer  *event.Producer
	sanitizer *markup.Sanitizer
	renderer  *markup.Renderer
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.ReviewRepository,
	recipes repository.RecipeRepository,
	producer *event.Producer,
	sanitizer *markup.Sanitizer,
	renderer *markup.Renderer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:      repo,
		recipes:   recipes,
		producer:  producer,
		sanitizer: sanitizer,
		renderer:  renderer,
		logger:    logger,
	}
}

// CreateReview creates a new recipe review. The body passes through the
// sanitizer before storage. An existing review by the same author is
// reported early for a friendlier error, but the unique constraint inside
// the repository transaction remains the authority under concurrency.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.RecipeID == "" {
		return nil, apperrors.InvalidInput("recipe_id is required")
	}
	if input.AuthorID == "" {
		return nil, apperrors.InvalidInput("author_id is required")
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be an integer between %d and %d", domain.RatingMin, domain.RatingMax))
	}

	body := s.sanitizer.Sanitize(input.BodyMD)
	if s.sanitizer.TrimmedEmpty(body) {
		return nil, apperrors.InvalidInput("review body is required")
	}

	if _, err := s.recipes.GetByID(ctx, input.RecipeID); err != nil {
		return nil, fmt.Errorf("get recipe for review: %w", err)
	}

	if _, err := s.repo.GetByRecipeAndAuthor(ctx, input.RecipeID, input.AuthorID); err == nil {
		return nil, apperrors.AlreadyExists("review", "recipe_id", input.RecipeID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		RecipeID:  input.RecipeID,
		AuthorID:  input.AuthorID,
		Rating:    input.Rating,
		BodyMD:    body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	summary, err := s.repo.GetSummary(ctx, review.RecipeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load rating summary after review",
			slog.String("recipe_id", review.RecipeID),
			slog.String("error", err.Error()),
		)
		summary = nil
	}

	if err := s.producer.PublishReviewCreated(ctx, review, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("recipe_id", review.RecipeID),
		slog.String("author_id", review.AuthorID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListReviews returns paginated, rendered reviews for a recipe along with
// the aggregate summary.
func (s *ReviewService) ListReviews(ctx context.Context, recipeID, sort string, page, perPage int) (*ReviewListResult, error) {
	if !domain.IsValidReviewSort(sort) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid sort %q, must be one of: newest, positive, negative", sort))
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.repo.ListByRecipeID(ctx, recipeID, sort, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary, err := s.repo.GetSummary(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("get rating summary: %w", err)
	}

	rendered := make([]RenderedReview, len(reviews))
	for i, rv := range reviews {
		rendered[i] = RenderedReview{Review: rv, BodyHTML: s.renderer.Render(rv.BodyMD)}
	}

	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return &ReviewListResult{
		Reviews:    rendered,
		Summary:    summary,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// GetUserReview returns the author's review of a recipe, if any.
func (s *ReviewService) GetUserReview(ctx context.Context, recipeID, authorID string) (*domain.Review, error) {
	review, err := s.repo.GetByRecipeAndAuthor(ctx, recipeID, authorID)
	if err != nil {
		return nil, fmt.Errorf("get user review: %w", err)
	}
	return review, nil
}

// DeleteByAuthor removes every review written by the author, re-aggregating
// each affected recipe. Called from the user.deleted consumer.
func (s *ReviewService) DeleteByAuthor(ctx context.Context, authorID string) error {
	if err := s.repo.DeleteByAuthor(ctx, authorID); err != nil {
		return fmt.Errorf("delete reviews by author: %w", err)
	}

	s.logger.InfoContext(ctx, "author reviews deleted",
		slog.String("author_id", authorID),
	)

	return nil
}
