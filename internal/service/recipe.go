package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/event"
	"github.com/tastebase/recipe-service/internal/markup"
	"github.com/tastebase/recipe-service/internal/repository"
	apperrors "github.com/tastebase/recipe-service/pkg/errors"
	"github.com/tastebase/recipe-service/pkg/slug"
)

// AssetReleaser releases backing media assets after recipe rows are gone.
type AssetReleaser interface {
	ReleaseImages(ctx context.Context, images []domain.RecipeImage)
}

// RecipeService implements the business logic for recipe operations.
type RecipeService struct {
	repo      repository.RecipeRepository
	reviews   repository.ReviewRepository
	producer  *event.Producer
	sanitizer *markup.Sanitizer
	renderer  *markup.Renderer
	media     AssetReleaser
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	repo repository.RecipeRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	sanitizer *markup.Sanitizer,
	renderer *markup.Renderer,
	media AssetReleaser,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		repo:      repo,
		reviews:   reviews,
		producer:  producer,
		sanitizer: sanitizer,
		renderer:  renderer,
		media:     media,
		logger:    logger,
	}
}

// RecipeImageInput holds the metadata for one image attached at creation.
type RecipeImageInput struct {
	Filename  string
	MimeType  string
	SortOrder int
	IsPrimary bool
}

// CreateRecipeInput holds the parameters for creating a recipe.
type CreateRecipeInput struct {
	Title         string
	DescriptionMD string
	IngredientsMD string
	StepsMD       string
	CookTimeMin   int
	Servings      int
	Images        []RecipeImageInput
}

// UpdateRecipeInput holds the parameters for updating a recipe.
type UpdateRecipeInput struct {
	Title         *string
	DescriptionMD *string
	IngredientsMD *string
	StepsMD       *string
	CookTimeMin   *int
	Servings      *int
	Status        *string
}

// RecipeListItem is a recipe with its derived rating summary.
type RecipeListItem struct {
	domain.Recipe
	Summary domain.RatingSummary `json:"rating_summary"`
}

// RenderedReview is a review with its body rendered to HTML.
type RenderedReview struct {
	domain.Review
	BodyHTML string `json:"body_html"`
}

/// RecipeDetail is the full read model for a single recipe: the stored
// markdown plus HTML rendered for this request, images, the rating summary
// and the most recent reviews.
type RecipeDetail struct {
	domain.Recipe
	DescriptionHTML string               `json:"description_html"`
	IngredientsHTML string               `json:"ingredients_html"`
	StepsHTML       string               `json:"steps_html"`
	Images          []domain.RecipeImage `json:"images"`
	Summary         domain.RatingSummary `json:"rating_summary"`
	RecentReviews   []RenderedReview     `json:"recent_reviews"`
	UserReview      *RenderedReview      `json:"user_review,omitempty"`
}

// recentReviewCount is how many of the newest reviews ride along on the
// recipe detail response.
const recentReviewCount = 5

// CreateRecipe creates a new recipe owned by authorID. All markdown fields
// pass through the sanitizer before they reach storage.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID string, input *CreateRecipeInput) (*domain.Recipe, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.InvalidInput("recipe title is required")
	}
	if input.CookTimeMin < 0 {
		return nil, apperrors.InvalidInput("cook time must not be negative")
	}
	if input.Servings < 0 {
		return nil, apperrors.InvalidInput("servings must not be negative")
	}

	stripped := s.sanitizer.SanitizeFields(&input.DescriptionMD, &input.IngredientsMD, &input.StepsMD)
	if stripped {
		s.logger.WarnContext(ctx, "stripped disallowed markup from recipe fields",
			slog.String("author_id", authorID),
		)
	}

	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:            uuid.New().String(),
		AuthorID:      authorID,
		Title:         strings.TrimSpace(input.Title),
		Slug:          slug.Generate(input.Title),
		DescriptionMD: input.DescriptionMD,
		IngredientsMD: input.IngredientsMD,
		StepsMD:       input.StepsMD,
		CookTimeMin:   input.CookTimeMin,
		Servings:      input.Servings,
		Status:        domain.RecipeStatusPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	images := make([]domain.RecipeImage, len(input.Images))
	for i, img := range input.Images {
		images[i] = domain.RecipeImage{
			ID:        uuid.New().String(),
			RecipeID:  recipe.ID,
			Filename:  img.Filename,
			MimeType:  img.MimeType,
			SortOrder: img.SortOrder,
			IsPrimary: img.IsPrimary,
			CreatedAt: now,
		}
	}

	if err := s.repo.Create(ctx, recipe, images); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	if err := s.producer.PublishRecipeCreated(ctx, recipe); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recipe.created event",
			slog.String("recipe_id", recipe.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "recipe created",
		slog.String("recipe_id", recipe.ID),
		slog.String("slug", recipe.Slug),
		slog.String("author_id", recipe.AuthorID),
	)

	return recipe, nil
}

// GetRecipe retrieves a recipe by ID or slug, without rendering.
func (s *RecipeService) GetRecipe(ctx context.Context, idOrSlug string) (*domain.Recipe, error) {
	recipe, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipeDetail retrieves a recipe by ID or slug and assembles the full
// read model. Markdown is rendered here, on every call; rendered HTML is
// never stored or cached.
func (s *RecipeService) GetRecipeDetail(ctx context.Context, idOrSlug, viewerID string) (*RecipeDetail, error) {
	recipe, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	detail := &RecipeDetail{
		Recipe:          *recipe,
		DescriptionHTML: s.renderer.Render(recipe.DescriptionMD),
		IngredientsHTML: s.renderer.Render(recipe.IngredientsMD),
		StepsHTML:       s.renderer.Render(recipe.StepsMD),
		Summary:         recipe.Summary(),
	}

	images, err := s.repo.ListImages(ctx, recipe.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load recipe images",
			slog.String("recipe_id", recipe.ID),
			slog.String("error", err.Error()),
		)
		images = []domain.RecipeImage{}
	}
	detail.Images = images

	recent, _, err := s.reviews.ListByRecipeID(ctx, recipe.ID, domain.ReviewSortNewest, 1, recentReviewCount)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load recent reviews",
			slog.String("recipe_id", recipe.ID),
			slog.String("error", err.Error()),
		)
		recent = []domain.Review{}
	}
	detail.RecentReviews = s.renderReviews(recent)

	if viewerID != "" {
		own, err := s.reviews.GetByRecipeAndAuthor(ctx, recipe.ID, viewerID)
		switch {
		case err == nil:
			rendered := s.renderReview(*own)
			detail.UserReview = &rendered
		case !errors.Is(err, apperrors.ErrNotFound):
			s.logger.ErrorContext(ctx, "failed to load viewer review",
				slog.String("recipe_id", recipe.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return detail, nil
}

// ListRecipes returns a filtered, paginated list of recipes, each carrying
// its rating summary.
func (s *RecipeService) ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]RecipeListItem, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	recipes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	items := make([]RecipeListItem, len(recipes))
	for i, rec := range recipes {
		items[i] = RecipeListItem{Recipe: rec, Summary: rec.Summary()}
	}

	return items, total, nil
}

// UpdateRecipe applies partial updates to a recipe. Only the author may
// edit; every markdown field that changes is re-sanitized.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, authorID string, input *UpdateRecipeInput) (*domain.Recipe, error) {
	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe for update: %w", err)
	}

	if recipe.AuthorID != authorID {
		return nil, apperrors.Forbidden("only the author may edit this recipe")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.InvalidInput("recipe title must not be empty")
		}
		recipe.Title = strings.TrimSpace(*input.Title)
		recipe.Slug = slug.Generate(*input.Title)
	}

	stripped := false
	if input.DescriptionMD != nil {
		recipe.DescriptionMD = *input.DescriptionMD
		stripped = s.sanitizer.SanitizeFields(&recipe.DescriptionMD) || stripped
	}
	if input.IngredientsMD != nil {
		recipe.IngredientsMD = *input.IngredientsMD
		stripped = s.sanitizer.SanitizeFields(&recipe.IngredientsMD) || stripped
	}
	if input.StepsMD != nil {
		recipe.StepsMD = *input.StepsMD
		stripped = s.sanitizer.SanitizeFields(&recipe.StepsMD) || stripped
	}
	if stripped {
		s.logger.WarnContext(ctx, "stripped disallowed markup from recipe fields",
			slog.String("recipe_id", recipe.ID),
			slog.String("author_id", authorID),
		)
	}

	if input.CookTimeMin != nil {
		if *input.CookTimeMin < 0 {
			return nil, apperrors.InvalidInput("cook time must not be negative")
		}
		recipe.CookTimeMin = *input.CookTimeMin
	}

	if input.Servings != nil {
		if *input.Servings < 0 {
			return nil, apperrors.InvalidInput("servings must not be negative")
		}
		recipe.Servings = *input.Servings
	}

	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *input.Status, strings.Join(domain.ValidStatuses(), ", ")))
		}
		recipe.Status = *input.Status
	}

	if err := s.repo.Update(ctx, recipe); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if err := s.producer.PublishRecipeUpdated(ctx, recipe); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recipe.updated event",
			slog.String("recipe_id", recipe.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "recipe updated",
		slog.String("recipe_id", recipe.ID),
		slog.String("slug", recipe.Slug),
	)

	return recipe, nil
}

// DeleteRecipe removes a recipe. Only the author may delete. Reviews and
// image metadata cascade with the row; backing assets are released after
// the delete commits, best effort.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, authorID string) error {
	recipe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get recipe for delete: %w", err)
	}

	if recipe.AuthorID != authorID {
		return apperrors.Forbidden("only the author may delete this recipe")
	}

	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load images before delete",
			slog.String("recipe_id", id),
			slog.String("error", err.Error()),
		)
		images = nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	s.media.ReleaseImages(ctx, images)

	if err := s.producer.PublishRecipeDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recipe.deleted event",
			slog.String("recipe_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "recipe deleted",
		slog.String("recipe_id", id),
	)

	return nil
}

// DeleteByAuthor removes every recipe owned by the author. Called from the
// user.deleted consumer; asset release and events follow the same rules as
// a single delete.
func (s *RecipeService) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	images, err := s.repo.ListImagesByAuthor(ctx, authorID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load author images before cascade delete",
			slog.String("author_id", authorID),
			slog.String("error", err.Error()),
		)
		images = nil
	}

	ids, err := s.repo.DeleteByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("delete recipes by author: %w", err)
	}

	s.media.ReleaseImages(ctx, images)

	for _, id := range ids {
		if err := s.producer.PublishRecipeDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish recipe.deleted event",
				slog.String("recipe_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "author recipes deleted",
		slog.String("author_id", authorID),
		slog.Int("count", len(ids)),
	)

	return ids, nil
}

// resolve looks a recipe up by UUID first, falling back to slug.
func (s *RecipeService) resolve(ctx context.Context, idOrSlug string) (*domain.Recipe, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		recipe, err := s.repo.GetByID(ctx, idOrSlug)
		if err != nil {
			return nil, fmt.Errorf("get recipe by id: %w", err)
		}
		return recipe, nil
	}

	recipe, err := s.repo.GetBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("get recipe by slug: %w", err)
	}
	return recipe, nil
}

func (s *RecipeService) renderReview(rv domain.Review) RenderedReview {
	return RenderedReview{Review: rv, BodyHTML: s.renderer.Render(rv.BodyMD)}
}

func (s *RecipeService) renderReviews(reviews []domain.Review) []RenderedReview {
	rendered := make([]RenderedReview, len(reviews))
	for i, rv := range reviews {
		rendered[i] = s.renderReview(rv)
	}
	return rendered
}
