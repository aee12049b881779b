package repository

import (
	"context"

	"github.com/tastebase/recipe-service/internal/domain"
)

// RecipeFilter defines filter criteria for listing recipes.
type RecipeFilter struct {
	AuthorID *string
	Status   *string
	Search   *string
	Page     int
	PerPage  int
}

// RecipeRepository defines the interface for recipe persistence operations.
type RecipeRepository interface {
	// Create inserts a new recipe and its image metadata in one transaction.
	Create(ctx context.Context, recipe *domain.Recipe, images []domain.RecipeImage) error

	// GetByID retrieves a recipe by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Recipe, error)

	// GetBySlug retrieves a recipe by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Recipe, error)

	// List returns recipes matching the given filter along with the total count.
	List(ctx context.Context, filter RecipeFilter) ([]domain.Recipe, int, error)

	// Update modifies an existing recipe in the store.
	Update(ctx context.Context, recipe *domain.Recipe) error

	// Delete removes a recipe by its identifier. Images and reviews are
	// removed by cascading foreign keys.
	Delete(ctx context.Context, id string) error

	// ListImages returns the image metadata for a recipe in sort order.
	ListImages(ctx context.Context, recipeID string) ([]domain.RecipeImage, error)

	// ListImagesByAuthor returns image metadata across all of an author's
	// recipes, used to release backing assets before a cascade delete.
	ListImagesByAuthor(ctx context.Context, authorID string) ([]domain.RecipeImage, error)

	// DeleteByAuthor removes all recipes owned by the author and returns
	// the IDs of the deleted recipes.
	DeleteByAuthor(ctx context.Context, authorID string) ([]string, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review and recomputes the recipe's rating counters
	// in the same transaction. Returns an AlreadyExists error when the
	// author has already reviewed the recipe.
	Create(ctx context.Context, review *domain.Review) error

	// ListByRecipeID returns paginated reviews for a recipe in the given
	// sort order along with the total count.
	ListByRecipeID(ctx context.Context, recipeID, sort string, page, perPage int) ([]domain.Review, int, error)

	// GetByRecipeAndAuthor retrieves the author's review of a recipe, if any.
	GetByRecipeAndAuthor(ctx context.Context, recipeID, authorID string) (*domain.Review, error)

	// GetSummary returns the aggregate rating statistics for a recipe,
	// read from the recipe's denormalized counters.
	GetSummary(ctx context.Context, recipeID string) (*domain.RatingSummary, error)

	// DeleteByAuthor removes all reviews by the author and recomputes the
	// rating counters of every affected recipe in the same transaction.
	DeleteByAuthor(ctx context.Context, authorID string) error
}
