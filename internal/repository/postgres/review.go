package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/pkg/database"
	apperrors "github.com/tastebase/recipe-service/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// recomputeSummaryQuery rebuilds a recipe's rating counters from the reviews
// table. The counters are always recomputed from scratch, never adjusted
// incrementally, so they cannot drift from the underlying rows.
const recomputeSummaryQuery = `
	UPDATE recipes
	SET rating_sum = (SELECT COALESCE(SUM(rating), 0) FROM reviews WHERE recipe_id = $1),
	    rating_num = (SELECT COUNT(*) FROM reviews WHERE recipe_id = $1)
	WHERE id = $1`

// Create inserts a review and recomputes the recipe's rating counters in
// the same transaction. The unique constraint on (recipe_id, author_id)
// is the authority on duplicates; a violation maps to AlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO reviews (id, recipe_id, author_id, rating, body_md, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, insertQuery,
		review.ID,
		review.RecipeID,
		review.AuthorID,
		review.Rating,
		review.BodyMD,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "recipe_id", review.RecipeID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if _, err := tx.Exec(ctx, recomputeSummaryQuery, review.RecipeID); err != nil {
		return fmt.Errorf("recompute rating summary: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListByRecipeID returns paginated reviews for a recipe along with the total count.
func (r *ReviewRepository) ListByRecipeID(ctx context.Context, recipeID, sort string, page, perPage int) ([]domain.Review, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	var orderBy string
	switch sort {
	case domain.ReviewSortPositive:
		orderBy = "rating DESC, created_at DESC"
	case domain.ReviewSortNegative:
		orderBy = "rating ASC, created_at DESC"
	default:
		orderBy = "created_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, recipe_id, author_id, rating, body_md, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE recipe_id = $1
		ORDER BY %s
		LIMIT $2 OFFSET $3`, orderBy)

	rows, err := r.pool.Query(ctx, query, recipeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.RecipeID,
			&rv.AuthorID,
			&rv.Rating,
			&rv.BodyMD,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// GetByRecipeAndAuthor retrieves the author's review of a recipe, if any.
func (r *ReviewRepository) GetByRecipeAndAuthor(ctx context.Context, recipeID, authorID string) (*domain.Review, error) {
	query := `
		SELECT id, recipe_id, author_id, rating, body_md, created_at, updated_at
		FROM reviews
		WHERE recipe_id = $1 AND author_id = $2`

	var rv domain.Review

	err := r.pool.QueryRow(ctx, query, recipeID, authorID).Scan(
		&rv.ID,
		&rv.RecipeID,
		&rv.AuthorID,
		&rv.Rating,
		&rv.BodyMD,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rv, nil
}

// GetSummary returns the rating statistics for a recipe, read from the
// recipe's denormalized counters.
func (r *ReviewRepository) GetSummary(ctx context.Context, recipeID string) (*domain.RatingSummary, error) {
	query := `SELECT rating_sum, rating_num FROM recipes WHERE id = $1`

	var summary domain.RatingSummary

	err := r.pool.QueryRow(ctx, query, recipeID).Scan(&summary.Sum, &summary.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get rating summary: %w", err)
	}

	if summary.Count > 0 {
		summary.Average = float64(summary.Sum) / float64(summary.Count)
	}

	return &summary, nil
}

// DeleteByAuthor removes all reviews by the author and recomputes the
// counters of every recipe that lost a review, all in one transaction.
func (r *ReviewRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `DELETE FROM reviews WHERE author_id = $1 RETURNING recipe_id`, authorID)
	if err != nil {
		return fmt.Errorf("delete reviews by author: %w", err)
	}

	affected := make(map[string]struct{})
	for rows.Next() {
		var recipeID string
		if err := rows.Scan(&recipeID); err != nil {
			rows.Close()
			return fmt.Errorf("scan affected recipe id: %w", err)
		}
		affected[recipeID] = struct{}{}
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate affected recipe ids: %w", err)
	}

	for recipeID := range affected {
		if _, err := tx.Exec(ctx, recomputeSummaryQuery, recipeID); err != nil {
			return fmt.Errorf("recompute rating summary: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
