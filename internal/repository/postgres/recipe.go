package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/repository"
	"github.com/tastebase/recipe-service/pkg/database"
	apperrors "github.com/tastebase/recipe-service/pkg/errors"
)

// RecipeRepository implements repository.RecipeRepository using PostgreSQL.
type RecipeRepository struct {
	pool database.DBTX
}

// NewRecipeRepository creates a new PostgreSQL-backed recipe repository.
func NewRecipeRepository(pool database.DBTX) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

const recipeColumns = `id, author_id, title, slug, description_md, ingredients_md, steps_md,
	cook_time_min, servings, status, rating_sum, rating_num, created_at, updated_at`

// Create inserts a new recipe and its image metadata in one transaction.
func (r *RecipeRepository) Create(ctx context.Context, rec *domain.Recipe, images []domain.RecipeImage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO recipes (id, author_id, title, slug, description_md, ingredients_md, steps_md,
			cook_time_min, servings, status, rating_sum, rating_num, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, $11, $12)`

	_, err = tx.Exec(ctx, query,
		rec.ID,
		rec.AuthorID,
		rec.Title,
		rec.Slug,
		rec.DescriptionMD,
		rec.IngredientsMD,
		rec.StepsMD,
		rec.CookTimeMin,
		rec.Servings,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("recipe", "slug", rec.Slug)
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	for _, img := range images {
		if err := insertImage(ctx, tx, &img); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a recipe by its ID.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE id = $1`, recipeColumns)
	return r.scanRecipe(ctx, query, id)
}

// GetBySlug retrieves a recipe by its slug.
func (r *RecipeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE slug = $1`, recipeColumns)
	return r.scanRecipe(ctx, query, slug)
}

// List returns recipes matching the given filter with the total count.
func (r *RecipeRepository) List(ctx context.Context, filter repository.RecipeFilter) ([]domain.Recipe, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", argIndex))
		args = append(args, *filter.AuthorID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description_md ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM recipes
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		recipeColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var (
		recipes    []domain.Recipe
		totalCount int
	)

	for rows.Next() {
		var rec domain.Recipe

		if err := scanRecipeFields(rows.Scan, &rec, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan recipe row: %w", err)
		}

		recipes = append(recipes, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate recipe rows: %w", err)
	}

	if recipes == nil {
		recipes = []domain.Recipe{}
	}

	return recipes, totalCount, nil
}

// Update modifies an existing recipe in the database. The denormalized
// rating counters are never written here; only the review transaction
// touches them.
func (r *RecipeRepository) Update(ctx context.Context, rec *domain.Recipe) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE recipes
		SET title = $1, slug = $2, description_md = $3, ingredients_md = $4, steps_md = $5,
		    cook_time_min = $6, servings = $7, status = $8, updated_at = $9
		WHERE id = $10`

	ct, err := r.pool.Exec(ctx, query,
		rec.Title,
		rec.Slug,
		rec.DescriptionMD,
		rec.IngredientsMD,
		rec.StepsMD,
		rec.CookTimeMin,
		rec.Servings,
		rec.Status,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("recipe", "slug", rec.Slug)
		}
		return fmt.Errorf("update recipe: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("recipe", rec.ID)
	}

	return nil
}

// Delete removes a recipe from the database by its ID. Image metadata and
// reviews go with it via ON DELETE CASCADE.
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM recipes WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("recipe", id)
	}

	return nil
}

// ListImages returns the image metadata for a recipe in sort order.
func (r *RecipeRepository) ListImages(ctx context.Context, recipeID string) ([]domain.RecipeImage, error) {
	query := `
		SELECT id, recipe_id, filename, mime_type, sort_order, is_primary, created_at
		FROM recipe_images
		WHERE recipe_id = $1
		ORDER BY sort_order ASC`

	return r.queryImages(ctx, query, recipeID)
}

// ListImagesByAuthor returns image metadata across all of an author's recipes.
func (r *RecipeRepository) ListImagesByAuthor(ctx context.Context, authorID string) ([]domain.RecipeImage, error) {
	query := `
		SELECT ri.id, ri.recipe_id, ri.filename, ri.mime_type, ri.sort_order, ri.is_primary, ri.created_at
		FROM recipe_images ri
		JOIN recipes r ON r.id = ri.recipe_id
		WHERE r.author_id = $1`

	return r.queryImages(ctx, query, authorID)
}

// DeleteByAuthor removes all recipes owned by the author and returns their IDs.
func (r *RecipeRepository) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	query := `DELETE FROM recipes WHERE author_id = $1 RETURNING id`

	rows, err := r.pool.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("delete recipes by author: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted recipe id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted recipe ids: %w", err)
	}

	return ids, nil
}

func (r *RecipeRepository) queryImages(ctx context.Context, query string, arg any) ([]domain.RecipeImage, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list recipe images: %w", err)
	}
	defer rows.Close()

	var images []domain.RecipeImage
	for rows.Next() {
		var img domain.RecipeImage
		if err := rows.Scan(
			&img.ID,
			&img.RecipeID,
			&img.Filename,
			&img.MimeType,
			&img.SortOrder,
			&img.IsPrimary,
			&img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recipe image row: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe image rows: %w", err)
	}

	if images == nil {
		images = []domain.RecipeImage{}
	}

	return images, nil
}

// scanRecipe is a helper that executes a query expected to return a single recipe row.
func (r *RecipeRepository) scanRecipe(ctx context.Context, query string, args ...any) (*domain.Recipe, error) {
	var rec domain.Recipe

	err := scanRecipeFields(r.pool.QueryRow(ctx, query, args...).Scan, &rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}

	return &rec, nil
}

// scanRecipeFields scans the recipe columns, plus any trailing destinations
// such as a window-function total count.
func scanRecipeFields(scan func(dest ...any) error, rec *domain.Recipe, extra ...any) error {
	dest := []any{
		&rec.ID,
		&rec.AuthorID,
		&rec.Title,
		&rec.Slug,
		&rec.DescriptionMD,
		&rec.IngredientsMD,
		&rec.StepsMD,
		&rec.CookTimeMin,
		&rec.Servings,
		&rec.Status,
		&rec.RatingSum,
		&rec.RatingNum,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	}
	dest = append(dest, extra...)
	return scan(dest...)
}

func insertImage(ctx context.Context, tx pgx.Tx, img *domain.RecipeImage) error {
	query := `
		INSERT INTO recipe_images (id, recipe_id, filename, mime_type, sort_order, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		img.ID,
		img.RecipeID,
		img.Filename,
		img.MimeType,
		img.SortOrder,
		img.IsPrimary,
		img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recipe image: %w", err)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
