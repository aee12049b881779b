package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastebase/recipe-service/internal/domain"
	apperrors "github.com/tastebase/recipe-service/pkg/errors"
)

// ─── Review column definitions ──────────────────────────────────────────────

var reviewCols = []string{
	"id", "recipe_id", "author_id", "rating", "body_md", "created_at", "updated_at",
}

var reviewColsWithCount = append(append([]string{}, reviewCols...), "total_count")

func sampleRecipeReview() domain.Review {
	return domain.Review{
		ID:        "review-1",
		RecipeID:  "recipe-1",
		AuthorID:  "user-2",
		Rating:    4,
		BodyMD:    "Turned out **great**.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func reviewRow(rv domain.Review) []any {
	return []any{
		rv.ID, rv.RecipeID, rv.AuthorID, rv.Rating, rv.BodyMD,
		rv.CreatedAt, rv.UpdatedAt,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ReviewRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestReviewRepository_Create_RecomputesSummaryInSameTx(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleRecipeReview()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.RecipeID, rv.AuthorID, rv.Rating, rv.BodyMD, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE recipes").
		WithArgs(rv.RecipeID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &rv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_DuplicateReview(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleRecipeReview()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.RecipeID, rv.AuthorID, rv.Rating, rv.BodyMD, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "reviews_recipe_id_author_id_key" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &rv)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_RecomputeFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleRecipeReview()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.RecipeID, rv.AuthorID, rv.Rating, rv.BodyMD, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE recipes").
		WithArgs(rv.RecipeID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &rv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recompute rating summary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByRecipeID_Newest(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleRecipeReview()
	row := append(reviewRow(rv), 3) // total_count = 3

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs("recipe-1", 20, 0).
		WillReturnRows(
			pgxmock.NewRows(reviewColsWithCount).AddRow(row...),
		)

	reviews, total, err := repo.ListByRecipeID(context.Background(), "recipe-1", domain.ReviewSortNewest, 1, 20)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 3, total)
	assert.Equal(t, rv.ID, reviews[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByRecipeID_SortOrders(t *testing.T) {
	tests := []struct {
		sort  string
		order string
	}{
		{domain.ReviewSortNewest, "ORDER BY created_at DESC"},
		{domain.ReviewSortPositive, "ORDER BY rating DESC"},
		{domain.ReviewSortNegative, "ORDER BY rating ASC"},
		{"", "ORDER BY created_at DESC"},
	}

	for _, tt := range tests {
		t.Run("sort_"+tt.sort, func(t *testing.T) {
			mock := newMock(t)
			defer mock.Close()
			repo := NewReviewRepository(mock)

			mock.ExpectQuery("SELECT .+ FROM reviews .+ " + tt.order).
				WithArgs("recipe-1", 20, 0).
				WillReturnRows(pgxmock.NewRows(reviewColsWithCount))

			_, _, err := repo.ListByRecipeID(context.Background(), "recipe-1", tt.sort, 1, 20)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewRepository_ListByRecipeID_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs("recipe-1", 20, 0).
		WillReturnRows(pgxmock.NewRows(reviewColsWithCount))

	reviews, total, err := repo.ListByRecipeID(context.Background(), "recipe-1", "", 1, 20)
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByRecipeAndAuthor_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	rv := sampleRecipeReview()

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(rv.RecipeID, rv.AuthorID).
		WillReturnRows(
			pgxmock.NewRows(reviewCols).AddRow(reviewRow(rv)...),
		)

	result, err := repo.GetByRecipeAndAuthor(context.Background(), rv.RecipeID, rv.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, rv.ID, result.ID)
	assert.Equal(t, rv.Rating, result.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByRecipeAndAuthor_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs("recipe-1", "user-9").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByRecipeAndAuthor(context.Background(), "recipe-1", "user-9")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetSummary(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT rating_sum, rating_num FROM recipes").
		WithArgs("recipe-1").
		WillReturnRows(
			pgxmock.NewRows([]string{"rating_sum", "rating_num"}).AddRow(int64(14), 4),
		)

	summary, err := repo.GetSummary(context.Background(), "recipe-1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, int64(14), summary.Sum)
	assert.InDelta(t, 3.5, summary.Average, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetSummary_NoReviews(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT rating_sum, rating_num FROM recipes").
		WithArgs("recipe-1").
		WillReturnRows(
			pgxmock.NewRows([]string{"rating_sum", "rating_num"}).AddRow(int64(0), 0),
		)

	summary, err := repo.GetSummary(context.Background(), "recipe-1")
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Equal(t, 0.0, summary.Average)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetSummary_RecipeNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT rating_sum, rating_num FROM recipes").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	summary, err := repo.GetSummary(context.Background(), "missing-id")
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_DeleteByAuthor_RecomputesAffected(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM reviews WHERE author_id").
		WithArgs("user-2").
		WillReturnRows(
			pgxmock.NewRows([]string{"recipe_id"}).AddRow("recipe-1").AddRow("recipe-1"),
		)
	mock.ExpectExec("UPDATE recipes").
		WithArgs("recipe-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.DeleteByAuthor(context.Background(), "user-2")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_DeleteByAuthor_NoReviews(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM reviews WHERE author_id").
		WithArgs("user-9").
		WillReturnRows(pgxmock.NewRows([]string{"recipe_id"}))
	mock.ExpectCommit()

	err := repo.DeleteByAuthor(context.Background(), "user-9")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
