package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/tastebase/recipe-service/internal/domain"
	"github.com/tastebase/recipe-service/internal/event"
	"github.com/tastebase/recipe-service/internal/markup"
	"github.com/tastebase/recipe-service/internal/repository"
	pkgkafka "github.com/tastebase/recipe-service/pkg/kafka"
)

// --- Mock Recipe Repository ---

type mockRecipeRepository struct {
	mock.Mock
}

func (m *mockRecipeRepository) Create(ctx context.Context, recipe *domain.Recipe, images []domain.RecipeImage) error {
	args := m.Called(ctx, recipe, images)
	return args.Error(0)
}

func (m *mockRecipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipe), args.Error(1)
}

func (m *mockRecipeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipe, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipe), args.Error(1)
}

func (m *mockRecipeRepository) List(ctx context.Context, filter repository.RecipeFilter) ([]domain.Recipe, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Recipe), args.Int(1), args.Error(2)
}

func (m *mockRecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *mockRecipeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRecipeRepository) ListImages(ctx context.Context, recipeID string) ([]domain.RecipeImage, error) {
	args := m.Called(ctx, recipeID)
	return args.Get(0).([]domain.RecipeImage), args.Error(1)
}

func (m *mockRecipeRepository) ListImagesByAuthor(ctx context.Context, authorID string) ([]domain.RecipeImage, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).([]domain.RecipeImage), args.Error(1)
}

func (m *mockRecipeRepository) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByRecipeID(ctx context.Context, recipeID, sort string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, recipeID, sort, page, perPage)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) GetByRecipeAndAuthor(ctx context.Context, recipeID, authorID string) (*domain.Review, error) {
	args := m.Called(ctx, recipeID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) GetSummary(ctx context.Context, recipeID string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	args := m.Called(ctx, authorID)
	return args.Error(0)
}

// --- Mock Asset Releaser ---

type mockAssetReleaser struct {
	mock.Mock
}

func (m *mockAssetReleaser) ReleaseImages(ctx context.Context, images []domain.RecipeImage) {
	m.Called(ctx, images)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer returns a producer pointed at nothing; publish failures
// are logged by the services, never returned.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newTestRecipeService(repo *mockRecipeRepository, reviews *mockReviewRepository, media *mockAssetReleaser) *RecipeService {
	sanitizer := markup.NewSanitizer()
	renderer := markup.NewRenderer(sanitizer)
	return NewRecipeService(repo, reviews, newTestProducer(), sanitizer, renderer, media, newTestLogger())
}

func newTestReviewService(repo *mockReviewRepository, recipes *mockRecipeRepository) *ReviewService {
	sanitizer := markup.NewSanitizer()
	renderer := markup.NewRenderer(sanitizer)
	return NewReviewService(repo, recipes, newTestProducer(), sanitizer, renderer, newTestLogger())
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
