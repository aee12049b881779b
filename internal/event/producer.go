package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tastebase/recipe-service/internal/domain"
	pkgkafka "github.com/tastebase/recipe-service/pkg/kafka"
)

// Kafka topic constants for recipe domain events.
const (
	TopicRecipeCreated = "tastebase.recipe.created"
	TopicRecipeUpdated = "tastebase.recipe.updated"
	TopicRecipeDeleted = "tastebase.recipe.deleted"
	TopicReviewCreated = "tastebase.review.created"
)

// Aggregate type constants.
const (
	AggregateTypeRecipe = "recipe"
	AggregateTypeReview = "review"
)

// Source identifier for events originating from the recipe service.
const SourceRecipeService = "recipe-service"

// RecipeCreatedData is the payload for a recipe.created event.
type RecipeCreatedData struct {
	ID          string `json:"id"`
	AuthorID    string `json:"author_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Status      string `json:"status"`
	CookTimeMin int    `json:"cook_time_min"`
	Servings    int    `json:"servings"`
}

// RecipeUpdatedData is the payload for a recipe.updated event.
type RecipeUpdatedData struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Status   string `json:"status"`
}

// RecipeDeletedData is the payload for a recipe.deleted event.
type RecipeDeletedData struct {
	ID string `json:"id"`
}

// ReviewCreatedData is the payload for a review.created event. It carries
// the recipe's rating summary as of the commit that added the review.
type ReviewCreatedData struct {
	ID       string  `json:"id"`
	RecipeID string  `json:"recipe_id"`
	AuthorID string  `json:"author_id"`
	Rating   int     `json:"rating"`
	Count    int     `json:"rating_count"`
	Average  float64 `json:"rating_average"`
}

// Producer publishes recipe domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the recipe service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishRecipeCreated publishes a recipe.created event.
func (p *Producer) PublishRecipeCreated(ctx context.Context, recipe *domain.Recipe) error {
	data := RecipeCreatedData{
		ID:          recipe.ID,
		AuthorID:    recipe.AuthorID,
		Title:       recipe.Title,
		Slug:        recipe.Slug,
		Status:      recipe.Status,
		CookTimeMin: recipe.CookTimeMin,
		Servings:    recipe.Servings,
	}

	event, err := pkgkafka.NewEvent(TopicRecipeCreated, recipe.ID, AggregateTypeRecipe, SourceRecipeService, data)
	if err != nil {
		return fmt.Errorf("create recipe.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRecipeCreated, event); err != nil {
		return fmt.Errorf("publish recipe.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published recipe.created event",
		slog.String("recipe_id", recipe.ID),
		slog.String("slug", recipe.Slug),
	)

	return nil
}

// PublishRecipeUpdated publishes a recipe.updated event.
func (p *Producer) PublishRecipeUpdated(ctx context.Context, recipe *domain.Recipe) error {
	data := RecipeUpdatedData{
		ID:       recipe.ID,
		AuthorID: recipe.AuthorID,
		Title:    recipe.Title,
		Slug:     recipe.Slug,
		Status:   recipe.Status,
	}

	event, err := pkgkafka.NewEvent(TopicRecipeUpdated, recipe.ID, AggregateTypeRecipe, SourceRecipeService, data)
	if err != nil {
		return fmt.Errorf("create recipe.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRecipeUpdated, event); err != nil {
		return fmt.Errorf("publish recipe.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published recipe.updated event",
		slog.String("recipe_id", recipe.ID),
		slog.String("slug", recipe.Slug),
	)

	return nil
}

// PublishRecipeDeleted publishes a recipe.deleted event.
func (p *Producer) PublishRecipeDeleted(ctx context.Context, id string) error {
	data := RecipeDeletedData{ID: id}

	event, err := pkgkafka.NewEvent(TopicRecipeDeleted, id, AggregateTypeRecipe, SourceRecipeService, data)
	if err != nil {
		return fmt.Errorf("create recipe.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRecipeDeleted, event); err != nil {
		return fmt.Errorf("publish recipe.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published recipe.deleted event",
		slog.String("recipe_id", id),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review, summary *domain.RatingSummary) error {
	data := ReviewCreatedData{
		ID:       review.ID,
		RecipeID: review.RecipeID,
		AuthorID: review.AuthorID,
		Rating:   review.Rating,
	}
	if summary != nil {
		data.Count = summary.Count
		data.Average = summary.Average
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceRecipeService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("recipe_id", review.RecipeID),
	)

	return nil
}
