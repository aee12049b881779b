package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/tastebase/recipe-service/pkg/kafka"
)

// TopicUserDeleted is the user domain event consumed by this service.
const TopicUserDeleted = "tastebase.user.deleted"

// UserDeletedData is the payload of a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
}

// ReviewRemover removes all reviews written by an author, re-aggregating
// the rating counters of every affected recipe.
type ReviewRemover interface {
	DeleteByAuthor(ctx context.Context, authorID string) error
}

// RecipeRemover removes all recipes owned by an author and returns the
// deleted recipe IDs.
type RecipeRemover interface {
	DeleteByAuthor(ctx context.Context, authorID string) ([]string, error)
}

// Consumer handles user domain events. When a user account is deleted the
// service removes their content: reviews first, so recipes that survive
// (reviews on other authors' recipes) get their counters recomputed, then
// the user's own recipes.
type Consumer struct {
	reviews ReviewRemover
	recipes RecipeRemover
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the recipe service.
func NewConsumer(reviews ReviewRemover, recipes RecipeRemover, logger *slog.Logger) *Consumer {
	return &Consumer{
		reviews: reviews,
		recipes: recipes,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicUserDeleted:
		return c.handleUserDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleUserDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data UserDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal user.deleted data: %w", err)
	}
	if data.ID == "" {
		c.logger.WarnContext(ctx, "user.deleted event without user id",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	// Reviews go first: recipes by other authors keep existing, so their
	// counters must be recomputed without the departed user's ratings.
	if err := c.reviews.DeleteByAuthor(ctx, data.ID); err != nil {
		return fmt.Errorf("delete reviews for user %s: %w", data.ID, err)
	}

	ids, err := c.recipes.DeleteByAuthor(ctx, data.ID)
	if err != nil {
		return fmt.Errorf("delete recipes for user %s: %w", data.ID, err)
	}

	c.logger.InfoContext(ctx, "removed content for deleted user",
		slog.String("user_id", data.ID),
		slog.Int("recipes_deleted", len(ids)),
	)

	return nil
}
