package domain

import (
	"time"
)

// Rating bounds, enforced both in the service layer and by a CHECK
// constraint on the reviews table.
const (
	RatingMin = 0
	RatingMax = 5
)

// Review represents a recipe review submitted by a user. BodyMD holds
// sanitized markdown source. A user may review a given recipe at most
// once; the storage layer enforces this with a unique constraint.
type Review struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	BodyMD    string    `json:"body_md"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingSummary contains aggregate review statistics for a recipe.
// Average is 0 when Count is 0.
type RatingSummary struct {
	Count   int     `json:"count"`
	Sum     int64   `json:"sum"`
	Average float64 `json:"average"`
}

// IsValidRating reports whether rating is within the accepted range.
func IsValidRating(rating int) bool {
	return rating >= RatingMin && rating <= RatingMax
}

// Review list sort orders.
const (
	ReviewSortNewest   = "newest"
	ReviewSortPositive = "positive"
	ReviewSortNegative = "negative"
)

// ValidReviewSorts returns the set of valid review sort values.
func ValidReviewSorts() []string {
	return []string{ReviewSortNewest, ReviewSortPositive, ReviewSortNegative}
}

// IsValidReviewSort checks whether the given sort value is valid. An empty
// string is valid and means the default order (newest first).
func IsValidReviewSort(sort string) bool {
	if sort == "" {
		return true
	}
	for _, s := range ValidReviewSorts() {
		if s == sort {
			return true
		}
	}
	return false
}
