package domain

import (
	"time"
)

// Recipe status constants.
const (
	RecipeStatusDraft     = "draft"
	RecipeStatusPublished = "published"
	RecipeStatusArchived  = "archived"
)

// Recipe represents a user-submitted recipe. The markdown fields hold
// sanitized markdown source; rendering to HTML happens at read time.
type Recipe struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	DescriptionMD string    `json:"description_md"`
	IngredientsMD string    `json:"ingredients_md"`
	StepsMD       string    `json:"steps_md"`
	CookTimeMin   int       `json:"cook_time_min"`
	Servings      int       `json:"servings"`
	Status        string    `json:"status"`
	RatingSum     int64     `json:"-"`
	RatingNum     int       `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Summary derives the aggregate rating view from the denormalized counters.
func (r *Recipe) Summary() RatingSummary {
	s := RatingSummary{Count: r.RatingNum, Sum: r.RatingSum}
	if s.Count > 0 {
		s.Average = float64(s.Sum) / float64(s.Count)
	}
	return s
}

// RecipeImage holds metadata for an image attached to a recipe. The bytes
// themselves live in the media store; only the reference is kept here.
type RecipeImage struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SortOrder int       `json:"sort_order"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidStatuses returns the set of valid recipe statuses.
func ValidStatuses() []string {
	return []string{RecipeStatusDraft, RecipeStatusPublished, RecipeStatusArchived}
}

// IsValidStatus checks whether the given status string is a valid recipe status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
