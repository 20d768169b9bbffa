// Package recipe holds the recipe and ingredient records exchanged with the
// backend. Field names and optionality mirror the backend's JSON contract.
package recipe

// Pivot carries the per-recipe measure attached to an ingredient.
type Pivot struct {
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Grams    float64 `json:"grams,omitempty"`
}

// Ingredient is an ingredient as embedded in a recipe. The backend uses
// either "name" or "ingredient_name" depending on the endpoint, and the
// measure either inline or under "pivot".
type Ingredient struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name,omitempty"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	Pivot          *Pivot  `json:"pivot,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	Unit           string  `json:"unit,omitempty"`
}

// DisplayName returns whichever name field the backend populated.
func (i Ingredient) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.IngredientName
}

// Recipe is a recipe record as returned by the backend.
type Recipe struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	ImageThumbURL string `json:"image_thumb_url,omitempty"`
	ImageWebpURL  string `json:"image_webp_url,omitempty"`
	UserID        int64  `json:"user_id"`

	Calories        float64 `json:"calories,omitempty"`
	Protein         float64 `json:"protein,omitempty"`
	Carbs           float64 `json:"carbs,omitempty"`
	Fat             float64 `json:"fat,omitempty"`
	Servings        int     `json:"servings,omitempty"`
	PrepTimeMinutes int     `json:"prep_time_minutes,omitempty"`
	CookTimeMinutes int     `json:"cook_time_minutes,omitempty"`

	Steps       string       `json:"steps,omitempty"`
	Ingredients []Ingredient `json:"ingredients,omitempty"`
}

// IngredientOption is a catalog entry from the ingredients endpoint, used
// when composing a new recipe.
type IngredientOption struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	UnitShort string `json:"unit_short,omitempty"`
}

// IngredientInput is one ingredient line of a recipe being created.
type IngredientInput struct {
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         *string `json:"unit"`
	Notes        *string `json:"notes"`
}

// CreateInput is the payload for creating a recipe.
type CreateInput struct {
	Title           string            `json:"title"`
	Visibility      string            `json:"visibility"`
	Description     string            `json:"description"`
	PrepTimeMinutes *int              `json:"prep_time_minutes"`
	CookTimeMinutes *int              `json:"cook_time_minutes"`
	Servings        *int              `json:"servings"`
	Ingredients     []IngredientInput `json:"ingredients"`
	Steps           string            `json:"steps"`
}

// Page is the backend's pagination envelope.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	Data        []T `json:"data"`
}
