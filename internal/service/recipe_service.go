package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/api"
	"github.com/mealsfit/mealsfit-cli/internal/domain/recipe"
)

// ErrMissingRecipeID is returned when a create response acknowledges the
// recipe but carries no usable ID in any of the known envelope shapes.
var ErrMissingRecipeID = errors.New("create response carried no recipe id")

// RecipeCache is the optional local cache consulted when the backend is
// unreachable and refreshed after successful fetches.
type RecipeCache interface {
	StoreRecipes(userID int64, recipes []recipe.Recipe) error
	Recipes(userID int64) ([]recipe.Recipe, bool, error)
}

// RecipeService implements the recipe flows on top of the Gateway.
type RecipeService struct {
	gw     *api.Client
	cache  RecipeCache
	logger *slog.Logger
}

// NewRecipeService creates a RecipeService. cache may be nil, in which case
// every call requires the backend.
func NewRecipeService(gw *api.Client, cache RecipeCache, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{gw: gw, cache: cache, logger: logger}
}

// List fetches the recipe list and returns the entries owned by userID.
// When the backend is unreachable and a cache is configured, the last
// successfully fetched list is served instead.
func (s *RecipeService) List(ctx context.Context, userID int64) ([]recipe.Recipe, error) {
	var page recipe.Page[recipe.Recipe]
	if err := s.gw.Do(ctx, http.MethodGet, "/recipes", nil, &page); err != nil {
		if errors.Is(err, api.ErrUnreachable) && s.cache != nil {
			if cached, ok, cerr := s.cache.Recipes(userID); cerr == nil && ok {
				s.logger.Warn("backend unreachable, serving cached recipes", "error", err)
				return cached, nil
			}
		}
		return nil, err
	}

	mine := make([]recipe.Recipe, 0, len(page.Data))
	for _, r := range page.Data {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}

	if s.cache != nil {
		if err := s.cache.StoreRecipes(userID, mine); err != nil {
			s.logger.Warn("caching recipes failed", "error", err)
		}
	}
	return mine, nil
}

// Create submits a new recipe and returns its ID, extracted tolerantly from
// the acknowledgment. ErrMissingRecipeID is returned when the recipe was
// created but no ID could be found in the response.
func (s *RecipeService) Create(ctx context.Context, in recipe.CreateInput) (int64, error) {
	var raw json.RawMessage
	if err := s.gw.Do(ctx, http.MethodPost, "/recipes", in, &raw); err != nil {
		return 0, err
	}
	id, ok := extractRecipeID(raw)
	if !ok {
		return 0, ErrMissingRecipeID
	}
	return id, nil
}

// Delete removes a recipe.
func (s *RecipeService) Delete(ctx context.Context, id int64) error {
	return s.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/recipes/%d", id), nil, nil)
}

// UploadImage attaches an image to an existing recipe via a multipart
// request. The multipart boundary is supplied by the transport.
func (s *RecipeService) UploadImage(ctx context.Context, id int64, filename string, r io.Reader) error {
	form := api.NewMultipartForm().AddFile("image", filename, r)
	return s.gw.DoMultipart(ctx, http.MethodPost, fmt.Sprintf("/recipes/%d/image", id), form, nil)
}

// CreateWithImage creates a recipe and, when an image reader is given,
// uploads the image best-effort: the recipe survives an upload failure, the
// caller just loses the picture.
func (s *RecipeService) CreateWithImage(ctx context.Context, in recipe.CreateInput, filename string, image io.Reader) (int64, error) {
	id, err := s.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	if image == nil {
		return id, nil
	}
	if err := s.UploadImage(ctx, id, filename, image); err != nil {
		s.logger.Warn("recipe created but image upload failed", "recipe_id", id, "error", err)
	}
	return id, nil
}

// extractRecipeID pulls the created recipe's ID out of any of the
// acknowledgment shapes the backend is known to produce:
// {id}, {recipe:{id}}, {data:{id}}, and {data:{recipe:{id}}}.
func extractRecipeID(raw json.RawMessage) (int64, bool) {
	type idHolder struct {
		ID int64 `json:"id"`
	}
	var envelope struct {
		idHolder
		Recipe *idHolder `json:"recipe"`
		Data   *struct {
			idHolder
			Recipe *idHolder `json:"recipe"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return 0, false
	}

	switch {
	case envelope.ID != 0:
		return envelope.ID, true
	case envelope.Recipe != nil && envelope.Recipe.ID != 0:
		return envelope.Recipe.ID, true
	case envelope.Data != nil && envelope.Data.ID != 0:
		return envelope.Data.ID, true
	case envelope.Data != nil && envelope.Data.Recipe != nil && envelope.Data.Recipe.ID != 0:
		return envelope.Data.Recipe.ID, true
	}
	return 0, false
}
