package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/api"
	"github.com/mealsfit/mealsfit-cli/internal/domain/recipe"
)

// IngredientCache is the optional local cache for the ingredient catalog.
type IngredientCache interface {
	StoreIngredients(options []recipe.IngredientOption) error
	Ingredients() ([]recipe.IngredientOption, bool, error)
}

// IngredientService fetches the ingredient catalog used when composing
// recipes.
type IngredientService struct {
	gw     *api.Client
	cache  IngredientCache
	logger *slog.Logger
}

// NewIngredientService creates an IngredientService. cache may be nil.
func NewIngredientService(gw *api.Client, cache IngredientCache, logger *slog.Logger) *IngredientService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngredientService{gw: gw, cache: cache, logger: logger}
}

// List fetches the ingredient catalog, falling back to the cache when the
// backend is unreachable.
func (s *IngredientService) List(ctx context.Context) ([]recipe.IngredientOption, error) {
	var envelope struct {
		Data []recipe.IngredientOption `json:"data"`
	}
	if err := s.gw.Do(ctx, http.MethodGet, "/ingredients", nil, &envelope); err != nil {
		if errors.Is(err, api.ErrUnreachable) && s.cache != nil {
			if cached, ok, cerr := s.cache.Ingredients(); cerr == nil && ok {
				s.logger.Warn("backend unreachable, serving cached ingredients", "error", err)
				return cached, nil
			}
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.StoreIngredients(envelope.Data); err != nil {
			s.logger.Warn("caching ingredients failed", "error", err)
		}
	}
	return envelope.Data, nil
}
