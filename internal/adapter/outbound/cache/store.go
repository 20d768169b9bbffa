// Package cache provides a SQLite-backed local cache of the recipe list and
// ingredient catalog, so listings keep working while the backend is
// unreachable.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"github.com/mealsfit/mealsfit-cli/internal/domain/recipe"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipe_lists (
	user_id    INTEGER PRIMARY KEY,
	payload    TEXT NOT NULL,
	hash       INTEGER NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS ingredient_catalog (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    TEXT NOT NULL,
	hash       INTEGER NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);
`

// Store caches fetched payloads keyed by user. Each row keeps an xxhash of
// its payload so an unchanged fetch does not rewrite the database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreRecipes caches the recipe list for a user.
func (s *Store) StoreRecipes(userID int64, recipes []recipe.Recipe) error {
	payload, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("marshal recipes: %w", err)
	}
	return s.upsert(
		"recipe_lists", "user_id", userID, payload,
		`INSERT INTO recipe_lists (user_id, payload, hash, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, hash = excluded.hash, fetched_at = excluded.fetched_at`,
	)
}

// Recipes returns the cached recipe list for a user. The second return is
// false when nothing is cached.
func (s *Store) Recipes(userID int64) ([]recipe.Recipe, bool, error) {
	payload, ok, err := s.payload("recipe_lists", "user_id", userID)
	if err != nil || !ok {
		return nil, ok, err
	}
	var recipes []recipe.Recipe
	if err := json.Unmarshal(payload, &recipes); err != nil {
		return nil, false, fmt.Errorf("parse cached recipes: %w", err)
	}
	return recipes, true, nil
}

// StoreIngredients caches the ingredient catalog.
func (s *Store) StoreIngredients(options []recipe.IngredientOption) error {
	payload, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("marshal ingredients: %w", err)
	}
	return s.upsert(
		"ingredient_catalog", "id", 1, payload,
		`INSERT INTO ingredient_catalog (id, payload, hash, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, hash = excluded.hash, fetched_at = excluded.fetched_at`,
	)
}

// Ingredients returns the cached ingredient catalog. The second return is
// false when nothing is cached.
func (s *Store) Ingredients() ([]recipe.IngredientOption, bool, error) {
	payload, ok, err := s.payload("ingredient_catalog", "id", 1)
	if err != nil || !ok {
		return nil, ok, err
	}
	var options []recipe.IngredientOption
	if err := json.Unmarshal(payload, &options); err != nil {
		return nil, false, fmt.Errorf("parse cached ingredients: %w", err)
	}
	return options, true, nil
}

// FetchedAt returns when the recipe list for a user was last refreshed.
func (s *Store) FetchedAt(userID int64) (time.Time, bool, error) {
	var fetched time.Time
	err := s.db.QueryRow(`SELECT fetched_at FROM recipe_lists WHERE user_id = ?`, userID).Scan(&fetched)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query cache timestamp: %w", err)
	}
	return fetched, true, nil
}

// payload returns the stored payload for key. The second return is false
// when no row exists.
func (s *Store) payload(table, keyCol string, key any) ([]byte, bool, error) {
	var stored string
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT payload FROM %s WHERE %s = ?`, table, keyCol), key,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache payload: %w", err)
	}
	return []byte(stored), true, nil
}

// upsert writes payload under key unless the stored xxhash already matches,
// in which case the row (including its fetched_at) is left untouched.
func (s *Store) upsert(table, keyCol string, key any, payload []byte, insertStmt string) error {
	// xxhash yields uint64; SQLite stores signed 64-bit, so keep the cast
	// symmetric on read and write.
	hash := int64(xxhash.Sum64(payload))

	var stored int64
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT hash FROM %s WHERE %s = ?`, table, keyCol), key,
	).Scan(&stored)
	switch {
	case err == nil && stored == hash:
		s.logger.Debug("cache unchanged, skipping write", "table", table)
		return nil
	case err != nil && err != sql.ErrNoRows:
		return fmt.Errorf("query cache hash: %w", err)
	}

	if _, err := s.db.Exec(insertStmt, key, string(payload), hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("write cache row: %w", err)
	}
	return nil
}
