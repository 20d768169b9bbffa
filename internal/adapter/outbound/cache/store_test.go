package cache

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"github.com/mealsfit/mealsfit-cli/internal/domain/recipe"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close cache: %v", err)
		}
	})
	return s
}

func TestRecipesEmptyCache(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Recipes(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no cached recipes")
	}
}

func TestRecipesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := []recipe.Recipe{
		{ID: 1, Title: "Stew", UserID: 7, Calories: 420, Ingredients: []recipe.Ingredient{
			{ID: 3, Name: "Carrot", Pivot: &recipe.Pivot{Quantity: 2, Unit: "piece"}},
		}},
		{ID: 2, Title: "Soup", UserID: 7},
	}
	if err := s.StoreRecipes(7, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.Recipes(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected cached recipes")
	}
	if len(got) != 2 || got[0].Title != "Stew" || got[1].ID != 2 {
		t.Errorf("unexpected recipes: %+v", got)
	}
	if len(got[0].Ingredients) != 1 || got[0].Ingredients[0].Pivot == nil {
		t.Errorf("expected nested ingredient data to survive, got %+v", got[0].Ingredients)
	}
}

func TestRecipesAreScopedPerUser(t *testing.T) {
	s := openTestStore(t)

	if err := s.StoreRecipes(7, []recipe.Recipe{{ID: 1, Title: "Mine", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.StoreRecipes(8, []recipe.Recipe{{ID: 2, Title: "Theirs", UserID: 8}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.Recipes(7)
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Title != "Mine" {
		t.Errorf("unexpected recipes for user 7: %+v", got)
	}
}

func TestStoreRecipesOverwritesPreviousList(t *testing.T) {
	s := openTestStore(t)

	if err := s.StoreRecipes(7, []recipe.Recipe{{ID: 1, Title: "Old", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.StoreRecipes(7, []recipe.Recipe{{ID: 2, Title: "New", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _, err := s.Recipes(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "New" {
		t.Errorf("expected the latest list, got %+v", got)
	}
}

// TestUnchangedPayloadSkipsWrite verifies the xxhash short-circuit: storing
// an identical list leaves the row, including its fetched_at, untouched.
func TestUnchangedPayloadSkipsWrite(t *testing.T) {
	s := openTestStore(t)

	list := []recipe.Recipe{{ID: 1, Title: "Stew", UserID: 7}}
	if err := s.StoreRecipes(7, list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, ok, err := s.FetchedAt(7)
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}

	if err := s.StoreRecipes(7, list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, ok, err := s.FetchedAt(7)
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}

	if !second.Equal(first) {
		t.Errorf("expected fetched_at untouched for an unchanged payload, got %v then %v", first, second)
	}
}

func TestFetchedAtAdvancesOnChange(t *testing.T) {
	s := openTestStore(t)

	if err := s.StoreRecipes(7, []recipe.Recipe{{ID: 1, Title: "Old", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _, err := s.FetchedAt(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.StoreRecipes(7, []recipe.Recipe{{ID: 2, Title: "New", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := s.FetchedAt(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Before(first) {
		t.Errorf("expected fetched_at to advance, got %v then %v", first, second)
	}
}

func TestFetchedAtEmptyCache(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.FetchedAt(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no timestamp for an empty cache")
	}
}

func TestIngredientsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Ingredients()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no cached catalog")
	}

	want := []recipe.IngredientOption{
		{ID: 1, Name: "Flour", Unit: "gram", UnitShort: "g"},
		{ID: 2, Name: "Milk", Unit: "milliliter", UnitShort: "ml"},
	}
	if err := s.StoreIngredients(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.Ingredients()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a cached catalog")
	}
	if len(got) != 2 || got[0].Name != "Flour" || got[1].UnitShort != "ml" {
		t.Errorf("unexpected catalog: %+v", got)
	}
}

// TestReopenKeepsData verifies the cache survives a process restart.
func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := first.StoreRecipes(7, []recipe.Recipe{{ID: 1, Title: "Stew", UserID: 7}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close cache: %v", err)
	}

	second, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer second.Close()

	got, ok, err := second.Recipes(7)
	if err != nil || !ok {
		t.Fatalf("unexpected result: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Title != "Stew" {
		t.Errorf("unexpected recipes after reopen: %+v", got)
	}
}
