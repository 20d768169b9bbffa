package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mealsfit/mealsfit-cli/internal/domain/recipe"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List, create, and delete your recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your recipes",
	Long: `List the recipes owned by the signed-in account.

When the backend is unreachable, the last successfully fetched list is
shown from the local cache.`,
	RunE: runRecipesList,
}

var (
	createTitle       string
	createDescription string
	createVisibility  string
	createPrepTime    int
	createCookTime    int
	createServings    int
	createSteps       []string
	createIngredients []string
	createImage       string
)

var recipesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a recipe",
	Long: `Create a recipe.

Ingredients are given as repeatable --ingredient flags in the form
"<ingredient-id>:<quantity>[:<unit>]". Steps are repeatable --step flags
joined in order. An optional --image is uploaded after creation;
an upload failure does not discard the recipe.

Example:
  mealsfit recipes create --title "Lentil stew" \
    --ingredient 12:250:g --ingredient 7:1 \
    --step "Soak the lentils" --step "Simmer 40 minutes" \
    --image ./stew.jpg`,
	RunE: runRecipesCreate,
}

var recipesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recipe",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipesDelete,
}

var recipesUploadImageCmd = &cobra.Command{
	Use:   "upload-image <id> <file>",
	Short: "Attach an image to an existing recipe",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecipesUploadImage,
}

func init() {
	recipesCreateCmd.Flags().StringVar(&createTitle, "title", "", "recipe title")
	recipesCreateCmd.Flags().StringVar(&createDescription, "description", "", "recipe description")
	recipesCreateCmd.Flags().StringVar(&createVisibility, "visibility", "public", "public or private")
	recipesCreateCmd.Flags().IntVar(&createPrepTime, "prep-time", 0, "preparation time in minutes")
	recipesCreateCmd.Flags().IntVar(&createCookTime, "cook-time", 0, "cooking time in minutes")
	recipesCreateCmd.Flags().IntVar(&createServings, "servings", 0, "number of servings")
	recipesCreateCmd.Flags().StringArrayVar(&createSteps, "step", nil, "preparation step (repeatable, in order)")
	recipesCreateCmd.Flags().StringArrayVar(&createIngredients, "ingredient", nil, "ingredient as id:quantity[:unit] (repeatable)")
	recipesCreateCmd.Flags().StringVar(&createImage, "image", "", "image file to upload after creation")
	_ = recipesCreateCmd.MarkFlagRequired("title")
	_ = recipesCreateCmd.MarkFlagRequired("ingredient")

	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesCreateCmd)
	recipesCmd.AddCommand(recipesDeleteCmd)
	recipesCmd.AddCommand(recipesUploadImageCmd)
	rootCmd.AddCommand(recipesCmd)
}

func runRecipesList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	user, err := a.currentUser()
	if err != nil {
		return err
	}

	list, err := a.recipes.List(cmd.Context(), user.ID)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("No recipes yet.")
		return nil
	}
	for _, r := range list {
		fmt.Printf("%6d  %s\n", r.ID, r.Title)
	}
	return nil
}

func runRecipesCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.currentUser(); err != nil {
		return err
	}

	ingredients, err := parseIngredientSpecs(createIngredients)
	if err != nil {
		return err
	}

	in := recipe.CreateInput{
		Title:       strings.TrimSpace(createTitle),
		Visibility:  createVisibility,
		Description: strings.TrimSpace(createDescription),
		Ingredients: ingredients,
		Steps:       strings.Join(createSteps, "\n"),
	}
	if createPrepTime > 0 {
		in.PrepTimeMinutes = &createPrepTime
	}
	if createCookTime > 0 {
		in.CookTimeMinutes = &createCookTime
	}
	if createServings > 0 {
		in.Servings = &createServings
	}

	var id int64
	if createImage != "" {
		f, err := os.Open(createImage)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		id, err = a.recipes.CreateWithImage(cmd.Context(), in, filepath.Base(createImage), f)
		if err != nil {
			return err
		}
	} else {
		id, err = a.recipes.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Created recipe %d.\n", id)
	return nil
}

func runRecipesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recipe id %q", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.recipes.Delete(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Printf("Deleted recipe %d.\n", id)
	return nil
}

func runRecipesUploadImage(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recipe id %q", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	if err := a.recipes.UploadImage(cmd.Context(), id, filepath.Base(args[1]), f); err != nil {
		return err
	}

	fmt.Printf("Image attached to recipe %d.\n", id)
	return nil
}

// parseIngredientSpecs parses repeatable "id:quantity[:unit]" flags.
func parseIngredientSpecs(specs []string) ([]recipe.IngredientInput, error) {
	out := make([]recipe.IngredientInput, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid ingredient %q, want id:quantity[:unit]", spec)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ingredient id in %q", spec)
		}
		qty, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", spec)
		}
		in := recipe.IngredientInput{IngredientID: id, Quantity: qty}
		if len(parts) == 3 && parts[2] != "" {
			unit := parts[2]
			in.Unit = &unit
		}
		out = append(out, in)
	}
	return out, nil
}
