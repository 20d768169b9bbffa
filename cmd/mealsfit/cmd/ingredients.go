package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingredientsCmd = &cobra.Command{
	Use:   "ingredients",
	Short: "List the ingredient catalog",
	Long: `List the ingredient catalog used when composing recipes.

The IDs shown here are the ones "recipes create --ingredient" expects.`,
	RunE: runIngredients,
}

func init() {
	rootCmd.AddCommand(ingredientsCmd)
}

func runIngredients(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	options, err := a.ingredients.List(cmd.Context())
	if err != nil {
		return err
	}

	for _, opt := range options {
		unit := opt.UnitShort
		if unit == "" {
			unit = opt.Unit
		}
		if unit != "" {
			fmt.Printf("%6d  %s (%s)\n", opt.ID, opt.Name, unit)
		} else {
			fmt.Printf("%6d  %s\n", opt.ID, opt.Name)
		}
	}
	return nil
}
