// Command mealsfit is the MealsFit recipe-tracking client.
package main

import "github.com/mealsfit/mealsfit-cli/cmd/mealsfit/cmd"

func main() {
	cmd.Execute()
}
