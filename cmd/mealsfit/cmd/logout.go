package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Sign out of the MealsFit backend.

The backend is notified best-effort; the local session is cleared even
when the backend cannot be reached or the token has already expired.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.auth.Logout(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}
