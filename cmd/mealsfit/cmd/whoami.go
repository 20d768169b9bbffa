package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiRemote bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Long: `Show who is signed in.

By default the locally stored identity is shown. With --remote the
identity is fetched from the backend, verifying that the stored token is
still accepted.`,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Verify the session against the backend")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	user, err := a.currentUser()
	if err != nil {
		return err
	}

	if whoamiRemote {
		user, err = a.auth.Me(cmd.Context())
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}
