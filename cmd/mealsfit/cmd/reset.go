package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mealsfit/mealsfit-cli/internal/config"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored session and local cache",
	Long: `Reset the client to a clean state.

Removes the stored credentials and the offline cache database from the
state directory. The backend is not contacted; use "mealsfit logout" to
also revoke the token remotely.

Examples:
  # Interactive confirmation
  mealsfit reset

  # No prompting
  mealsfit reset --force`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if stateDirFlag != "" {
		cfg.StateDir = stateDirFlag
	}
	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return err
	}

	type target struct {
		path string
		desc string
	}
	credentials := config.CredentialsPath(stateDir)
	targets := []target{
		{credentials, "stored credentials"},
		{credentials + ".lock", "credentials lock file"},
		{config.CachePath(stateDir), "offline cache"},
	}

	// Check what actually exists.
	var existing []target
	for _, t := range targets {
		if _, err := os.Stat(t.path); err == nil {
			existing = append(existing, t)
		}
	}

	if len(existing) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to reset: no state files found.")
		return nil
	}

	fmt.Fprintln(os.Stderr, "The following will be removed:")
	for _, t := range existing {
		fmt.Fprintf(os.Stderr, "  - %s (%s)\n", t.path, t.desc)
	}

	if !resetForce {
		fmt.Fprint(os.Stderr, "\nProceed? [y/N] ")
		var answer string
		fmt.Scanln(&answer) //nolint:errcheck // interactive prompt, error irrelevant
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	var failures int
	for _, t := range existing {
		if err := os.Remove(t.path); err != nil {
			fmt.Fprintf(os.Stderr, "  ERROR removing %s: %v\n", t.path, err)
			failures++
		} else {
			fmt.Fprintf(os.Stderr, "  Removed %s\n", t.path)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d file(s) could not be removed", failures)
	}
	return nil
}
