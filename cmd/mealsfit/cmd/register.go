package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mealsfit/mealsfit-cli/internal/service"
)

var (
	registerName      string
	registerEmail     string
	registerPassword  string
	registerPassword2 string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a MealsFit account.

The account is created but not signed in; run "mealsfit login" afterwards.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password (min 8 characters)")
	registerCmd.Flags().StringVar(&registerPassword2, "password-confirmation", "", "repeat the password")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")
	_ = registerCmd.MarkFlagRequired("password-confirmation")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	in := service.RegisterInput{
		Name:                 registerName,
		Email:                registerEmail,
		Password:             registerPassword,
		PasswordConfirmation: registerPassword2,
	}
	if err := a.auth.Register(cmd.Context(), in); err != nil {
		return err
	}

	fmt.Println("Account created. Sign in with \"mealsfit login\".")
	return nil
}
