package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ietf-tools/datatracker/internal/auth"
	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/store"
)

var (
	createUserConfig string
	createUserEmail  string
	createUserName   string
	createUserStaff  bool
)

// promptPassword reads the new account's password. Tests replace it.
var promptPassword = auth.PromptAndConfirmPassword

var createUserCmd = &cobra.Command{
	Use:   "createuser <username>",
	Short: "Create a user account",
	Long: `Create a user account. The password is read from the terminal.

Example:
  datatracker createuser rjs --email rjs@example.com --name "R. J. Sparks"
  datatracker createuser secretary --email secretary@ietf.org --staff`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateUser,
}

func init() {
	createUserCmd.Flags().StringVarP(&createUserConfig, "config", "c", "", "settings file (defaults are used when omitted)")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&createUserName, "name", "", "full name")
	createUserCmd.Flags().BoolVar(&createUserStaff, "staff", false, "grant Secretariat access")
	createUserCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	username := args[0]

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := config.LoadSettings(createUserConfig)
	if err != nil {
		return err
	}

	password, err := promptPassword(username)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, settings.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	user := &store.User{
		Username:     username,
		Email:        createUserEmail,
		Name:         createUserName,
		PasswordHash: hash,
		IsStaff:      createUserStaff,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}

	kind := "user"
	if user.IsStaff {
		kind = "staff user"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (id %d)\n", kind, user.Username, user.ID)
	return nil
}
