package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create a staff account that can review payments and approve vendors",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("username", "", "login name")
	createAdminCmd.Flags().String("email", "", "address for admin notifications")
	createAdminCmd.Flags().String("password", "", "initial password, at least 8 characters")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	auth := &service.AuthService{Repo: a.repo, Events: a.events}
	u, err := auth.CreateStaff(logging.IntoContext(cmd.Context(), a.log), service.SignupInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", u.Username, u.ID)
	return nil
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the product search index from the database",
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	catalog := a.catalog(ctx, nil)
	n, err := catalog.Reindex(logging.IntoContext(ctx, a.log))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products\n", n)
	return nil
}
