package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account if it does not exist",
	Long: `Create an admin user. Flags override ADMIN_EMAIL, ADMIN_USERNAME and
ADMIN_PASSWORD from the environment or config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		c := &a.Config.Auth
		if adminEmail != "" {
			c.AdminEmail = adminEmail
		}
		if adminUsername != "" {
			c.AdminUsername = adminUsername
		}
		if adminPassword != "" {
			c.AdminPassword = adminPassword
		}
		if c.AdminEmail == "" || c.AdminPassword == "" {
			return fmt.Errorf("admin email and password are required")
		}

		created, err := a.Auth.EnsureAdmin(ctx, c.AdminEmail, c.AdminUsername, c.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created admin %s\n", c.AdminEmail)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s already exists\n", c.AdminEmail)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	seedAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
}
