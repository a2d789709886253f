package main

import (
	"fmt"
	"log/slog"

	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/db"
	"github.com/floatbank/floatbank/internal/logger"
	"github.com/floatbank/floatbank/internal/rbac"
	"github.com/floatbank/floatbank/internal/server"
	"github.com/spf13/cobra"
)

var adminSeed db.AdminSeed

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a user with the admin role",
	Long: `Create a user with the admin role.

Flags left empty fall back to ADMIN_NAME, ADMIN_EMAIL, ADMIN_PHONE and ADMIN_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := mergeSeed(adminSeed, db.AdminSeedFromEnv())
		if seed.Email == "" || seed.Password == "" {
			return fmt.Errorf("email and password are required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Init(cfg.Log.Format, cfg.Log.Level)

		database, err := server.OpenDatabase(cfg)
		if err != nil {
			return err
		}
		enforcer, err := rbac.NewEnforcer(database, slog.Default())
		if err != nil {
			return err
		}

		user, err := db.CreateAdmin(database, enforcer, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminSeed.Name, "name", "", "Display name")
	createAdminCmd.Flags().StringVar(&adminSeed.Email, "email", "", "Login email")
	createAdminCmd.Flags().StringVar(&adminSeed.Phone, "phone", "", "Phone number")
	createAdminCmd.Flags().StringVar(&adminSeed.Password, "password", "", "Password")
}

// mergeSeed fills the empty fields of flags from env
func mergeSeed(flags, env db.AdminSeed) db.AdminSeed {
	if flags.Name == "" {
		flags.Name = env.Name
	}
	if flags.Email == "" {
		flags.Email = env.Email
	}
	if flags.Phone == "" {
		flags.Phone = env.Phone
	}
	if flags.Password == "" {
		flags.Password = env.Password
	}
	return flags
}
