package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/floatbank/floatbank/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "floatbank",
	Short: "floatbank - administration backend for the floating blood bank",
	Long:  `floatbank serves the REST API used to manage staff accounts and review the activity log.`,
	Example: `  # Prepare the database and create the first administrator
  floatbank migrate
  floatbank create-admin --name "Ada" --email ada@example.com --phone 0800 --password s3cretpass

  # Run the API server
  floatbank serve --port 8080`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "admin", Title: "Admin Commands:"},
		&cobra.Group{ID: "remote", Title: "Remote Commands:"},
	)

	serveCmd.GroupID = "server"
	migrateCmd.GroupID = "admin"
	createAdminCmd.GroupID = "admin"

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
