package main

import (
	"fmt"
	"os"

	"github.com/floatbank/floatbank/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

// @title floatbank API
// @version 1.0
// @description Staff accounts, authentication and activity log for the floating blood bank
// @host localhost:8460
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the floatbank API server",
	Long: `Start the floatbank API server.

Examples:
  floatbank serve               # Run with config defaults
  floatbank serve --port 8080   # Override port

Environment variables:
  FLOATBANK_SERVER_PORT         Server port (default: 8460)
  FLOATBANK_DATABASE_DRIVER     Database driver: sqlite, postgres
  FLOATBANK_DATABASE_DSN        Database connection string
  FLOATBANK_AUTH_JWT_SECRET     JWT signing secret
  FLOATBANK_AUTH_DENYLIST       Token denylist: database, valkey
  ADMIN_EMAIL                   Bootstrap admin email
  ADMIN_PASSWORD                Bootstrap admin password`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
