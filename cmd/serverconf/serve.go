package main

import (
	"fmt"
	"os"

	"github.com/signald/serverconf/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

// @title serverconf API
// @version 1.0
// @description Registry of messaging server configurations
// @host localhost:8460
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the serverconf API",
	Long: `Start the serverconf HTTP API.

Examples:
  serverconf serve                 # Use port from config (default: 8460)
  serverconf serve --port 8080     # Override port

Environment variables:
  SERVERCONF_SERVER_PORT         Server port (default: 8460)
  SERVERCONF_DATABASE_DRIVER     Database driver: sqlite, postgres
  SERVERCONF_DATABASE_DSN        Database connection string
  SERVERCONF_CACHE_TYPE          Cache type: none, memory, valkey
  SERVERCONF_CACHE_VALKEY_ADDR   Valkey address
  SERVERCONF_AUTH_TYPE           Auth type for write endpoints: jwt, none
  SERVERCONF_AUTH_JWT_SECRET     Secret the token signing key is derived from`,
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
