package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/signald/serverconf/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "serverconf",
	Short: "serverconf - Registry of messaging server configurations",
	Long:  `serverconf stores messaging server endpoint configurations and serves them to clients.`,
	Example: `  # Run the registry
  serverconf serve

  # Import definitions and inspect them
  serverconf server import './servers/**/*.yaml'
  serverconf server list
  serverconf server show 97c17f0c-e53b-426f-8ffa-95052d4e0a01

  # Issue a token for write access to the API
  serverconf token --subject deploy-bot`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "admin", Title: "Admin Commands:"},
	)

	serverCmd.GroupID = "server"

	serveCmd.GroupID = "admin"
	tokenCmd.GroupID = "admin"

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
