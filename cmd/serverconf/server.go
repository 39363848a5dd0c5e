package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/cache"
	"github.com/signald/serverconf/internal/config"
	"github.com/signald/serverconf/internal/db"
	"github.com/signald/serverconf/internal/logger"
	"github.com/signald/serverconf/internal/protocol"
	"github.com/signald/serverconf/internal/serverfile"
	"github.com/signald/serverconf/internal/service"
	"github.com/spf13/cobra"
)

var serverOutput string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage stored server configurations",
	Long: `Manage the server configurations in the configured database.

These commands talk to the database directly and do not need a running
serverconf API.`,
}

var serverListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored servers",
	Args:    cobra.NoArgs,
	RunE:    runServerList,
}

var serverShowCmd = &cobra.Command{
	Use:   "show <uuid>",
	Short: "Show a stored server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServerShow,
}

var serverAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add the servers defined in a file",
	Long: `Adds every server defined in a JSON, YAML or TOML file.

A definition without a uuid gets a random one. Adding a uuid that already
exists is an error.

Example:
  serverconf server add ./staging.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runServerAdd,
}

var serverImportCmd = &cobra.Command{
	Use:   "import <glob>...",
	Short: "Import server definition files",
	Long: `Imports the servers defined in every file matching the given patterns.

Patterns support ** for recursive matching. Every definition must carry a
uuid; servers that already exist are skipped, so importing twice is safe.

Example:
  serverconf server import './servers/**/*.yaml' ./extra.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServerImport,
}

var serverRemoveCmd = &cobra.Command{
	Use:     "remove <uuid>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored server",
	Args:    cobra.ExactArgs(1),
	RunE:    runServerRemove,
}

func init() {
	serverCmd.PersistentFlags().StringVarP(&serverOutput, "output", "o", "", "Output format: table or json (default: table on a terminal, json otherwise)")

	serverCmd.AddCommand(serverListCmd)
	serverCmd.AddCommand(serverShowCmd)
	serverCmd.AddCommand(serverAddCmd)
	serverCmd.AddCommand(serverImportCmd)
	serverCmd.AddCommand(serverRemoveCmd)
}

// openService connects to the configured database and returns a service
// along with a cleanup function.
func openService() (*service.ServerService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	// Keep stdout clean for command output
	slog.SetDefault(logger.New(os.Stderr, cfg.Log.Format, "warn"))
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "error"
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database); err != nil {
		return nil, nil, err
	}

	serverCache, err := cache.New(cliCacheConfig(cfg.Cache))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		serverCache.Close()
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return service.New(database, serverCache, nil), cleanup, nil
}

// cliCacheConfig keeps only a shared cache. A process-local cache here would
// neither serve reads later nor evict entries held by the running API.
func cliCacheConfig(cfg config.CacheConfig) config.CacheConfig {
	if cfg.Type != "valkey" {
		cfg.Type = "none"
	}
	return cfg
}

func parseUUIDArg(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q", arg)
	}
	return id, nil
}

func runServerList(cmd *cobra.Command, args []string) error {
	format, err := resolveOutput(serverOutput, isTerminal())
	if err != nil {
		return err
	}

	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	servers, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == outputJSON {
		if servers == nil {
			servers = []protocol.ServerConfig{}
		}
		return writeJSON(out, servers)
	}
	if len(servers) == 0 {
		fmt.Fprintln(out, "No servers stored")
		fmt.Fprintln(out, "\nUse 'serverconf server add <file>' to add one.")
		return nil
	}
	return writeServerTable(out, servers)
}

func runServerShow(cmd *cobra.Command, args []string) error {
	format, err := resolveOutput(serverOutput, isTerminal())
	if err != nil {
		return err
	}
	id, err := parseUUIDArg(args[0])
	if err != nil {
		return err
	}

	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := svc.Get(cmd.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("server %s not found", id)
	}
	if err != nil {
		return err
	}

	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), server)
	}
	return writeServerDetail(cmd.OutOrStdout(), *server)
}

func runServerAdd(cmd *cobra.Command, args []string) error {
	servers, err := serverfile.LoadFile(args[0])
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("%s defines no servers", args[0])
	}

	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	for _, s := range servers {
		created, err := svc.Create(cmd.Context(), s, service.ActorCLI)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added server %s (%s)\n", created.UUID, created.ServiceURL)
	}
	return nil
}

func runServerImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	paths, err := serverfile.Glob(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %v", args)
	}
	defs, err := serverfile.LoadAll(ctx, paths)
	if err != nil {
		return err
	}

	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.Import(ctx, defs, service.ActorCLI)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d server(s) from %d file(s), %d already present\n",
		len(result.Created), len(paths), len(result.Skipped))
	return nil
}

func runServerRemove(cmd *cobra.Command, args []string) error {
	id, err := parseUUIDArg(args[0])
	if err != nil {
		return err
	}

	svc, cleanup, err := openService()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Delete(cmd.Context(), id, service.ActorCLI); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("server %s not found", id)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed server %s\n", id)
	return nil
}
