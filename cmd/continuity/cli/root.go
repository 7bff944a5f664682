package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/continuity/internal/config"
	"github.com/felixgeelhaar/continuity/internal/journal"
	"github.com/felixgeelhaar/continuity/internal/observe"
	"github.com/felixgeelhaar/continuity/internal/service"
	"github.com/felixgeelhaar/continuity/internal/store"
)

var (
	configPath string
	stateDir   string
	verbose    bool
	jsonLogs   bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "continuity",
	Short: "Project state persistence for AI conversations",
	Long: `Continuity keeps project working state (focus, decisions, files, plans)
in versioned JSON files and serves it to MCP clients, so a new conversation
can pick up where the last one stopped.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	RootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Override the state directory")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Emit logs as JSON")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newObserver builds the process logger. Logs always go to stderr: when
// serving MCP, stdout carries the protocol.
func newObserver(cfg config.Config) *observe.Observer {
	if jsonLogs {
		return observe.NewJSON(os.Stderr, cfg.LogLevel)
	}
	return observe.New(os.Stderr, cfg.LogLevel)
}

// newService wires store, journal and observer for one invocation. The
// returned cleanup closes the journal and must run on shutdown.
func newService(cfg config.Config, obs *observe.Observer) (*service.Service, func(), error) {
	st, err := store.New(cfg.StateDir, cfg.BackupCount)
	if err != nil {
		return nil, nil, err
	}

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		// State persistence works without the audit journal.
		obs.Log().Warn().Err(err).Msg("journal disabled")
		j = nil
	}

	cleanup := func() {
		if err := j.Close(); err != nil {
			obs.Log().Warn().Err(err).Msg("journal close failed")
		}
	}
	return service.New(st, j, obs, cfg.SimilarityThreshold), cleanup, nil
}
