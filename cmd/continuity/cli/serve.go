package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/continuity/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Serve exposes the project-state tools to an MCP client over
stdin/stdout. Logs go to stderr so they never corrupt the protocol stream.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail(err)
		}
		obs := newObserver(cfg)
		defer obs.Close()

		svc, cleanup, err := newService(cfg, obs)
		if err != nil {
			obs.Log().Fatal().Err(err).Msg("failed to init state service")
		}
		defer cleanup()

		obs.Log().Info().
			Str("state_dir", cfg.StateDir).
			Int("backups", cfg.BackupCount).
			Msg("serving MCP over stdio")

		if err := server.ServeStdio(server.New(svc)); err != nil {
			obs.Log().Fatal().Err(err).Msg("server stopped")
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("continuity " + server.Version)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(versionCmd)
}
