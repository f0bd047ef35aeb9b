package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ccm/internal/config"
	"ccm/internal/logging"
	"ccm/internal/mcp"
	"ccm/internal/simulation"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ccm",
	Short: "CCM is a Monte Carlo cross-cause cost-effectiveness model",
	Long: `Estimates the cost-effectiveness of interventions across global health, animal welfare
and existential risk, and the value of research projects that redirect money between them.
Without a subcommand it serves the estimators as MCP tools over stdio.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("CCM starting")
	},
	RunE: serveMCP,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the estimators as MCP tools over stdio",
	RunE:  serveMCP,
}

func serveMCP(cmd *cobra.Command, args []string) error {
	service, err := simulation.NewService(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return mcp.NewServer(service, Version).Serve(ctx)
}

func Execute() error {
	return rootCmd.Execute()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(serveCmd)
}
