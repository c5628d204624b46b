// Command genoportal runs the genomics portal web server and offers a
// command line search over the same database.
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/genoportal/internal/config"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool

	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "genoportal",
	Short: "Genomics portal for genes, differential expression, CREs and TFs",
	Long: `genoportal serves the search forms, result tables, CSV downloads and
plot data of the genomics portal.

Configuration is read from the environment (GENOPORTAL_ prefix) and an
optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Observability.Logging.Level = "debug"
		}

		loggerService = logger.NewLoggerService(cfg.Observability)
		log = logger.NewLoggerWithService(cfg.Observability, loggerService)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if loggerService != nil {
			loggerService.Shutdown()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
