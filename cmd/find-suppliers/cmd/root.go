// Package cmd provides the CLI commands for find-suppliers.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/app"
	"github.com/lucasfdcampos/find-suppliers/internal/cache"
	"github.com/lucasfdcampos/find-suppliers/internal/config"
	"github.com/lucasfdcampos/find-suppliers/internal/logging"
)

const version = "0.1.0"

var (
	envFile string
	verbose bool
	noCache bool

	cfg      config.Config
	logger   = zap.NewNop()
	services *app.Services
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "find-suppliers",
	Short: "Find suppliers and compare landed costs",
	Long: `find-suppliers busca fornecedores na web e compara o custo total de
aquisição (produto + ICMS + PIS + COFINS + frete) até o destino.

Examples:
  find-suppliers search "máquina de solda" --scope local
  find-suppliers compare "Fornecedor A:SP:50000" "Fornecedor B:RS:50000" --dest RS
  find-suppliers cnpj 11.222.333/0001-81
  find-suppliers distance "São Paulo, SP" "Porto Alegre, RS"`,
	SilenceUsage: true,
	PersistentPostRun: func(*cobra.Command, []string) {
		if services != nil {
			_ = services.Close()
			services = nil
		}
		_ = logger.Sync()
	},
}

// Execute runs the CLI; Ctrl+C cancels the running lookups.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "arquivo .env com as chaves de API")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "não usar o cache Redis")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(acquisitionCmd)
	rootCmd.AddCommand(cnpjCmd)
	rootCmd.AddCommand(distanceCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = "warn"
	if verbose {
		logCfg.Level = "debug"
	}
	logger = logging.MustNew(logCfg)
}

// wire builds the collaborators on first use, so that version and help do
// not touch Redis.
func wire(ctx context.Context) *app.Services {
	if services == nil {
		var rc *cache.Client
		if !noCache {
			rc = app.OpenCache(ctx, cfg, logger)
		}
		services = app.New(cfg, rc, logger)
	}
	return services
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "find-suppliers version %s\n", version)
	},
}
