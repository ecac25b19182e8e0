package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/amo-inventory/internal/cli"
	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/config"
)

var version = "dev"

// rootOptions is shared by every command. Each root command owns its own
// viper instance so tests can build independent trees.
type rootOptions struct {
	v       *viper.Viper
	cfg     *config.Config
	now     func() time.Time
	cfgFile string
	envFile string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&rootOptions{v: viper.New(), now: time.Now})
}

func buildRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "amo",
		Short: "📦 AMO inventory and demand forecasting client",
		Long: `amo talks to the AMO inventory backend: it manages products, categories and
transactions, forecasts demand per SKU and summarises stock, sales and expiry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: $HOME/.config/amo/config.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("api-url", config.DefaultBaseURL, "backend base URL")
	flags.String("storage", "sqlite", "local state backend (sqlite, pebble, redis, memory)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while the command runs")

	_ = opts.v.BindPFlag("api.base_url", flags.Lookup("api-url"))
	_ = opts.v.BindPFlag("storage.backend", flags.Lookup("storage"))
	_ = opts.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = opts.v.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))

	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(logoutCmd(opts))
	rootCmd.AddCommand(whoamiCmd(opts))
	rootCmd.AddCommand(registerCmd(opts))
	rootCmd.AddCommand(inventoryCmd(opts))
	rootCmd.AddCommand(transactionsCmd(opts))
	rootCmd.AddCommand(categoriesCmd(opts))
	rootCmd.AddCommand(forecastCmd(opts))
	rootCmd.AddCommand(overviewCmd(opts))
	rootCmd.AddCommand(expiryCmd(opts))
	rootCmd.AddCommand(cacheCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(describeError(err)))
		os.Exit(1)
	}
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return err
	}

	config.SetDefaults(o.v)
	config.BindEnv(o.v)

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		o.v.AddConfigPath(config.Dir())
		o.v.AddConfigPath(".")
		o.v.SetConfigName("config")
		o.v.SetConfigType("yaml")
	}

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	cfg, err := config.Load(o.v)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if err := setupLogging(cmd.ErrOrStderr(), cfg.Logging); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if used := o.v.ConfigFileUsed(); used != "" {
		slog.Debug("Loaded config file", "path", filepath.Clean(used))
	}
	return nil
}

func setupLogging(w io.Writer, cfg config.LoggingConfig) error {
	level, err := common.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	return common.SetupLogger(w, level, cfg.Format)
}

// describeError turns errors into something actionable for the user.
func describeError(err error) string {
	var userErr *common.UserError
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return err.Error() + " (run `amo login`)"
	case errors.As(err, &userErr):
		return userErr.UserMessage
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "amo version %s\n", version)
			return err
		},
	}
}
