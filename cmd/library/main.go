// Command library runs the library console over an in-memory catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/and161185/library-keeper/internal/config"
	"github.com/and161185/library-keeper/internal/console"
	"github.com/and161185/library-keeper/internal/crypto"
	"github.com/and161185/library-keeper/internal/limiter"
	"github.com/and161185/library-keeper/internal/metrics"
	"github.com/and161185/library-keeper/internal/repository/memory"
	"github.com/and161185/library-keeper/internal/seed"
	"github.com/and161185/library-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envFile    string
	seedPath   string
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:          "library",
		Short:        "Library management console",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file with LIBRARY_* overrides")
	root.PersistentFlags().StringVar(&opts.seedPath, "seed", "", "YAML seed file with persons and items")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive console (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runShell(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "library %s (built %s)\n", version, buildDate)
			},
		},
	)
	return root
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return config.Config{}, err
	}
	if opts.seedPath != "" {
		cfg.SeedFile = opts.seedPath
	}
	return cfg, nil
}

// runShell loads configuration, wires the services, applies the seed file and
// runs the console until exit, end of input or a termination signal.
func runShell(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	if cfg.SeedFile != "" {
		f, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, a.lib, f, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	copts := []console.Option{
		console.WithLogger(logger),
		console.WithMetrics(a.metrics),
		console.WithClient(clientID()),
	}
	if f, ok := in.(*os.File); ok {
		if r, ok := console.TerminalSecret(f, out); ok {
			copts = append(copts, console.WithSecretReader(r))
		}
	}
	con := console.New(a.lib, a.auth, in, out, copts...)

	// Run blocks on input; a signal ends the shell without waiting for a line.
	done := make(chan error, 1)
	go func() { done <- con.Run(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(out)
		logger.Info("shutdown")
		return nil
	}
}

type app struct {
	lib     *service.LibraryServiceImpl
	auth    *service.AuthServiceImpl
	metrics *metrics.Collector
}

func newApp(cfg config.Config, logger *zap.Logger) *app {
	db := memory.New()
	m := metrics.NewCollector(cfg.MetricsNamespace)

	lib := service.NewLibraryService(
		memory.NewPersonRepo(db),
		memory.NewItemRepo(db),
		memory.NewLoanRepo(db),
		crypto.NewArgon2id(cfg.HashParams()),
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithLoanDays(cfg.LoanDays),
		service.WithSubscriptionTerm(cfg.SubscriptionTerm()),
	)
	lim := limiter.NewMemory(cfg.Limiter.Window, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)

	return &app{
		lib:     lib,
		auth:    service.NewAuthService(lib, lim, logger, m),
		metrics: m,
	}
}

func newLogger(c config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if c.Dev {
		zcfg = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		lvl, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return "console@" + host
}
