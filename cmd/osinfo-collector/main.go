package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-osinfo/cmd/osinfo-collector/assets"
	"github.com/go-tangra/go-tangra-osinfo/internal/config"
	"github.com/go-tangra/go-tangra-osinfo/internal/server"
	"github.com/go-tangra/go-tangra-osinfo/internal/store"
	"github.com/go-tangra/go-tangra-osinfo/internal/winsvc"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var (
	cfgFile   string
	logLevel  string
	purgeDays int

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "osinfo-collector",
	Short: "OS Info Collector - stores operating-system inventories pushed by agents",
	Long: `OS Info Collector receives inventories from osinfo agents over HTTP and
stores them in a local SQLite database. It also parses raw Windows
systeminfo output on request and serves a gRPC health endpoint.

Run without a subcommand to start the daemon (equivalent to 'serve').`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collector daemon",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("osinfo-collector %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge inventories older than the specified number of days",
	RunE:  runPurge,
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage Windows service installation",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install as a Windows service",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the Windows service",
	RunE: func(*cobra.Command, []string) error {
		return winsvc.Uninstall(winsvc.Collector.Name, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/osinfo.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("listen", "", "gRPC listen address (default :9550)")
	rootCmd.PersistentFlags().String("http-listen", "", "HTTP listen address (default :9551)")
	rootCmd.PersistentFlags().String("database", "", "SQLite database path (default osinfo.db)")
	rootCmd.PersistentFlags().String("client-secret", "", "secret for gRPC callers (empty = no auth)")
	rootCmd.PersistentFlags().String("api-secret", "", "secret for HTTP API clients (empty = no auth)")

	purgeCmd.Flags().IntVar(&purgeDays, "days", 90, "purge inventories older than this many days")

	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd)
	rootCmd.AddCommand(serveCmd, versionCmd, purgeCmd, serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for flag, dst := range map[string]*string{
		"listen":        &cfg.Listen,
		"http-listen":   &cfg.HTTPListen,
		"database":      &cfg.DatabasePath,
		"client-secret": &cfg.ClientSecret,
		"api-secret":    &cfg.ApiSecret,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if winsvc.IsWindowsService() {
		winsvc.SetupEventLog(winsvc.Collector.Name, log)
		return winsvc.RunService(winsvc.Collector.Name, log, func(ctx context.Context) error {
			return server.Run(ctx, cfg, assets.OpenApiData, log)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg, assets.OpenApiData, log)
}

func runServiceInstall(*cobra.Command, []string) error {
	exePath, err := winsvc.ExePath()
	if err != nil {
		return err
	}

	svc := winsvc.Collector
	if cfgFile != "" {
		svc.Args = append(append([]string{}, svc.Args...), "--config", cfgFile)
	}
	return winsvc.Install(svc, exePath, log)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := db.Purge(context.Background(), time.Duration(purgeDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Printf("Purged %d inventories older than %d days\n", n, purgeDays)
	return nil
}
