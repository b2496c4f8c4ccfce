package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/config"
	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
	"github.com/go-tangra/go-tangra-osinfo/internal/daemon"
	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
	"github.com/go-tangra/go-tangra-osinfo/internal/sender"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
	"github.com/go-tangra/go-tangra-osinfo/internal/winsvc"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var (
	cfgFile    string
	logLevel   string
	outputFile string
	format     string

	sshTarget   string
	sshFamily   string
	sshKey      string
	sshInsecure bool

	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "osinfo",
	Short: "osinfo - operating-system facts for Windows, macOS, Linux and Android",
	Long: `osinfo reports the operating system a host runs: name, version, kernel
and build, plus the full Windows systeminfo report on Windows.

It can print the facts locally or for a Linux or macOS host reached over
SSH, parse saved systeminfo output, or push inventories to an
osinfo-collector.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and print the local inventory",
	RunE:  runCollect,
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse saved systeminfo output (stdin when no file or -)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Collect the local inventory and submit it to the collector",
	RunE:  runPush,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Push on an interval and on refresh requests from the collector",
	RunE:  runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("osinfo %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage Windows service installation",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the agent daemon as a Windows service",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the agent Windows service",
	RunE: func(*cobra.Command, []string) error {
		return winsvc.Uninstall(winsvc.Agent.Name, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./osinfo.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("server", "", "collector HTTP endpoint, e.g. http://collector:9551")
	rootCmd.PersistentFlags().String("api-secret", "", "X-API-Key sent to the collector")

	for _, c := range []*cobra.Command{collectCmd, parseCmd} {
		c.Flags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
		c.Flags().StringVar(&format, "format", formatJSON, "output format: json or yaml")
	}
	for _, c := range []*cobra.Command{collectCmd, pushCmd} {
		c.Flags().StringVar(&sshTarget, "ssh", "", "collect from user@host[:port] over SSH instead of the local host")
		c.Flags().StringVar(&sshFamily, "ssh-family", string(platform.Linux), "family of the SSH host: linux or darwin")
		c.Flags().StringVar(&sshKey, "ssh-key", "", "private key file for --ssh")
		c.Flags().BoolVar(&sshInsecure, "ssh-insecure", false, "skip known_hosts verification for --ssh")
	}

	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd)
	rootCmd.AddCommand(collectCmd, parseCmd, pushCmd, daemonCmd, versionCmd, serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and configures the
// logger. Logs go to stderr so stdout stays machine-readable.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.Server = v
	}
	if v, _ := cmd.Flags().GetString("api-secret"); v != "" {
		cfg.ApiSecret = v
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	return nil
}

func newCollector() *collector.Collector {
	return collector.New(runner.NewExec(log, cfg.CommandTimeout), log)
}

// inventoryCollector returns the local collector, or one bound to the
// --ssh host. The returned func releases the SSH connection.
func inventoryCollector(ctx context.Context) (*collector.Collector, func(), error) {
	if sshTarget == "" {
		return newCollector(), func() {}, nil
	}

	target, err := runner.ParseTarget(sshTarget)
	if err != nil {
		return nil, nil, err
	}
	remote, err := runner.DialSSH(ctx, target, runner.SSHOptions{
		KeyFile:  sshKey,
		Insecure: sshInsecure,
		Timeout:  cfg.CommandTimeout,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := remote.Close(); err != nil {
			log.WithError(err).Debug("Closing SSH connection")
		}
	}

	c, err := collector.NewRemote(platform.Family(sshFamily), remote, log)
	if err != nil {
		release()
		return nil, nil, err
	}
	log.WithField("target", target.String()).Info("Collecting over SSH")
	return c, release, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func output() (io.Writer, func() error, error) {
	if outputFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func emit(v any) error {
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := writeOutput(w, format, v); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if outputFile != "" {
		log.Infof("Output written to %s", outputFile)
	}
	return nil
}

func runCollect(*cobra.Command, []string) error {
	ctx, stop := signalContext()
	defer stop()

	c, release, err := inventoryCollector(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv, err := c.Collect(ctx)
	if err != nil {
		log.WithError(err).Warn("Inventory is incomplete")
	}
	return emit(inv)
}

func runParse(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open systeminfo output: %w", err)
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read systeminfo output: %w", err)
	}

	info, err := systeminfo.Parse(systeminfo.Decode(raw))
	if err != nil {
		return err
	}

	reply := convert.ParseReply{SystemInfo: info}
	if edition, err := info.Edition(); err == nil {
		reply.Edition = edition
	} else {
		log.WithError(err).Debug("Edition not recognized")
	}
	return emit(reply)
}

func newSender(ctx context.Context) (*sender.Client, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("no collector configured: set --server or server in osinfo.yaml")
	}
	return sender.New(ctx, cfg.Server, cfg.ApiSecret, log)
}

func runPush(*cobra.Command, []string) error {
	ctx, stop := signalContext()
	defer stop()

	client, err := newSender(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	c, release, err := inventoryCollector(ctx)
	if err != nil {
		return err
	}
	defer release()

	inv, err := c.Collect(ctx)
	if err != nil {
		log.WithError(err).Warn("Inventory is incomplete")
	}

	reply, err := client.Send(ctx, inv)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"id": reply.ID, "server": cfg.Server}).Info("Inventory submitted")
	fmt.Println(reply.ID)
	return nil
}

func runDaemon(*cobra.Command, []string) error {
	run := func(ctx context.Context) error {
		client, err := newSender(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("hostname: %w", err)
		}

		return daemon.Run(ctx, daemon.Config{
			ClientID:     hostname,
			Version:      version,
			PushInterval: cfg.PushInterval,
		}, newCollector(), client, log)
	}

	if winsvc.IsWindowsService() {
		winsvc.SetupEventLog(winsvc.Agent.Name, log)
		return winsvc.RunService(winsvc.Agent.Name, log, run)
	}

	ctx, stop := signalContext()
	defer stop()
	return run(ctx)
}

func runServiceInstall(*cobra.Command, []string) error {
	exePath, err := winsvc.ExePath()
	if err != nil {
		return err
	}

	svc := winsvc.Agent
	if cfgFile != "" {
		svc.Args = append(append([]string{}, svc.Args...), "--config", cfgFile)
	}
	return winsvc.Install(svc, exePath, log)
}
