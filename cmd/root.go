package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pgpillar/magnetrelay/config"
	"github.com/pgpillar/magnetrelay/notify"
	"github.com/pgpillar/magnetrelay/relay"
	"github.com/pgpillar/magnetrelay/secrets"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	store   secrets.Store
	handler *relay.Handler

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "magnetrelay",
	Short: "Relay magnet links to a remote torrent client",
	Long: `magnetrelay forwards magnet links to a remote torrent daemon over HTTP.

It speaks five client dialects (qBittorrent, Transmission, Deluge, rTorrent,
Synology Download Station) and keeps the daemon password in the OS keychain
rather than the config file.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion records build metadata injected by the linker.
func SetVersion(v, t string) {
	version = v
	buildTime = t
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, t)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// initializeApp initializes the configuration, logger and relay handler
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	store = secrets.Keyring{}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.Enabled {
		notifier = notify.NewShoutrrr(cfg.Notify.URLs, logger)
	}

	// Each operation gets the snapshot that was current when it started.
	serverCfg := cfg.Server
	handler = relay.New(
		func() (config.ServerConfig, error) { return serverCfg, nil },
		store,
		notifier,
		logger,
	)

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
