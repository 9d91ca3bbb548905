// Package cli implements the wifiradar command line: the service itself,
// one-shot scans, OUI registry maintenance, API keys and stored history.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/storage"
	"github.com/lcalzada-xor/wifiradar/internal/config"
	"github.com/lcalzada-xor/wifiradar/internal/logging"
)

// Build information, set from main.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// SetVersion records build information for --version and the API.
func SetVersion(v, c, bt string) {
	version, commit, buildTime = v, c, bt
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// env is the state shared by every subcommand once config is loaded.
type env struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	logs    io.Closer
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which kills any scanner subprocess still running.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "wifiradar",
		Short: "WiFi scan parsing, scoring and history service",
		Long: `wifiradar runs the host's wireless tools (iw, with iwlist as fallback),
turns their output into scored access point records and serves them over
HTTP, WebSocket and gRPC.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logs != nil {
				_ = e.logs.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.cfgFile, "config", "", "config file (default: ./wifiradar.yaml, ~/.wifiradar/wifiradar.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: json or text")
	pf.Bool("sudo", false, "run scanning tools through sudo -n")
	annotate(pf, "log-level", "logging.level")
	annotate(pf, "log-format", "logging.format")
	annotate(pf, "sudo", "scanner.use_sudo")

	root.AddCommand(
		newServeCmd(e),
		newScanCmd(e),
		newInterfacesCmd(e),
		newOUICmd(e),
		newAPIKeysCmd(e),
		newHistoryCmd(e),
	)
	return root
}

// load reads configuration and installs the default logger.
func (e *env) load(cmd *cobra.Command) error {
	e.v = config.New(e.cfgFile)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys, ok := f.Annotations[bindAnnotation]
		if !ok || len(keys) != 1 || !f.Changed || bindErr != nil {
			return
		}
		if err := e.v.BindPFlag(keys[0], f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(e.v)
	if err != nil {
		return err
	}
	if cmd.Name() != "serve" && cfg.Logging.Output == "stdout" {
		// keep stdout for command output
		cfg.Logging.Output = "stderr"
	}
	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	e.cfg, e.logger, e.logs = cfg, logger, closer
	return nil
}

// bindAnnotation maps a flag onto a config key. Only flags set on the
// command line override file and environment values.
const bindAnnotation = "wifiradar/config-key"

func annotate(fs *pflag.FlagSet, name, key string) {
	_ = fs.SetAnnotation(name, bindAnnotation, []string{key})
}

// openHistory opens the scan history database named by the config.
func (e *env) openHistory() (*storage.SQLiteAdapter, error) {
	if !e.cfg.Storage.Enabled {
		return nil, fmt.Errorf("scan history is disabled (storage.enabled=false)")
	}
	if err := os.MkdirAll(filepath.Dir(e.cfg.Storage.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return storage.NewSQLiteAdapter(e.cfg.Storage.Path)
}
