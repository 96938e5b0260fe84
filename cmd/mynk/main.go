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

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/mynk/mynk/internal/client/config"
	"github.com/mynk/mynk/internal/client/sync"
	"github.com/mynk/mynk/internal/utils"
	"github.com/mynk/mynk/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitPartially = 2

	configFileName = "config"
	envPrefix      = "MYNK"
)

var (
	home, _ = os.UserHomeDir()

	// set by the root command before any subcommand runs
	cfg = config.Default()

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "mynk",
	Short:         "Synchronize a directory with a mynk remote",
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		logCloser = setupLogging(cfg, os.Stderr)
		return nil
	},
	// -I/--init and -S/--sync are kept as shorthands for the subcommands
	RunE: func(cmd *cobra.Command, args []string) error {
		initURI, _ := cmd.Flags().GetString("init")
		runSyncFlag, _ := cmd.Flags().GetBool("sync")

		switch {
		case initURI != "":
			return runInit(cmd, initURI)
		case runSyncFlag:
			return runSync(cmd)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("init", "I", "", "initialize the current directory against this remote URI, then sync")
	rootCmd.Flags().BoolP("sync", "S", false, "run one sync round")
	rootCmd.MarkFlagsMutuallyExclusive("init", "sync")

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "mynk config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", config.DefaultLogFilePath, "log file, empty to disable")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "timeout of the exchange with the remote")
}

func main() {
	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red.Render("ERROR"), err)
	}

	if logCloser != nil {
		logCloser.Close()
	}

	os.Exit(exitCode(err))
}

// exitCode maps a round outcome onto the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, sync.ErrPartiallyApplied):
		return exitPartially
	default:
		return exitFailure
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	// config path
	if flag := cmd.Flag("config"); flag != nil && flag.Changed {
		v.SetConfigFile(flag.Value.String())
	} else {
		v.AddConfigPath(filepath.Join(home, ".mynk"))
		v.AddConfigPath(filepath.Join(home, ".config", "mynk"))
		v.SetConfigName(configFileName)
		v.SetConfigType("json")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	// Bind flags to viper
	flags := cmd.Flags()
	v.BindPFlag("verbose", flags.Lookup("verbose"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_file", flags.Lookup("log-file"))
	v.BindPFlag("timeout", flags.Lookup("timeout"))

	v.SetDefault("log_level", config.DefaultLogLevel)
	v.SetDefault("log_file", config.DefaultLogFilePath)
	v.SetDefault("timeout", config.DefaultTimeout)

	// Set up environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	loaded := &config.Config{
		LogLevel: v.GetString("log_level"),
		LogFile:  v.GetString("log_file"),
		Timeout:  v.GetDuration("timeout"),
		Verbose:  v.GetBool("verbose"),
		Path:     v.ConfigFileUsed(),
	}
	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// setupLogging installs the console handler and, when a log file is configured, a
// rotating file handler next to it. The returned closer flushes the file.
func setupLogging(cfg *config.Config, console *os.File) io.Closer {
	level := cfg.Level()

	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(console.Fd()),
	})

	if cfg.LogFile == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return nil
	}

	if err := utils.EnsureParent(cfg.LogFile); err != nil {
		slog.SetDefault(slog.New(consoleHandler))
		slog.Warn("log file disabled", "path", cfg.LogFile, "error", err)
		return nil
	}

	logWriter := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	// the file always gets debug, the console only what was asked for
	fileHandler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(consoleHandler, fileHandler)))
	return logWriter
}
