package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/mynk/mynk/internal/server"
	"github.com/mynk/mynk/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mynk-server",
		Short:        "Reference sync endpoint for mynk clients",
		Version:      version.Detailed(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	cmd.Flags().StringP("cert", "c", "", "Path to the certificate file")
	cmd.Flags().StringP("key", "k", "", "Path to the key file")
	cmd.Flags().StringP("data-dir", "d", server.DefaultDataDir, "Directory for the file index and stored contents")
	cmd.Flags().String("rate", server.DefaultRateLimit, "Per-client rate limit on /sync, e.g. 50-S. Empty disables it")
	cmd.Flags().Bool("debug", false, "Enable debug logging")

	return cmd
}

func main() {
	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig merges flags with MYNK_SERVER_* environment variables. Flags win.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MYNK_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, binding := range []struct{ key, flag string }{
		{"http.addr", "bind"},
		{"http.cert_file", "cert"},
		{"http.key_file", "key"},
		{"data_dir", "data-dir"},
		{"rate_limit", "rate"},
		{"debug", "debug"},
	} {
		if err := v.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			return nil, err
		}
	}

	setupLogger(v.GetBool("debug"))

	cfg := &server.Config{
		HTTP: server.HttpServerConfig{
			Addr:     v.GetString("http.addr"),
			CertFile: v.GetString("http.cert_file"),
			KeyFile:  v.GetString("http.key_file"),
		},
		DataDir:   v.GetString("data_dir"),
		RateLimit: v.GetString("rate_limit"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("server config", "addr", cfg.HTTP.Addr, "dataDir", cfg.DataDir, "rate", cfg.RateLimit, "tls", cfg.HTTP.TLS())
	return cfg, nil
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}
