package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigDir   = filepath.Join(home, ".mynk")
	DefaultConfigPath  = filepath.Join(DefaultConfigDir, "config.json")
	DefaultLogFilePath = filepath.Join(DefaultConfigDir, "logs", "mynk.log")
)

const (
	DefaultLogLevel = "info"
	DefaultTimeout  = 60 * time.Second
)

var ErrInvalidLogLevel = errors.New("invalid log level")

// Config holds the client settings that are not part of a sync root.
// The endpoint URI lives in the root's marker, not here.
type Config struct {
	LogLevel string        `json:"log_level"`
	LogFile  string        `json:"log_file"`
	Timeout  time.Duration `json:"timeout"`
	Verbose  bool          `json:"verbose"`
	Path     string        `json:"-"`
}

func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFilePath,
		Timeout:  DefaultTimeout,
	}
}

// Validate fills in defaults and normalizes paths
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	} else if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.LogFile != "" {
		logFile, err := filepath.Abs(c.LogFile)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		c.LogFile = logFile
	}

	return nil
}

// Level is the effective log level, verbose always means debug
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func ParseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, value)
	}
}
