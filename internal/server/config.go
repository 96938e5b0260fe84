package server

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	DefaultAddr      = "127.0.0.1:8080"
	DefaultDataDir   = ".data"
	DefaultRateLimit = "50-S"
)

type Config struct {
	HTTP      HttpServerConfig
	DataDir   string
	RateLimit string // limiter notation, empty disables rate limiting
}

type HttpServerConfig struct {
	Addr     string
	CertFile string
	KeyFile  string
}

func (c *HttpServerConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultAddr
	}

	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return errors.New("cert and key must be set together")
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	dataDir, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	c.DataDir = dataDir

	return nil
}

func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blobs")
}
