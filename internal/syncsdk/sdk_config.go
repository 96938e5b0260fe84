package syncsdk

import (
	"time"

	"github.com/mynk/mynk/internal/utils"
)

const (
	DefaultTimeout = 60 * time.Second
)

// SyncSDKConfig is the configuration for the SyncSDK
type SyncSDKConfig struct {
	BaseURL string        // BaseURL is required
	Timeout time.Duration // Timeout bounds the whole exchange, zero means DefaultTimeout
}

func (c *SyncSDKConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	baseURL, err := utils.ParseEndpointURL(c.BaseURL)
	if err != nil {
		return err
	}
	c.BaseURL = baseURL

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return nil
}
