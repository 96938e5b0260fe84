package syncsdk

import (
	"context"
	"log/slog"
	"time"

	"github.com/imroc/req/v3"
	"github.com/mynk/mynk/internal/syncmsg"
	"github.com/mynk/mynk/internal/version"
)

const (
	HeaderUserAgent   = "User-Agent"
	HeaderMynkVersion = "X-Mynk-Version"
	HeaderRequestID   = "X-Request-Id"

	pathSync = "/sync"
)

// SyncSDK talks to a mynk remote
type SyncSDK struct {
	client  *req.Client
	baseURL string
}

// New creates a client for the remote at config.BaseURL
func New(config *SyncSDKConfig) (*SyncSDK, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := req.C().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetUserAgent(version.UserAgent()).
		SetCommonHeader(HeaderMynkVersion, version.Version).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(syncmsg.JSONMarshal).
		SetJsonUnmarshal(syncmsg.JSONUnmarshal).
		// a sync exchange is not idempotent on the remote, never replay it
		SetCommonRetryCount(0)

	return &SyncSDK{
		client:  client,
		baseURL: config.BaseURL,
	}, nil
}

func (s *SyncSDK) BaseURL() string {
	return s.baseURL
}

// Sync performs the single request/response exchange of a round. A non-2xx response,
// a transport failure or a cancelled context is returned as an error and no directives.
func (s *SyncSDK) Sync(ctx context.Context, requestID string, body *syncmsg.SyncRequest) (syncmsg.SyncResponse, error) {
	var directives syncmsg.SyncResponse

	started := time.Now()
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, requestID).
		SetBody(body).
		SetSuccessResult(&directives).
		Post(pathSync)

	if err := handleAPIError(res, err, "sync"); err != nil {
		return nil, err
	}

	slog.Debug("sync exchange",
		"requestId", requestID,
		"status", res.StatusCode,
		"directives", len(directives),
		"took", time.Since(started),
	)
	return directives, nil
}
