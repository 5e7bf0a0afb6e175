package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	maxRetries   = 3
	retryWaitMin = 500 * time.Millisecond
)

// Notifier is the interface for sending channel alerts.
type Notifier interface {
	SendOutOfSync(ctx context.Context, ev StateChange) error
	SendRecovered(ctx context.Context, ev StateChange) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *retryablehttp.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	hc := retryablehttp.NewClient()
	hc.HTTPClient.Timeout = 30 * time.Second
	hc.RetryMax = maxRetries
	hc.RetryWaitMin = retryWaitMin
	hc.RetryWaitMax = 4 * retryWaitMin
	hc.Logger = retryableHTTPLogger{inner: logger}
	return &Client{
		httpClient: hc,
		config:     cfg,
		logger:     logger,
	}
}

// retryableHTTPLogger adapts zap to retryablehttp.LeveledLogger.
type retryableHTTPLogger struct {
	inner *zap.Logger
}

func (r retryableHTTPLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHTTPLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHTTPLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHTTPLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

// SendOutOfSync sends a lost-sync alert.
func (c *Client) SendOutOfSync(ctx context.Context, ev StateChange) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Channel %s out of sync", ev.Channel)
	tags := c.config.Tags + ",warning"
	priority := "high" // Override to high priority for lost sync

	return c.send(ctx, title, FormatOutOfSyncMessage(ev), tags, priority)
}

// SendRecovered sends a resync notice.
func (c *Client) SendRecovered(ctx context.Context, ev StateChange) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Channel %s back in sync", ev.Channel)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, FormatRecoveredMessage(ev), tags, c.config.Priority)
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendOutOfSync is a no-op.
func (n *NoopNotifier) SendOutOfSync(_ context.Context, _ StateChange) error { return nil }

// SendRecovered is a no-op.
func (n *NoopNotifier) SendRecovered(_ context.Context, _ StateChange) error { return nil }

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
