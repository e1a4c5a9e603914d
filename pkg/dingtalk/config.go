package dingtalk

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
	"github.com/kart-io/dingrobot/pkg/observability"
)

// webhookURLFormat derives the webhook URL from a robot access token.
const webhookURLFormat = "https://oapi.dingtalk.com/robot/send?access_token=%s"

// Defaults applied by NewSender when the corresponding option is absent.
const (
	DefaultTimeout       = 3 * time.Second
	DefaultMaxRetries    = 10
	DefaultRetryInterval = 1 * time.Second
)

// Config holds the endpoint configuration of a Sender. It is fixed at
// construction; the Sender never mutates it afterwards.
type Config struct {
	// WebhookURL is the full webhook endpoint. Ignored when AccessToken
	// is set.
	WebhookURL string

	// AccessToken, when set, derives the webhook URL and overrides any
	// explicitly supplied WebhookURL.
	AccessToken string

	// Secret enables signed requests when non-empty.
	Secret string

	// Timeout bounds each delivery attempt, not the whole call.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// RetryInterval is the fixed delay between attempts.
	RetryInterval time.Duration

	// Logger receives structured diagnostics. Defaults to logger.Discard.
	Logger logger.Logger

	// HTTPClient overrides the transport. Its Timeout field is ignored;
	// the per-attempt Timeout above governs instead.
	HTTPClient *http.Client

	// Telemetry, when set, records spans and metrics per delivery.
	Telemetry *observability.Telemetry
}

// defaultConfig returns a Config with all defaults applied.
func defaultConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
		Logger:        logger.Discard,
	}
}

// Validate checks the configuration ranges. An unresolvable URL is not an
// error: it puts the sender into the disabled state instead.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.New(errors.ErrInvalidConfig, "timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New(errors.ErrInvalidConfig, "max retries must be non-negative")
	}
	if c.RetryInterval <= 0 {
		return errors.New(errors.ErrInvalidConfig, "retry interval must be positive")
	}
	if resolved := c.ResolveURL(); resolved != "" {
		if _, err := url.Parse(resolved); err != nil {
			return errors.Wrap(err, errors.ErrInvalidConfig, "invalid webhook URL")
		}
	}
	return nil
}

// ResolveURL returns the effective webhook endpoint. An access token always
// wins over an explicit URL; an empty result means the sender is disabled.
func (c *Config) ResolveURL() string {
	if c.AccessToken != "" {
		return fmt.Sprintf(webhookURLFormat, url.QueryEscape(c.AccessToken))
	}
	return c.WebhookURL
}
