package dingtalk

import (
	"net/http"
	"time"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
	"github.com/kart-io/dingrobot/pkg/observability"
)

// Option configures a Sender at construction time.
type Option func(*Config) error

// WithWebhookURL sets the full webhook endpoint.
func WithWebhookURL(webhookURL string) Option {
	return func(cfg *Config) error {
		cfg.WebhookURL = webhookURL
		return nil
	}
}

// WithAccessToken sets the robot access token. The webhook URL is derived
// from it, overriding any explicitly configured URL.
func WithAccessToken(token string) Option {
	return func(cfg *Config) error {
		cfg.AccessToken = token
		return nil
	}
}

// WithSecret enables request signing.
func WithSecret(secret string) Option {
	return func(cfg *Config) error {
		cfg.Secret = secret
		return nil
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *Config) error {
		if timeout <= 0 {
			return errors.New(errors.ErrInvalidConfig, "timeout must be positive")
		}
		cfg.Timeout = timeout
		return nil
	}
}

// WithMaxRetries sets the number of additional attempts after the first.
func WithMaxRetries(retries int) Option {
	return func(cfg *Config) error {
		if retries < 0 {
			return errors.New(errors.ErrInvalidConfig, "max retries must be non-negative")
		}
		cfg.MaxRetries = retries
		return nil
	}
}

// WithRetryInterval sets the fixed delay between attempts.
func WithRetryInterval(interval time.Duration) Option {
	return func(cfg *Config) error {
		if interval <= 0 {
			return errors.New(errors.ErrInvalidConfig, "retry interval must be positive")
		}
		cfg.RetryInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger instance.
func WithLogger(log logger.Logger) Option {
	return func(cfg *Config) error {
		if log == nil {
			log = logger.Discard
		}
		cfg.Logger = log
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client, typically to share a transport
// or inject a test double.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *Config) error {
		cfg.HTTPClient = client
		return nil
	}
}

// WithTelemetry enables span and metric recording for deliveries.
func WithTelemetry(tel *observability.Telemetry) Option {
	return func(cfg *Config) error {
		cfg.Telemetry = tel
		return nil
	}
}
