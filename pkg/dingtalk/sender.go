package dingtalk

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/dingrobot/pkg/errors"
	"github.com/kart-io/dingrobot/pkg/logger"
)

// Response is the DingTalk API response envelope. errcode zero means the
// message was accepted; any other value is an application-level rejection.
type Response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Sender delivers robot messages to a single webhook endpoint with request
// signing and a bounded retry policy. A Sender is immutable after
// construction and safe for concurrent use; concurrent Send calls are
// independent and unordered.
type Sender struct {
	cfg     *Config
	baseURL *url.URL // nil when the sender is disabled
	client  *http.Client
	logger  logger.Logger
}

// NewSender creates a Sender from the given options. Construction only
// fails on invalid option values. A missing webhook URL and access token is
// not an error: the sender comes up disabled, logs a single warning, and
// every Send completes immediately without network activity. This lets the
// surrounding application run unconfigured.
func NewSender(opts ...Option) (*Sender, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	s := &Sender{
		cfg:    cfg,
		client: client,
		logger: cfg.Logger,
	}

	if resolved := cfg.ResolveURL(); resolved != "" {
		u, err := url.Parse(resolved)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidConfig, "invalid webhook URL")
		}
		s.baseURL = u
	} else {
		s.logger.Warn("no webhook URL or access token configured, sender is disabled")
	}

	return s, nil
}

// Disabled reports whether the sender has no resolvable endpoint.
func (s *Sender) Disabled() bool {
	return s.baseURL == nil
}

// WebhookURL returns the effective endpoint, or an empty string when the
// sender is disabled.
func (s *Sender) WebhookURL() string {
	if s.baseURL == nil {
		return ""
	}
	return s.baseURL.String()
}

// Send delivers one message, retrying transient failures up to the
// configured budget. The timeout applies per attempt; total wall time may
// exceed timeout*(maxRetries+1) plus the inter-attempt delays.
func (s *Sender) Send(ctx context.Context, msg *Message) error {
	if s.Disabled() {
		s.logger.Debug("sender disabled, dropping message")
		return nil
	}
	if msg == nil {
		return errors.New(errors.ErrInvalidMessage, "message cannot be nil")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrMessageEncoding, "marshal webhook payload")
	}

	msgType := string(msg.MsgType)
	if s.cfg.Telemetry == nil {
		return s.dispatch(ctx, payload)
	}

	var span trace.Span
	ctx, span = s.cfg.Telemetry.StartSend(ctx, msgType)
	started := time.Now()
	err = s.dispatch(ctx, payload)
	s.cfg.Telemetry.RecordSend(ctx, span, msgType, time.Since(started), err)
	return err
}

// SendText delivers a plain text message built from its shorthand form.
func (s *Sender) SendText(ctx context.Context, content string, opts ...MessageOption) error {
	return s.Send(ctx, applyMessageOptions(NewTextMessage(content), opts))
}

// SendMarkdown delivers a markdown message built from its shorthand form.
func (s *Sender) SendMarkdown(ctx context.Context, title, text string, opts ...MessageOption) error {
	return s.Send(ctx, applyMessageOptions(NewMarkdownMessage(title, text), opts))
}

// SendLink delivers a link card.
func (s *Sender) SendLink(ctx context.Context, link LinkContent) error {
	return s.Send(ctx, NewLinkMessage(link))
}

// SendActionCard delivers an action card in either its single-action or
// multi-button form.
func (s *Sender) SendActionCard(ctx context.Context, card ActionCardContent) error {
	return s.Send(ctx, NewActionCardMessage(card))
}

// SendFeedCard delivers a feed card.
func (s *Sender) SendFeedCard(ctx context.Context, links ...FeedCardLink) error {
	return s.Send(ctx, NewFeedCardMessage(links...))
}

func applyMessageOptions(msg *Message, opts []MessageOption) *Message {
	for _, opt := range opts {
		opt(msg)
	}
	return msg
}

// dispatch runs the per-call retry loop: first attempt plus up to
// MaxRetries extra attempts, each after a fixed delay, with the attempt
// timeout reset every time.
func (s *Sender) dispatch(ctx context.Context, payload []byte) error {
	var lastErr error

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if s.cfg.Telemetry != nil {
				s.cfg.Telemetry.RecordRetry(ctx, attempt)
			}
			s.logger.Debug("retrying webhook delivery",
				"attempt", attempt,
				"interval", s.cfg.RetryInterval)
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrSendCanceled, "send abandoned while waiting to retry")
			case <-time.After(s.cfg.RetryInterval):
			}
		}

		err := s.post(ctx, payload)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("webhook delivered after retries", "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			s.logger.Error("webhook delivery failed", "error", err)
			return err
		}
		s.logger.Warn("transient webhook failure",
			"attempt", attempt+1,
			"maxRetries", s.cfg.MaxRetries,
			"error", err)
	}

	s.logger.Error("webhook retry budget exhausted",
		"attempts", s.cfg.MaxRetries+1,
		"error", lastErr)
	return lastErr
}

// post performs a single delivery attempt.
func (s *Sender) post(ctx context.Context, payload []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, s.requestURL(time.Now()), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidConfig, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrNetworkConnection, "read webhook response")
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.Newf(errors.ErrServerError, "dingtalk api returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return errors.Newf(errors.ErrClientError, "dingtalk api returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrap(err, errors.ErrBadResponse, "decode webhook response envelope")
	}
	if envelope.ErrCode != 0 {
		return errors.RemoteRejected(envelope.ErrCode, envelope.ErrMsg)
	}
	return nil
}

// requestURL builds the per-attempt URL: a cache-busting `_` parameter on
// every request, plus `timestamp` and `sign` when a secret is configured.
func (s *Sender) requestURL(now time.Time) string {
	u := *s.baseURL
	ts := now.UnixMilli()

	q := u.Query()
	q.Set("_", strconv.FormatInt(ts, 10))
	if s.cfg.Secret != "" {
		signQuery(q, s.cfg.Secret, ts)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// classifyTransportError maps a round-trip failure into the unified error
// taxonomy so the retry predicate can act on it.
func classifyTransportError(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return errors.Wrap(err, errors.ErrSendCanceled, "send canceled")
	}
	var netErr net.Error
	if (stderrors.As(err, &netErr) && netErr.Timeout()) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrNetworkTimeout, "webhook request timed out")
	}
	return errors.Wrap(err, errors.ErrNetworkConnection, "webhook request failed")
}
