// Package dingrobot is a client for the DingTalk custom-robot webhook API.
// It builds signed, retried HTTP requests carrying one of the structured
// message payloads (text, markdown, link, actionCard, feedCard) and
// normalizes the remote errcode/errmsg envelope into typed errors.
//
// Basic usage:
//
//	robot, err := dingrobot.New(
//		dingrobot.WithAccessToken("your-access-token"),
//		dingrobot.WithSecret("SEC..."),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = robot.SendText(context.Background(), "deploy finished",
//		dingrobot.WithAtMobiles("13800000000"))
//
// Asynchronous usage:
//
//	handle := robot.SendAsync(dingrobot.NewMarkdownMessage("Alert", "**disk full**"))
//	if err := handle.Wait(ctx); err != nil {
//		log.Printf("delivery failed: %v", err)
//	}
package dingrobot

import (
	"context"

	"github.com/kart-io/dingrobot/pkg/async"
	"github.com/kart-io/dingrobot/pkg/dingtalk"
	"github.com/kart-io/dingrobot/pkg/queue"
)

// Aliases so common usage needs only this package.
type (
	// Sender is the synchronous webhook dispatcher.
	Sender = dingtalk.Sender

	// Option configures a Robot at construction time.
	Option = dingtalk.Option

	// Message is the canonical webhook payload envelope.
	Message = dingtalk.Message

	// MessageOption customizes shorthand-built payloads.
	MessageOption = dingtalk.MessageOption

	// At configures @mentions on text and markdown messages.
	At = dingtalk.At

	// LinkContent carries a link card.
	LinkContent = dingtalk.LinkContent

	// ActionCardContent carries a single-action or multi-button card.
	ActionCardContent = dingtalk.ActionCardContent

	// ActionCardButton is one button of a multi-button action card.
	ActionCardButton = dingtalk.ActionCardButton

	// FeedCardLink is one entry of a feed card.
	FeedCardLink = dingtalk.FeedCardLink
)

// Re-exported constructors and options.
var (
	NewTextMessage       = dingtalk.NewTextMessage
	NewMarkdownMessage   = dingtalk.NewMarkdownMessage
	NewLinkMessage       = dingtalk.NewLinkMessage
	NewActionCardMessage = dingtalk.NewActionCardMessage
	NewFeedCardMessage   = dingtalk.NewFeedCardMessage

	WithWebhookURL    = dingtalk.WithWebhookURL
	WithAccessToken   = dingtalk.WithAccessToken
	WithSecret        = dingtalk.WithSecret
	WithTimeout       = dingtalk.WithTimeout
	WithMaxRetries    = dingtalk.WithMaxRetries
	WithRetryInterval = dingtalk.WithRetryInterval
	WithLogger        = dingtalk.WithLogger
	WithHTTPClient    = dingtalk.WithHTTPClient
	WithTelemetry     = dingtalk.WithTelemetry

	WithAtMobiles = dingtalk.WithAtMobiles
	WithAtUserIds = dingtalk.WithAtUserIds
	WithAtAll     = dingtalk.WithAtAll
)

// Robot wraps the synchronous Sender with asynchronous delivery.
type Robot struct {
	*dingtalk.Sender
}

// New creates a Robot from the given options.
func New(opts ...Option) (*Robot, error) {
	sender, err := dingtalk.NewSender(opts...)
	if err != nil {
		return nil, err
	}
	return &Robot{Sender: sender}, nil
}

// SendAsync delivers a message in the background and returns its completion
// handle. Abandoning the handle does not stop the delivery or its retries.
func (r *Robot) SendAsync(msg *Message) *async.Handle {
	h := async.NewHandle()
	go func() {
		h.Complete(r.Send(context.Background(), msg))
	}()
	return h
}

// SendTextAsync is the asynchronous shorthand for a text message.
func (r *Robot) SendTextAsync(content string, opts ...MessageOption) *async.Handle {
	msg := NewTextMessage(content)
	for _, opt := range opts {
		opt(msg)
	}
	return r.SendAsync(msg)
}

// SendMarkdownAsync is the asynchronous shorthand for a markdown message.
func (r *Robot) SendMarkdownAsync(title, text string, opts ...MessageOption) *async.Handle {
	msg := NewMarkdownMessage(title, text)
	for _, opt := range opts {
		opt(msg)
	}
	return r.SendAsync(msg)
}

// DeliveryWorker builds a worker that drains q through this robot. The
// caller starts and stops it.
func (r *Robot) DeliveryWorker(q queue.Queue, opts ...async.WorkerOption) *async.Worker {
	return async.NewWorker(q, func(ctx context.Context, msg *queue.Message) error {
		return r.Send(ctx, msg.Body)
	}, opts...)
}
