// Package dingtalk implements the DingTalk custom-robot webhook client:
// message payload construction, request signing and the retrying dispatcher.
package dingtalk

import (
	"github.com/kart-io/dingrobot/pkg/errors"
)

// MessageType identifies a webhook payload variant.
type MessageType string

const (
	MsgTypeText       MessageType = "text"
	MsgTypeMarkdown   MessageType = "markdown"
	MsgTypeLink       MessageType = "link"
	MsgTypeActionCard MessageType = "actionCard"
	MsgTypeFeedCard   MessageType = "feedCard"
)

// Message is the canonical webhook payload envelope. Exactly one variant
// field matching MsgType is populated; the tag and field-set are fixed at
// construction and never mutated afterwards.
type Message struct {
	MsgType    MessageType        `json:"msgtype"`
	Text       *TextContent       `json:"text,omitempty"`
	Markdown   *MarkdownContent   `json:"markdown,omitempty"`
	Link       *LinkContent       `json:"link,omitempty"`
	ActionCard *ActionCardContent `json:"actionCard,omitempty"`
	FeedCard   *FeedCardContent   `json:"feedCard,omitempty"`
	At         *At                `json:"at,omitempty"`
}

// TextContent carries a plain text message.
type TextContent struct {
	Content string `json:"content"`
}

// MarkdownContent carries a markdown message. Title shows in the
// conversation list, Text is the rendered markdown body.
type MarkdownContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// LinkContent carries a link card.
type LinkContent struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	MessageURL string `json:"messageUrl"`
	PicURL     string `json:"picUrl,omitempty"`
}

// ActionCardContent carries an action card. It is itself a two-way variant:
// either SingleTitle/SingleURL (whole-card action) or Btns with an optional
// BtnOrientation ("0" vertical, "1" horizontal). The caller's choice is
// forwarded as given; no cross-field reconciliation is applied.
type ActionCardContent struct {
	Title          string             `json:"title"`
	Text           string             `json:"text"`
	SingleTitle    string             `json:"singleTitle,omitempty"`
	SingleURL      string             `json:"singleURL,omitempty"`
	BtnOrientation string             `json:"btnOrientation,omitempty"`
	Btns           []ActionCardButton `json:"btns,omitempty"`
}

// ActionCardButton is one button of a multi-button action card.
type ActionCardButton struct {
	Title     string `json:"title"`
	ActionURL string `json:"actionURL"`
}

// FeedCardContent carries a feed card of one or more links.
type FeedCardContent struct {
	Links []FeedCardLink `json:"links"`
}

// FeedCardLink is one entry of a feed card.
type FeedCardLink struct {
	Title      string `json:"title"`
	MessageURL string `json:"messageURL"`
	PicURL     string `json:"picURL"`
}

// At configures @mentions. DingTalk honors mentions on text and markdown
// messages only.
type At struct {
	AtMobiles []string `json:"atMobiles,omitempty"`
	AtUserIds []string `json:"atUserIds,omitempty"`
	IsAtAll   bool     `json:"isAtAll,omitempty"`
}

// NewTextMessage builds a text payload from its shorthand form.
func NewTextMessage(content string) *Message {
	return &Message{
		MsgType: MsgTypeText,
		Text:    &TextContent{Content: content},
	}
}

// NewMarkdownMessage builds a markdown payload from its shorthand form.
func NewMarkdownMessage(title, text string) *Message {
	return &Message{
		MsgType:  MsgTypeMarkdown,
		Markdown: &MarkdownContent{Title: title, Text: text},
	}
}

// NewLinkMessage builds a link card payload.
func NewLinkMessage(link LinkContent) *Message {
	return &Message{
		MsgType: MsgTypeLink,
		Link:    &link,
	}
}

// NewActionCardMessage builds an action card payload. Both the single-action
// and the multi-button form pass through unmodified.
func NewActionCardMessage(card ActionCardContent) *Message {
	return &Message{
		MsgType:    MsgTypeActionCard,
		ActionCard: &card,
	}
}

// NewFeedCardMessage builds a feed card payload.
func NewFeedCardMessage(links ...FeedCardLink) *Message {
	return &Message{
		MsgType:  MsgTypeFeedCard,
		FeedCard: &FeedCardContent{Links: links},
	}
}

// WithAt attaches @mention configuration. Only text and markdown messages
// carry mentions; for other variants the call is a no-op.
func (m *Message) WithAt(at At) *Message {
	if m.MsgType == MsgTypeText || m.MsgType == MsgTypeMarkdown {
		m.At = &at
	}
	return m
}

// Validate checks that the payload shape is complete enough to deliver.
func (m *Message) Validate() error {
	switch m.MsgType {
	case MsgTypeText:
		if m.Text == nil || m.Text.Content == "" {
			return errors.New(errors.ErrInvalidMessage, "text message requires content")
		}
	case MsgTypeMarkdown:
		if m.Markdown == nil || m.Markdown.Title == "" || m.Markdown.Text == "" {
			return errors.New(errors.ErrInvalidMessage, "markdown message requires title and text")
		}
	case MsgTypeLink:
		if m.Link == nil || m.Link.Title == "" || m.Link.Text == "" || m.Link.MessageURL == "" {
			return errors.New(errors.ErrInvalidMessage, "link message requires title, text and messageUrl")
		}
	case MsgTypeActionCard:
		if m.ActionCard == nil || m.ActionCard.Title == "" || m.ActionCard.Text == "" {
			return errors.New(errors.ErrInvalidMessage, "actionCard message requires title and text")
		}
	case MsgTypeFeedCard:
		if m.FeedCard == nil || len(m.FeedCard.Links) == 0 {
			return errors.New(errors.ErrInvalidMessage, "feedCard message requires at least one link")
		}
	default:
		return errors.Newf(errors.ErrInvalidMessage, "unsupported message type: %s", m.MsgType)
	}
	return nil
}

// MessageOption customizes a payload built by the sender-level shorthand
// operations, currently limited to @mention configuration.
type MessageOption func(*Message)

// WithAtMobiles mentions members by mobile number.
func WithAtMobiles(mobiles ...string) MessageOption {
	return func(m *Message) {
		at := m.ensureAt()
		at.AtMobiles = append(at.AtMobiles, mobiles...)
	}
}

// WithAtUserIds mentions members by user id.
func WithAtUserIds(userIds ...string) MessageOption {
	return func(m *Message) {
		at := m.ensureAt()
		at.AtUserIds = append(at.AtUserIds, userIds...)
	}
}

// WithAtAll mentions everyone in the conversation.
func WithAtAll() MessageOption {
	return func(m *Message) {
		m.ensureAt().IsAtAll = true
	}
}

func (m *Message) ensureAt() *At {
	if m.At == nil {
		m.At = &At{}
	}
	return m.At
}
