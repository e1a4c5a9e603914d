package dingtalk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, msg *Message) string {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(data)
}

func TestNewTextMessage_Wire(t *testing.T) {
	assert.Equal(t,
		`{"msgtype":"text","text":{"content":"hello"}}`,
		marshal(t, NewTextMessage("hello")))
}

func TestShorthandMatchesStructured(t *testing.T) {
	// The shorthand constructors and a hand-built structured payload must
	// serialize to byte-identical request bodies.
	t.Run("text", func(t *testing.T) {
		structured := &Message{
			MsgType: MsgTypeText,
			Text:    &TextContent{Content: "hello"},
		}
		assert.Equal(t, marshal(t, structured), marshal(t, NewTextMessage("hello")))
	})

	t.Run("markdown", func(t *testing.T) {
		structured := &Message{
			MsgType:  MsgTypeMarkdown,
			Markdown: &MarkdownContent{Title: "T", Text: "B"},
		}
		assert.Equal(t, marshal(t, structured), marshal(t, NewMarkdownMessage("T", "B")))
	})
}

func TestNewMarkdownMessage_Wire(t *testing.T) {
	msg := NewMarkdownMessage("Deploy", "## done\n- api").
		WithAt(At{AtMobiles: []string{"13800000000"}})

	assert.Equal(t,
		`{"msgtype":"markdown","markdown":{"title":"Deploy","text":"## done\n- api"},"at":{"atMobiles":["13800000000"]}}`,
		marshal(t, msg))
}

func TestNewLinkMessage_Wire(t *testing.T) {
	msg := NewLinkMessage(LinkContent{
		Title:      "Release",
		Text:       "v1.4 is out",
		MessageURL: "https://example.com/release",
		PicURL:     "https://example.com/pic.png",
	})

	assert.Equal(t,
		`{"msgtype":"link","link":{"title":"Release","text":"v1.4 is out","messageUrl":"https://example.com/release","picUrl":"https://example.com/pic.png"}}`,
		marshal(t, msg))
}

func TestNewActionCardMessage_PassThrough(t *testing.T) {
	t.Run("single action", func(t *testing.T) {
		msg := NewActionCardMessage(ActionCardContent{
			Title:       "Approve?",
			Text:        "release v1.4",
			SingleTitle: "Open",
			SingleURL:   "https://example.com",
		})
		assert.Equal(t,
			`{"msgtype":"actionCard","actionCard":{"title":"Approve?","text":"release v1.4","singleTitle":"Open","singleURL":"https://example.com"}}`,
			marshal(t, msg))
	})

	t.Run("multi button", func(t *testing.T) {
		msg := NewActionCardMessage(ActionCardContent{
			Title:          "Approve?",
			Text:           "release v1.4",
			BtnOrientation: "1",
			Btns: []ActionCardButton{
				{Title: "Yes", ActionURL: "https://example.com/yes"},
				{Title: "No", ActionURL: "https://example.com/no"},
			},
		})
		assert.Equal(t,
			`{"msgtype":"actionCard","actionCard":{"title":"Approve?","text":"release v1.4","btnOrientation":"1","btns":[{"title":"Yes","actionURL":"https://example.com/yes"},{"title":"No","actionURL":"https://example.com/no"}]}}`,
			marshal(t, msg))
	})
}

func TestNewFeedCardMessage_Wire(t *testing.T) {
	msg := NewFeedCardMessage(
		FeedCardLink{Title: "a", MessageURL: "https://a", PicURL: "https://a.png"},
		FeedCardLink{Title: "b", MessageURL: "https://b", PicURL: "https://b.png"},
	)

	assert.Equal(t,
		`{"msgtype":"feedCard","feedCard":{"links":[{"title":"a","messageURL":"https://a","picURL":"https://a.png"},{"title":"b","messageURL":"https://b","picURL":"https://b.png"}]}}`,
		marshal(t, msg))
}

func TestWithAt_TextAndMarkdownOnly(t *testing.T) {
	at := At{IsAtAll: true}

	assert.NotNil(t, NewTextMessage("x").WithAt(at).At)
	assert.NotNil(t, NewMarkdownMessage("t", "x").WithAt(at).At)

	// Mentions are not honored on card variants.
	link := NewLinkMessage(LinkContent{Title: "t", Text: "x", MessageURL: "https://x"})
	assert.Nil(t, link.WithAt(at).At)
	assert.Nil(t, NewFeedCardMessage(FeedCardLink{Title: "t"}).WithAt(at).At)
}

func TestMessageOptions(t *testing.T) {
	msg := NewTextMessage("hello")
	WithAtMobiles("13800000000", "13900000000")(msg)
	WithAtUserIds("user001")(msg)
	WithAtAll()(msg)

	require.NotNil(t, msg.At)
	assert.Equal(t, []string{"13800000000", "13900000000"}, msg.At.AtMobiles)
	assert.Equal(t, []string{"user001"}, msg.At.AtUserIds)
	assert.True(t, msg.At.IsAtAll)
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr bool
	}{
		{"valid text", NewTextMessage("hello"), false},
		{"empty text", NewTextMessage(""), true},
		{"missing text content", &Message{MsgType: MsgTypeText}, true},
		{"valid markdown", NewMarkdownMessage("t", "b"), false},
		{"markdown without title", NewMarkdownMessage("", "b"), true},
		{"valid link", NewLinkMessage(LinkContent{Title: "t", Text: "x", MessageURL: "https://x"}), false},
		{"link without url", NewLinkMessage(LinkContent{Title: "t", Text: "x"}), true},
		{"valid action card", NewActionCardMessage(ActionCardContent{Title: "t", Text: "x"}), false},
		{"action card without text", NewActionCardMessage(ActionCardContent{Title: "t"}), true},
		{"valid feed card", NewFeedCardMessage(FeedCardLink{Title: "t", MessageURL: "https://x"}), false},
		{"empty feed card", NewFeedCardMessage(), true},
		{"unknown type", &Message{MsgType: "sticker"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
