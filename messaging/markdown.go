// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"
)

// The goldmark instance is configured once and shared; Convert keeps
// its per-call state on the stack.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		)
	})
	return markdownInstance
}

// NewTextMessage builds m.text content for body. When body contains
// Markdown markup, the rendered HTML is attached as formatted_body.
func NewTextMessage(body string) MessageContent {
	return formatted(MsgTypeText, body)
}

// NewEmoteMessage builds m.emote content for body.
func NewEmoteMessage(body string) MessageContent {
	return formatted(MsgTypeEmote, body)
}

func formatted(msgType, body string) MessageContent {
	content := MessageContent{MsgType: msgType, Body: body}
	if rendered, ok := renderHTML(body); ok {
		content.Format = HTMLFormat
		content.FormattedBody = rendered
	}
	return content
}

// renderHTML converts body to HTML. Returns false when the result is
// just the escaped text in a single paragraph, i.e. there was no markup.
func renderHTML(body string) (string, bool) {
	var buffer bytes.Buffer
	if err := markdown().Convert([]byte(body), &buffer); err != nil {
		return "", false
	}
	rendered := strings.TrimSpace(buffer.String())
	plain := "<p>" + string(util.EscapeHTML([]byte(strings.TrimSpace(body)))) + "</p>"
	if rendered == "" || rendered == plain {
		return "", false
	}
	return rendered, true
}
