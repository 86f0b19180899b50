// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/roomsync/messaging"
)

// commandKind is what an input line asks for.
type commandKind int

const (
	commandNone commandKind = iota
	commandText
	commandEmote
	commandImage
	commandInvite
	commandLeave
	commandQuit
)

// command is one parsed input line.
type command struct {
	kind  commandKind
	body  string
	user  string
	image messaging.ImageContent
}

// parseInput turns an input line into a command. Blank lines parse to
// commandNone. Unknown or incomplete slash commands are errors.
func parseInput(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: commandNone}, nil
	}
	if strings.HasPrefix(line, "//") {
		return command{kind: commandText, body: line[1:]}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return command{kind: commandText, body: line}, nil
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "me":
		if rest == "" {
			return command{}, fmt.Errorf("usage: /me <action>")
		}
		return command{kind: commandEmote, body: rest}, nil

	case "invite":
		if !strings.HasPrefix(rest, "@") || strings.ContainsAny(rest, " \t") {
			return command{}, fmt.Errorf("usage: /invite @user:server")
		}
		return command{kind: commandInvite, user: rest}, nil

	case "image":
		url, caption, _ := strings.Cut(rest, " ")
		if !strings.HasPrefix(url, "mxc://") {
			return command{}, fmt.Errorf("usage: /image mxc://server/media [caption]")
		}
		return command{kind: commandImage, image: messaging.ImageContent{
			MsgType: messaging.MsgTypeImage,
			Body:    strings.TrimSpace(caption),
			URL:     url,
		}}, nil

	case "leave":
		return command{kind: commandLeave}, nil

	case "quit":
		return command{kind: commandQuit}, nil

	default:
		return command{}, fmt.Errorf("unknown command /%s", name)
	}
}
