// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/muesli/termenv"

	"github.com/bureau-foundation/roomsync/lib/codec"
	"github.com/bureau-foundation/roomsync/lib/config"
	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/messaging"
)

// messageRecord is one appended message as written by the json and
// cbor formats.
type messageRecord struct {
	EventID        string         `json:"event_id,omitempty"`
	RoomID         string         `json:"room_id"`
	Sender         string         `json:"sender"`
	SenderName     string         `json:"sender_name"`
	Type           string         `json:"type"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	Content        map[string]any `json:"content"`
}

// printer writes appended messages to stdout in one output format.
// Sender names are looked up in state; senders not on the roster are
// printed by user ID.
type printer struct {
	write func(messageRecord) error
	state *roomstate.RoomState
}

func newPrinter(format string, w io.Writer, state *roomstate.RoomState, logger *slog.Logger) (*printer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &printer{state: state}
	switch format {
	case config.FormatPlain:
		output := termenv.NewOutput(w)
		p.write = func(record messageRecord) error {
			_, err := fmt.Fprintln(w, formatPlain(output, record))
			return err
		}
	case config.FormatJSON:
		encoder := json.NewEncoder(w)
		p.write = func(record messageRecord) error {
			return encoder.Encode(record)
		}
	case config.FormatCBOR:
		p.write = func(record messageRecord) error {
			data, err := codec.Marshal(record)
			if err != nil {
				return err
			}
			if logger.Enabled(context.Background(), slog.LevelDebug) {
				if diagnostic, _, err := codec.Diagnose(data); err == nil {
					logger.Debug("cbor item", "diagnostic", diagnostic)
				}
			}
			_, err = w.Write(data)
			return err
		}
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return p, nil
}

func (p *printer) print(message roomstate.Message) error {
	return p.write(messageRecord{
		EventID:        message.EventID,
		RoomID:         message.RoomID,
		Sender:         message.UserID,
		SenderName:     p.senderName(message.UserID),
		Type:           message.Type,
		OriginServerTS: message.OriginServerTS,
		Content:        message.Content,
	})
}

func (p *printer) senderName(userID string) string {
	if member, ok := p.state.Member(userID); ok {
		return member.Name()
	}
	return userID
}

// formatPlain renders one line: an optional [HH:MM] prefix, then the
// message in the same shapes as the interactive timeline.
func formatPlain(output *termenv.Output, record messageRecord) string {
	prefix := ""
	if record.OriginServerTS != 0 {
		prefix = "[" + time.UnixMilli(record.OriginServerTS).Format("15:04") + "] "
	}
	name := output.String(record.SenderName).Bold().String()
	body, _ := record.Content["body"].(string)
	msgType, _ := record.Content["msgtype"].(string)

	switch msgType {
	case messaging.MsgTypeEmote:
		return prefix + "* " + name + " " + body
	case messaging.MsgTypeImage:
		url, _ := record.Content["url"].(string)
		return prefix + name + " sent an image: " + body + " " + url
	default:
		return prefix + name + ": " + body
	}
}
