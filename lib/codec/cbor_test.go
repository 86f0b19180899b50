// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// streamMessage mirrors the shape of a streamed timeline entry.
type streamMessage struct {
	RoomID  string         `json:"room_id"`
	UserID  string         `json:"user_id"`
	Content map[string]any `json:"content"`
}

func TestMarshalDeterministic(t *testing.T) {
	message := streamMessage{
		RoomID: "!room:example.org",
		UserID: "@alice:example.org",
		Content: map[string]any{
			"msgtype": "m.text",
			"body":    "hello",
			"format":  "org.matrix.custom.html",
		},
	}

	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(message)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestJSONTagsNameFields(t *testing.T) {
	data, err := Marshal(streamMessage{RoomID: "!r:x", UserID: "@u:x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, rest, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("Diagnose left %d bytes", len(rest))
	}
	for _, key := range []string{`"room_id"`, `"user_id"`, `"content"`} {
		if !strings.Contains(diagnostic, key) {
			t.Errorf("diagnostic %s missing key %s", diagnostic, key)
		}
	}
}

func TestSequenceRoundtrip(t *testing.T) {
	messages := []streamMessage{
		{RoomID: "!r:x", UserID: "@a:x", Content: map[string]any{"body": "one"}},
		{RoomID: "!r:x", UserID: "@b:x", Content: map[string]any{"body": "two", "w": uint64(640)}},
		{RoomID: "!r:x", UserID: "@a:x", Content: map[string]any{}},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, message := range messages {
		if err := encoder.Encode(message); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var decoded []streamMessage
	for {
		var message streamMessage
		err := decoder.Decode(&message)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		decoded = append(decoded, message)
	}

	if len(decoded) != len(messages) {
		t.Fatalf("decoded %d items, want %d", len(decoded), len(messages))
	}
	if decoded[1].Content["body"] != "two" || decoded[1].Content["w"] != uint64(640) {
		t.Errorf("content mismatch: %+v", decoded[1].Content)
	}
	if decoded[2].UserID != "@a:x" {
		t.Errorf("decoded[2].UserID = %q", decoded[2].UserID)
	}
}

func TestAnyTargetDecodesStringKeyedMaps(t *testing.T) {
	data, err := Marshal(map[string]any{"content": map[string]any{"body": "hi"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := outer["content"].(map[string]any); !ok {
		t.Errorf("nested map decoded as %T", outer["content"])
	}
}
