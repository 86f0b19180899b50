// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/roomsync/lib/config"
)

// newLogger builds the process logger. With a log file, logs are JSON
// lines appended to it. Otherwise they go to stderr: text when stderr
// is a terminal, JSON when piped. The interactive view owns the
// terminal, so without a log file its logs are discarded.
//
// The returned function closes the log file, if any.
func newLogger(cfg *config.Config, logFile string, stderr io.Writer) (*slog.Logger, func(), error) {
	options := &slog.HandlerOptions{Level: cfg.LogLevel()}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(file, options)), func() { file.Close() }, nil
	}

	if cfg.Output.TUI {
		return slog.New(slog.NewTextHandler(io.Discard, options)), func() {}, nil
	}

	var handler slog.Handler
	if isTerminal(stderr) {
		handler = slog.NewTextHandler(stderr, options)
	} else {
		handler = slog.NewJSONHandler(stderr, options)
	}
	return slog.New(handler), func() {}, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
