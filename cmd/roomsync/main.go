// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// roomsync follows one Matrix room from the terminal.
//
// It joins the room, loads the member list, and long-polls the event
// stream, printing each new message to stdout as plain text, JSON
// lines, or a CBOR sequence. With --tui it runs an interactive view
// with a roster sidebar and an input line instead.
//
// Configuration comes from a YAML or JSONC file named by --config or
// ROOMSYNC_CONFIG; flags override individual fields. The access token
// is read from the file named by homeserver.token_file and held in
// locked memory.
//
// roomsync exits 0 on SIGINT/SIGTERM or after /leave, and 1 when the
// server refuses the event stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/roomsync/lib/clock"
	"github.com/bureau-foundation/roomsync/lib/config"
	"github.com/bureau-foundation/roomsync/lib/roomstate"
	"github.com/bureau-foundation/roomsync/lib/roomsync"
	"github.com/bureau-foundation/roomsync/lib/roomui"
	"github.com/bureau-foundation/roomsync/lib/sealed"
	"github.com/bureau-foundation/roomsync/lib/secret"
	"github.com/bureau-foundation/roomsync/lib/version"
	"github.com/bureau-foundation/roomsync/messaging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds flag values. Only flags the user set override the
// config file.
type options struct {
	configPath    string
	homeserver    string
	apiPrefix     string
	userID        string
	tokenFile     string
	identityFile  string
	room          string
	format        string
	tui           bool
	metricsListen string
	logLevel      string
	logFile       string
	showVersion   bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("roomsync", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML, or JSONC with a .json/.jsonc extension); default $"+config.EnvVar)
	flagSet.StringVar(&opts.homeserver, "homeserver", "", "homeserver base URL")
	flagSet.StringVar(&opts.apiPrefix, "api-prefix", "", "client API path prefix")
	flagSet.StringVar(&opts.userID, "user-id", "", "user ID (@localpart:server)")
	flagSet.StringVar(&opts.tokenFile, "token-file", "", "file containing the access token")
	flagSet.StringVar(&opts.identityFile, "identity-file", "", "age identity that opens an encrypted token file")
	flagSet.StringVarP(&opts.room, "room", "r", "", "room ID to follow")
	flagSet.StringVarP(&opts.format, "format", "f", "", "stream format: plain, json, or cbor")
	flagSet.BoolVar(&opts.tui, "tui", false, "run the interactive terminal view")
	flagSet.StringVar(&opts.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, or error")
	flagSet.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// loadConfig reads the config file (if any) and applies flag
// overrides. Without --config or ROOMSYNC_CONFIG every required field
// must come from flags.
func loadConfig(opts *options, flagSet *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag  string
		value string
		field *string
	}{
		{"homeserver", opts.homeserver, &cfg.Homeserver.URL},
		{"api-prefix", opts.apiPrefix, &cfg.Homeserver.APIPrefix},
		{"user-id", opts.userID, &cfg.Homeserver.UserID},
		{"token-file", opts.tokenFile, &cfg.Homeserver.TokenFile},
		{"identity-file", opts.identityFile, &cfg.Homeserver.IdentityFile},
		{"room", opts.room, &cfg.Room.ID},
		{"format", opts.format, &cfg.Output.Format},
		{"metrics-listen", opts.metricsListen, &cfg.Metrics.Listen},
		{"log-level", opts.logLevel, &cfg.Log.Level},
	}
	for _, override := range overrides {
		if flagSet.Changed(override.flag) {
			*override.field = override.value
		}
	}
	if flagSet.Changed("tui") {
		cfg.Output.TUI = opts.tui
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(stderr)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stderr)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return nil
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "roomsync %s\n", version.Info())
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := loadConfig(&opts, flagSet)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, opts.logFile, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	waitWindow, _ := cfg.WaitWindow()
	backoff, _ := cfg.Backoff()

	token, err := readToken(cfg.Homeserver)
	if err != nil {
		return fmt.Errorf("reading access token: %w", err)
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver.URL,
		APIPrefix:     cfg.Homeserver.APIPrefix,
		Logger:        logger,
	})
	if err != nil {
		token.Close()
		return err
	}
	logger.Info("session ready",
		"homeserver", cfg.Homeserver.URL,
		"user_id", cfg.Homeserver.UserID,
		"token_fingerprint", token.Fingerprint(),
	)
	session := client.NewSession(cfg.Homeserver.UserID, token)
	defer session.Close()

	var metrics *roomsync.Metrics
	if cfg.Metrics.Listen != "" {
		registry := prometheus.NewRegistry()
		metrics, err = roomsync.NewMetrics(registry)
		if err != nil {
			return err
		}
		stopMetrics, err := serveMetrics(cfg.Metrics.Listen, registry, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	viewConfig := roomsync.ViewConfig{
		Session:       session,
		RoomID:        cfg.Room.ID,
		WaitWindow:    waitWindow,
		Backoff:       backoff,
		Clock:         clock.Real(),
		InitialCursor: cfg.Sync.InitialCursor,
		Metrics:       metrics,
		Logger:        logger,
	}

	if cfg.Output.TUI {
		return runTUI(ctx, viewConfig)
	}
	return runStream(ctx, viewConfig, cfg.Output.Format, stdout, stderr)
}

// runStream prints appended messages until ctx is cancelled or the
// loop stops fatally.
func runStream(ctx context.Context, viewConfig roomsync.ViewConfig, format string, stdout, stderr io.Writer) error {
	logger := viewConfig.Logger
	viewConfig.State = roomstate.New(viewConfig.RoomID)
	printer, err := newPrinter(format, stdout, viewConfig.State, logger)
	if err != nil {
		return err
	}

	viewConfig.OnBatch = func(result roomstate.Result) {
		for _, message := range result.Appended {
			if err := printer.print(message); err != nil {
				logger.Error("writing message", "event_id", message.EventID, "error", err)
			}
		}
	}
	viewConfig.OnFeedback = func(message string) {
		if message != "" {
			fmt.Fprintf(stderr, "roomsync: %s\n", message)
		}
	}

	view, err := roomsync.OpenView(ctx, viewConfig)
	if err != nil {
		return err
	}
	defer view.Close()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case <-view.Done():
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("%s: %w", view.Feedback(), err)
	}
	return nil
}

// runTUI runs the interactive view until the user quits or leaves, or
// the loop stops fatally.
func runTUI(ctx context.Context, viewConfig roomsync.ViewConfig) error {
	relay := roomui.NewRelay(64)
	defer relay.Close()
	viewConfig.OnBatch = relay.Batch
	viewConfig.OnFeedback = relay.Feedback

	view, err := roomsync.OpenView(ctx, viewConfig)
	if err != nil {
		return err
	}
	defer view.Close()
	go func() {
		<-view.Done()
		relay.Stopped(view.Err())
	}()

	program := tea.NewProgram(roomui.NewModel(view, relay), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal view: %w", err)
	}
	if model, ok := final.(roomui.Model); ok && model.StopErr() != nil {
		return fmt.Errorf("%s: %w", view.Feedback(), model.StopErr())
	}
	return nil
}

// readToken reads the access token, decrypting it when an identity
// file is configured.
func readToken(homeserver config.HomeserverConfig) (*secret.Buffer, error) {
	if homeserver.IdentityFile != "" {
		return sealed.OpenFile(homeserver.TokenFile, homeserver.IdentityFile)
	}
	return secret.ReadFile(homeserver.TokenFile)
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `roomsync follows one Matrix room from the terminal.

Usage:
  roomsync [flags]

Examples:
  # Stream a room as plain text using a config file
  roomsync --config roomsync.yaml

  # Stream as JSON lines without a config file
  roomsync --homeserver https://matrix.example.org --user-id @me:example.org \
      --token-file ~/.roomsync/token --room '!abc:example.org' --format json

  # Token sealed with age to a local identity
  roomsync --config roomsync.yaml --identity-file ~/.roomsync/identity.txt

  # Interactive view
  roomsync --config roomsync.yaml --tui

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
