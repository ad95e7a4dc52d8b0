// ShipWatch - Live Vessel Watchlist Tracking and Map Visualization
// Copyright 2026 ZonkeyNet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/zonkeynet/shipwatch

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"ERROR":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(Config{})

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestSlogAdapter_RoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(Config{})

	slogger := NewSlogLogger()
	slogger.Info("subscribed", slog.String("area", "40,10,42,12"), slog.Int("vessels", 3))

	out := buf.String()
	if !strings.Contains(out, `"area":"40,10,42,12"`) {
		t.Errorf("missing string attr: %s", out)
	}
	if !strings.Contains(out, `"vessels":3`) {
		t.Errorf("missing int attr: %s", out)
	}
	if !strings.Contains(out, `"message":"subscribed"`) {
		t.Errorf("missing message: %s", out)
	}
}

func TestSlogAdapter_Groups(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(Config{})

	slogger := NewSlogLogger().WithGroup("upstream")
	slogger.Warn("reconnect", slog.String("state", "backoff"))

	if !strings.Contains(buf.String(), `"upstream.state":"backoff"`) {
		t.Errorf("group prefix missing: %s", buf.String())
	}
}
