package main

import (
	"log/slog"
	"reflect"
	"testing"
)

func TestExtractToolFlags(t *testing.T) {
	t.Parallel()

	tokens, opts, err := extractToolFlags([]string{
		"--log-level=debug", "model=G973F", "+magisk", "--settings", "alt.yaml", "-bfq",
	})
	if err != nil {
		t.Fatalf("extractToolFlags() error = %v", err)
	}
	if got, want := tokens, []string{"model=G973F", "+magisk", "-bfq"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
	if opts.logLevel != "debug" {
		t.Errorf("logLevel = %q, want %q", opts.logLevel, "debug")
	}
	if opts.settingsPath != "alt.yaml" {
		t.Errorf("settingsPath = %q, want %q", opts.settingsPath, "alt.yaml")
	}
}

func TestExtractToolFlagsRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, _, err := extractToolFlags([]string{"--frobnicate"}); err == nil {
		t.Fatal("extractToolFlags() expected error for unknown flag")
	}
	if _, _, err := extractToolFlags([]string{"--settings"}); err == nil {
		t.Fatal("extractToolFlags() expected error for missing value")
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := parseLogLevel(in)
		if err != nil {
			t.Errorf("parseLogLevel(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseLogLevel("loud"); err == nil {
		t.Error("parseLogLevel(\"loud\") expected error")
	}
}
