package cli

import (
	"testing"
	"time"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Config
	}{
		{
			name: "defaults",
			args: []string{"game.json"},
			want: Config{ProjectPath: "game.json", LogLevel: "info"},
		},
		{
			name: "no positional argument",
			args: []string{},
			want: Config{LogLevel: "info"},
		},
		{
			name: "long flags",
			args: []string{"--timeout", "10", "--log-level", "debug", "--headless", "game.json"},
			want: Config{
				ProjectPath: "game.json",
				Timeout:     10 * time.Second,
				LogLevel:    "debug",
				Headless:    true,
			},
		},
		{
			name: "short flags",
			args: []string{"-t", "5", "-l", "warn", "game.json"},
			want: Config{ProjectPath: "game.json", Timeout: 5 * time.Second, LogLevel: "warn"},
		},
		{
			name: "flags after the positional argument",
			args: []string{"game.json", "--headless", "-t", "3"},
			want: Config{
				ProjectPath: "game.json",
				Timeout:     3 * time.Second,
				LogLevel:    "info",
				Headless:    true,
			},
		},
		{
			name: "asset and soundfont paths",
			args: []string{"--assets", "media", "--soundfont", "gm.sf2", "game.json"},
			want: Config{
				ProjectPath: "game.json",
				AssetDir:    "media",
				SoundFont:   "gm.sf2",
				LogLevel:    "info",
			},
		},
		{
			name: "seed",
			args: []string{"--seed", "12345", "game.json"},
			want: Config{ProjectPath: "game.json", Seed: 12345, LogLevel: "info"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("ParseArgs: %v", err)
			}
			if *got != tt.want {
				t.Errorf("ParseArgs = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseArgsEnvironmentFallbacks(t *testing.T) {
	t.Setenv("HEADLESS", "1")
	t.Setenv("TIMEOUT", "7")
	t.Setenv("LOG_LEVEL", "error")

	got, err := ParseArgs([]string{"game.json"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !got.Headless {
		t.Error("HEADLESS=1 must enable headless mode")
	}
	if got.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", got.Timeout)
	}
	if got.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", got.LogLevel)
	}
}

func TestParseArgsFlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("TIMEOUT", "7")
	t.Setenv("LOG_LEVEL", "error")

	got, err := ParseArgs([]string{"-t", "3", "-l", "debug", "game.json"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want the flag value 3s", got.Timeout)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want the flag value debug", got.LogLevel)
	}
}

func TestParseArgsRejections(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid log level", []string{"--log-level", "loud", "game.json"}},
		{"negative timeout", []string{"--timeout", "-5", "game.json"}},
		{"unknown flag", []string{"--frobnicate", "game.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArgs(tt.args); err == nil {
				t.Error("ParseArgs must fail")
			}
		})
	}
}
