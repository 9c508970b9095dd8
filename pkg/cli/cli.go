// Package cli parses command line arguments and environment variables for
// the blockstage binary.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds settings parsed from command line arguments.
type Config struct {
	ProjectPath string        // path to the project JSON file
	AssetDir    string        // directory for costume images and sounds
	SoundFont   string        // SoundFont (.sf2) for MIDI music, optional
	Timeout     time.Duration // 0 means unlimited
	Seed        uint64        // random seed, 0 means time-based
	LogLevel    string        // debug, info, warn, error
	Headless    bool
	ShowHelp    bool
}

// ParseArgs parses arguments into a Config. Flags win over environment
// variables (HEADLESS, TIMEOUT, LOG_LEVEL).
func ParseArgs(args []string) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("blockstage", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	var seed uint64
	fs.IntVar(&timeoutSec, "timeout", 0, "stop after this many seconds")
	fs.IntVar(&timeoutSec, "t", 0, "stop after this many seconds (shorthand)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.StringVar(&config.AssetDir, "assets", "", "asset directory (default: project file directory)")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFont file for MIDI music")
	fs.Uint64Var(&seed, "seed", 0, "random seed for reproducible runs")
	fs.BoolVar(&config.Headless, "headless", false, "run without a window")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}
	config.Seed = seed

	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.ProjectPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags before positional arguments so both orders work
// on the command line.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				switch arg {
				case "-h", "--help", "-help", "--headless", "-headless":
				default:
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp prints the usage message.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `blockstage - block program stage runner

Usage:
  blockstage [options] <project.json>

Arguments:
  project.json    serialized scene: object types, costumes, block scripts

Options:
  -t, --timeout <seconds>     stop after the given number of seconds (default: unlimited)
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --assets <dir>              asset directory (default: project file directory)
  --soundfont <file>          SoundFont (.sf2) for MIDI background music
  --seed <n>                  random seed for reproducible runs
  --headless                  run the tick loop without a window
  -h, --help                  show this help

Environment Variables:
  HEADLESS=1                  enable headless mode
  TIMEOUT=<seconds>           timeout in seconds
  LOG_LEVEL=<level>           log level

Examples:
  blockstage game.json                 run windowed
  blockstage --headless -t 10 game.json  run 10 simulated seconds without a window
  blockstage --log-level debug game.json
`)
}
