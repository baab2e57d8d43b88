// Package config parses the single free-form configuration string
// provided at initialization (spec.md §6.3), plus SPEC_FULL.md's
// `history=<n>` and `log=<level>` extensions. Unknown substrings are
// ignored in all cases.
package config

import (
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	DefaultPort    = 1234
	DefaultHistory = 50
)

var (
	rePort    = regexp.MustCompile(`port=(\d+)`)
	reHistory = regexp.MustCompile(`history=(\d+)`)
	reLog     = regexp.MustCompile(`log=(debug|info|warn|error|disabled)`)
)

// Config is the parsed form of the free-form debugger argument string.
type Config struct {
	Port    int
	History int
	Level   zerolog.Level
}

// Parse scans str for the recognized substrings, matched anywhere in the
// string, and fills in defaults for anything absent.
func Parse(str string) Config {
	cfg := Config{Port: DefaultPort, History: DefaultHistory, Level: zerolog.InfoLevel}

	if m := rePort.FindStringSubmatch(str); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			cfg.Port = n
		}
	}
	if m := reHistory.FindStringSubmatch(str); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			cfg.History = n
		}
	}
	if m := reLog.FindStringSubmatch(str); m != nil {
		if lvl, err := zerolog.ParseLevel(m[1]); err == nil {
			cfg.Level = lvl
		}
	}
	return cfg
}
