package env

import (
	"fmt"
	"log/slog"
	"strings"
)

type Mode string

const (
	Test  Mode = "test"
	Local Mode = "local"
	Dev   Mode = "dev"
	Prod  Mode = "prod"
)

var currentMode = Test

func SetMode(mode Mode) {
	if !mode.Validate() {
		panic("invalid mode: " + mode.String())
	}
	currentMode = mode
}

func Current() Mode {
	return currentMode
}

func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Validate() {
		return "", fmt.Errorf("env: unknown mode %q", s)
	}
	return m, nil
}

func (e Mode) String() string {
	return string(e)
}

func (e Mode) Validate() bool {
	switch e {
	case Local, Test, Dev, Prod:
		return true
	default:
		return false
	}
}

// IsDevelopment reports whether dev-only routes and helpers may be enabled.
func (e Mode) IsDevelopment() bool {
	return e == Local || e == Dev || e == Test
}

func (e Mode) SlogLevel() slog.Level {
	switch e {
	case Test, Local, Dev:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
