package logging

import (
	"io"
	"log/slog"
	"os"

	"gitlab.com/ucmsv2/emailverify/pkg/env"
)

// Setup builds the process-wide logger for mode. Output goes to w, or stdout
// when w is nil. Prod logs JSON, every other mode logs text.
func Setup(mode env.Mode, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     mode.SlogLevel(),
		AddSource: mode == env.Prod,
	}

	var h slog.Handler
	if mode == env.Prod {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(slog.String("mode", mode.String()))
}
