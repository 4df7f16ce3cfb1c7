package diag

import (
	"context"
	"log/slog"
)

// LevelTrace is a custom slog level one step above Info, used for the
// high-volume pass/interpreter progress messages that are too noisy
// for Info but still worth a log line when enabled.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a structured progress message at LevelTrace. Passes use
// it to report start/finish and option resolution; the interpreter
// uses it to report convergence sweep counts and cycle advances.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
