package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// levelFatal sits above ERROR so fatal records keep their own level in the
// output instead of blending into ordinary errors.
const levelFatal = slog.LevelError + 4

var base *slog.Logger

func newHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == levelFatal {
					a.Value = slog.StringValue("FATAL")
				}
			}
			return a
		},
	})
}

func Init() {
	base = slog.New(newHandler(os.Stdout))
	base.Info("logger initialized")
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func active() *slog.Logger {
	if base == nil {
		base = slog.New(newHandler(os.Stdout))
	}
	return base
}

func Info(msg string, fields map[string]any) {
	active().Info(msg, attrs(fields)...)
}

func Warn(msg string, fields map[string]any) {
	active().Warn(msg, attrs(fields)...)
}

func Error(msg string, fields map[string]any) {
	active().Error(msg, attrs(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	fatal(msg, fields)
	os.Exit(1)
}

func fatal(msg string, fields map[string]any) {
	active().Log(context.Background(), levelFatal, msg, attrs(fields)...)
}
