package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

func init() {
	level := slog.LevelInfo
	if os.Getenv("TGBOT_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(os.Stderr, opts)
	log = slog.New(handler)
}

// With binds attributes to every subsequent log line of this process.
// Workers call it once with their bot identity so supervisor output stays attributable.
func With(args ...any) {
	log = log.With(args...)
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}

// FatalCode logs and exits with a specific status so a supervisor can tell
// configuration failures apart from crashes.
func FatalCode(code int, msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(code)
}
