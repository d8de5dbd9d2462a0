// Package xlog is a thin slog front-end. Level and format come from the
// environment (LOG_LEVEL, LOG_FORMAT=json); every record carries the calling
// source location.
package xlog

import (
	"context"
	"log/slog"
	"os"
	"runtime"
)

var logger *slog.Logger

func init() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger = slog.New(handler)
}

func log(level slog.Level, msg string, args ...any) {
	_, file, line, _ := runtime.Caller(2)
	args = append(args, slog.Group("source",
		slog.String("file", file),
		slog.Int("L", line),
	))
	logger.Log(context.Background(), level, msg, args...)
}

func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }

func Info(msg string, args ...any) { log(slog.LevelInfo, msg, args...) }

func Warn(msg string, args ...any) { log(slog.LevelWarn, msg, args...) }

func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }
