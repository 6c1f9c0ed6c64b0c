package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/carepoint/trackboard/internal/config"
)

// newLogger builds the process logger: console output in development, JSON
// otherwise, plus a rotating file when LOG_FILE is set. The returned closer
// flushes the file sink.
func newLogger(cfg *config.Config, stdout io.Writer) (zerolog.Logger, io.Closer) {
	var out io.Writer = stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: stdout, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", "trackboard").Logger()
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// bootstrapLogger is used before configuration is available.
func bootstrapLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
