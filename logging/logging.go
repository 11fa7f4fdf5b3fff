// Package logging configures the process-wide logger: a console sink
// and a file sink with independently configurable levels.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps a configured level name to a zerolog level. "notice"
// has no zerolog equivalent and is folded into info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "notice":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}

	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}

// leveledWriter drops events below its own threshold, so the console
// and the log file can run at different levels off one logger.
type leveledWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (lw leveledWriter) Write(p []byte) (int, error) {
	return lw.w.Write(p)
}

func (lw leveledWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < lw.min {
		return len(p), nil
	}
	return lw.w.Write(p)
}

// Setup builds the two-sink logger. The returned closer flushes and
// closes the log file; filePath may be empty to log to screen only.
func Setup(screenLevel, fileLevel zerolog.Level, filePath string) (zerolog.Logger, func(), error) {
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05.000"}

	writers := []io.Writer{leveledWriter{w: console, min: screenLevel}}
	closer := func() {}

	if filePath != "" {
		fh, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}

		writers = append(writers, leveledWriter{w: fh, min: fileLevel})
		closer = func() { fh.Close() }
	}

	min := screenLevel
	if fileLevel < min {
		min = fileLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(min).With().Timestamp().Logger()

	return logger, closer, nil
}
