package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FileTimeFormat is the timestamp layout in log file names
const FileTimeFormat = "2006-01-02 15-04-05"

// FileName returns the name of the log file of a run started at t
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.txt", prefix, t.Format(FileTimeFormat))
}

// Setup points the global logger at the console and at a new log file under dir. The file
// receives JSON lines and is what gets attached to the notification email. The returned
// function closes the file.
func Setup(level zerolog.Level, dir, prefix string, now time.Time) (path string, closeFn func() error, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("could not create log directory: %w", err)
	}

	path = filepath.Join(dir, FileName(prefix, now))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("could not open log file: %w", err)
	}

	log.Logger = New(level, consoleWriter(), file)
	return path, file.Close, nil
}

// New creates a logger writing to every writer given
func New(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Console creates a logger writing human readable lines to stderr
func Console(level zerolog.Level) zerolog.Logger {
	return New(level, consoleWriter())
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
}
