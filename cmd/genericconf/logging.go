// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package genericconf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var ErrUnknownLogType = errors.New("unknown log type")

// HandlerFromLogType returns a handler writing to output in the named
// format: "plaintext" or "json".
func HandlerFromLogType(logType string, output io.Writer) (slog.Handler, error) {
	switch logType {
	case "plaintext":
		return log.NewTerminalHandler(output, false), nil
	case "json":
		return log.JSONHandler(output), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected plaintext or json)", ErrUnknownLogType, logType)
	}
}

// ToSlogLevel accepts level names ("info", "DEBUG") as well as the numeric
// verbosities used by older configs (1 = error through 5 = trace).
func ToSlogLevel(str string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "crit", "critical", "0":
		return log.LevelCrit, nil
	case "error", "1":
		return log.LevelError, nil
	case "warn", "warning", "2":
		return log.LevelWarn, nil
	case "info", "3":
		return log.LevelInfo, nil
	case "debug", "4":
		return log.LevelDebug, nil
	case "trace", "5":
		return log.LevelTrace, nil
	default:
		return log.LevelInfo, fmt.Errorf("invalid log level: %q", str)
	}
}

var globalFileLogger fileLogger

// fileLogger hands log lines to a goroutine that writes them to a rotating
// file. Lines are dropped while BufSize lines are already queued.
type fileLogger struct {
	writer  *lumberjack.Logger
	entries chan []byte
	drained chan struct{}
}

func (l *fileLogger) Write(p []byte) (int, error) {
	entry := append([]byte(nil), p...)
	select {
	case l.entries <- entry:
	default:
	}
	return len(p), nil
}

// open is not threadsafe.
func (l *fileLogger) open(config *FileLoggingConfig, filename string) io.Writer {
	l.writer = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		LocalTime:  config.LocalTime,
		Compress:   config.Compress,
	}
	l.entries = make(chan []byte, config.BufSize)
	l.drained = make(chan struct{})
	go func(writer io.Writer, entries <-chan []byte, drained chan<- struct{}) {
		defer close(drained)
		for entry := range entries {
			_, _ = writer.Write(entry)
		}
	}(l.writer, l.entries, l.drained)
	return l
}

// close flushes queued lines and closes the file. It is not threadsafe.
func (l *fileLogger) close() error {
	if l.entries == nil {
		return nil
	}
	close(l.entries)
	<-l.drained
	l.entries = nil
	err := l.writer.Close()
	l.writer = nil
	return err
}

// InitLog installs the default logger. It is not threadsafe.
func InitLog(logType string, logLevel string, fileLoggingConfig *FileLoggingConfig, pathResolver func(string) string) error {
	if err := globalFileLogger.close(); err != nil {
		return fmt.Errorf("failed to close file writer: %w", err)
	}
	var output io.Writer
	if fileLoggingConfig.Enable {
		output = io.MultiWriter(os.Stderr, globalFileLogger.open(fileLoggingConfig, pathResolver(fileLoggingConfig.File)))
	} else {
		output = os.Stderr
	}
	handler, err := HandlerFromLogType(logType, output)
	if err != nil {
		return fmt.Errorf("error parsing log type when creating handler: %w", err)
	}
	slogLevel, err := ToSlogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(slogLevel)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}
