// Package logger is the process-wide leveled logger. Commands configure it
// once at startup via Init; everything below cmd logs through the package
// functions and never holds a logger value.
package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	NONE
)

var (
	level     = INFO
	stdLogger = log.New(os.Stderr, "[morphseg] ", log.LstdFlags)
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	case "none":
		return NONE
	}
	return INFO
}

// Init sets the level and, when logfilePath is non-empty, tees output to
// that file in addition to stderr. Unknown level strings fall back to INFO
// rather than failing a run over a typo.
func Init(logfilePath string, levelStr string) error {
	level = parseLevel(levelStr)

	if logfilePath == "" {
		stdLogger.SetOutput(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(logfilePath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(logfilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	stdLogger.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

func Debug(msg string, args ...any) {
	if level <= DEBUG {
		stdLogger.Printf("[DEBUG] "+msg, args...)
	}
}

func Info(msg string, args ...any) {
	if level <= INFO {
		stdLogger.Printf("[INFO] "+msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if level <= WARN {
		stdLogger.Printf("[WARN] "+msg, args...)
	}
}

func Error(msg string, args ...any) {
	if level <= ERROR {
		stdLogger.Printf("[ERROR] "+msg, args...)
	}
}
