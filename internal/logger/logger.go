// Package logger is a small levelled logger with coloured level tags.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu     sync.Mutex
	out    = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	errOut = log.New(os.Stderr, "", log.Ldate|log.Ltime)
	debug  = os.Getenv("LOG_DEBUG") != ""

	infoTag    = color.New(color.FgBlue).SprintFunc()
	warnTag    = color.New(color.FgYellow).SprintFunc()
	errorTag   = color.New(color.FgRed, color.Bold).SprintFunc()
	debugTag   = color.New(color.FgHiBlack).SprintFunc()
	methodTag  = color.New(color.FgMagenta).SprintFunc()
	okStatus   = color.New(color.FgGreen).SprintFunc()
	warnStatus = color.New(color.FgYellow).SprintFunc()
	badStatus  = color.New(color.FgRed).SprintFunc()
)

func init() {
	if os.Getenv("LOG_NO_COLOR") != "" {
		color.NoColor = true
	}
}

// SetOutput redirects both streams, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out.SetOutput(w)
	errOut.SetOutput(w)
}

func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
}

func Info(format string, args ...any) {
	out.Printf("%s %s", infoTag("[INFO]"), fmt.Sprintf(format, args...))
}

func Warn(format string, args ...any) {
	out.Printf("%s %s", warnTag("[WARN]"), fmt.Sprintf(format, args...))
}

func Error(format string, args ...any) {
	errOut.Printf("%s %s", errorTag("[ERROR]"), fmt.Sprintf(format, args...))
}

func Debug(format string, args ...any) {
	mu.Lock()
	enabled := debug
	mu.Unlock()
	if !enabled {
		return
	}
	out.Printf("%s %s", debugTag("[DEBUG]"), fmt.Sprintf(format, args...))
}

// Fatal logs and exits the process.
func Fatal(format string, args ...any) {
	Error(format, args...)
	os.Exit(1)
}

// Request logs one served HTTP request.
func Request(method, path string, status int, duration time.Duration) {
	var st string
	switch {
	case status >= 500:
		st = badStatus(status)
	case status >= 400:
		st = warnStatus(status)
	default:
		st = okStatus(status)
	}
	out.Printf("%s %-6s %s [%s] (%s)", infoTag("[HTTP]"), methodTag(method), path, st, formatDuration(duration))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
