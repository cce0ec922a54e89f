// ABOUTME: Structured, leveled logging shared by all caltra components.
// ABOUTME: Wraps charmbracelet/log with per-component child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu   sync.RWMutex
	root = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "caltra",
	})
)

// Init replaces the root logger. format is "text" (default) or "json".
func Init(w io.Writer, level, format string) error {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	opts := log.Options{
		ReportTimestamp: true,
		Prefix:          "caltra",
		Level:           lvl,
	}
	switch strings.ToLower(format) {
	case "", "text":
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return fmt.Errorf("unknown log format: %q", format)
	}

	l := log.NewWithOptions(w, opts)

	mu.Lock()
	root = l
	mu.Unlock()
	return nil
}

// Root returns the process-wide logger.
func Root() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// For returns a logger tagged with a component name.
func For(component string) *log.Logger {
	return Root().With("component", component)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Component loggers

// Storage returns a logger for persistence operations.
func Storage() *log.Logger { return For("storage") }

// Tracker returns a logger for tracker actions.
func Tracker() *log.Logger { return For("tracker") }

// Estimate returns a logger for the nutrition estimation gateway.
func Estimate() *log.Logger { return For("estimate") }

// Server returns a logger for the HTTP API.
func Server() *log.Logger { return For("server") }

// MCP returns a logger for the MCP server.
func MCP() *log.Logger { return For("mcp") }
