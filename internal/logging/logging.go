// Package logging builds the application's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docqa/internal/config"
)

// New returns a logger writing to console and, when cfg.Dir is set, to daily
// files in that directory. A nil console discards console output. The returned
// closer releases the log file.
func New(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	if console == nil {
		console = io.Discard
	}
	out := console
	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		files, err := NewDailyFile(cfg.Dir, "docqa")
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(console, files)
		closer = files
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer, nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// DailyFile is an io.Writer appending to <prefix>-YYYY-MM-DD.log, switching
// files when the date changes.
type DailyFile struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	current *os.File
	name    string
}

func NewDailyFile(dir, prefix string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	d := &DailyFile{dir: dir, prefix: prefix, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return d, nil
}

// rotateIfNeeded must be called with mu held.
func (d *DailyFile) rotateIfNeeded() error {
	name := fmt.Sprintf("%s-%s.log", d.prefix, d.now().Format("2006-01-02"))
	if name == d.name && d.current != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if d.current != nil {
		_ = d.current.Close()
	}
	d.current = f
	d.name = name
	return nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return d.current.Write(p)
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil
	}
	err := d.current.Close()
	d.current = nil
	return err
}
