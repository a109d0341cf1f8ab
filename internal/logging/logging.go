// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/config"
)

// New returns a logger writing to console and, when c.File is set, to a log
// file under dir. The returned func closes the file.
func New(c config.Log, dir string, console io.Writer) (*logrus.Logger, func(), error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(lvl)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	cleanup := func() {}
	if c.File == "" {
		l.SetOutput(console)
		return l, cleanup, nil
	}

	path := c.File
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.SetOutput(io.MultiWriter(console, f))
	return l, func() { _ = f.Close() }, nil
}
