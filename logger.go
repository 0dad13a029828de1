// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import (
	"log/slog"

	"github.com/gogpu/shaderconv/internal/logging"
)

// SetLogger configures the logger for shaderconv and its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by shaderconv:
//   - [slog.LevelDebug]: per-stage progress (root matching, leaf counts)
//   - [slog.LevelWarn]: declarations left unmapped
//
// Example:
//
//	shaderconv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
