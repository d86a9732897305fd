// ABOUTME: File-backed debug logger shared across the CLI, watch, and monitor modes
// ABOUTME: Adapted from the playlist sorter's package-scope debugf/InitDebugLog

// Package debuglog provides an optional file-backed logger. When
// disabled, Debugf is a no-op; enabling it never changes program
// behavior, only what gets written to the log file.
package debuglog

import (
	"fmt"
	"log"
	"os"
)

var logger *log.Logger

// Init opens filename for writing and enables Debugf. Safe to call
// more than once; the most recent call wins.
func Init(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create debug log file: %w", err)
	}

	logger = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// Enabled reports whether Init has been called successfully.
func Enabled() bool {
	return logger != nil
}

// Debugf logs a message if debug logging has been enabled; otherwise
// it is a no-op.
func Debugf(format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
