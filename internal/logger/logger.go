// Package logger is a small verbosity-gated front over the standard
// log package. Errors always print; debug and info lines only when
// verbose logging is switched on.
package logger

import (
	"log"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
)

func init() {
	log.SetFlags(0)
}

// SetVerbose switches debug/info logging on or off.
func SetVerbose(enabled bool) {
	mu.Lock()
	verbose = enabled
	mu.Unlock()
}

func isVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// Debugf logs a debug message when verbose logging is enabled.
func Debugf(format string, v ...any) {
	if isVerbose() {
		log.Printf("debug: "+format, v...)
	}
}

// Infof logs an informational message when verbose logging is enabled.
func Infof(format string, v ...any) {
	if isVerbose() {
		log.Printf(format, v...)
	}
}

// Errorf logs an error message unconditionally.
func Errorf(format string, v ...any) {
	log.Printf(format, v...)
}

// Fatalf logs a message and exits.
func Fatalf(format string, v ...any) {
	log.Fatalf(format, v...)
}
