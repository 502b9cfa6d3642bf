package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

var (
	debugEnabled bool

	warnColor  = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
	okColor    = color.New(color.FgGreen).SprintFunc()
)

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

// setupLogging tags every line with a short run id and decides on color.
// Returns the full run id.
func setupLogging() string {
	fd := os.Stderr.Fd()
	color.NoColor = !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))

	runID := uuid.NewString()
	log.SetFlags(log.LstdFlags)
	log.SetPrefix(fmt.Sprintf("[%s] ", runID[:8]))
	return runID
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

func logStep(format string, args ...interface{}) {
	log.Printf("→ "+format, args...)
}

func logDone(format string, args ...interface{}) {
	log.Print(okColor("✓ ") + fmt.Sprintf(format, args...))
}

func logWarn(format string, args ...interface{}) {
	log.Print(warnColor("⚠ " + fmt.Sprintf(format, args...)))
}

func logFail(format string, args ...interface{}) {
	log.Print(errorColor("✗ " + fmt.Sprintf(format, args...)))
}
