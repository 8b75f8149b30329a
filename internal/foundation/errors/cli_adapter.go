package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
)

// Exit codes of the contentbuilder process. Partial render failures are not
// errors at this level and exit with ExitOK.
const (
	ExitOK    = 0
	ExitFatal = 1
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor determines the process exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitFatal
}

// FormatError formats an error for display. Classified errors always carry
// their context so the offending repository or path is named.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := AsClassified(err); ok && !a.verbose {
		msg := fmt.Sprintf("Error: %s", classified.Message())
		keys := make([]string, 0, len(classified.Context()))
		for k := range classified.Context() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf("\n  %s: %v", k, classified.Context()[k])
		}
		if cause := classified.Cause(); cause != nil {
			msg += fmt.Sprintf("\n  cause: %v", cause)
		}
		return msg
	}
	return fmt.Sprintf("Error: %v", err)
}

// Handle logs err, prints the user-facing message and returns the exit code.
func (a *CLIErrorAdapter) Handle(err error) int {
	if err == nil {
		return ExitOK
	}
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
