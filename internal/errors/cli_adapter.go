package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
)

// exitCodes maps categories to process exit codes. Unlisted categories exit 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryInput:      3,
	CategoryConfig:     7,
	CategoryGit:        8,
	CategoryNotify:     8,
	CategoryInternal:   10,
	CategoryBuild:      11,
	CategoryFileSystem: 11,
	CategoryLaunch:     11,
	CategoryRuntime:    12,
}

// hints are printed below the message for categories an operator can fix.
var hints = map[ErrorCategory]string{
	CategoryInput:  "the site list needs a header row with a domain column",
	CategoryGit:    "check template.url, template.branch and template.token",
	CategoryNotify: "check notify.nats_url or leave it empty to disable events",
}

// CLIErrorAdapter turns a command error into a message and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates an adapter writing to stderr.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil, the category's code for a SitegenError and 1 otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	se, ok := As(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[se.Category]; ok {
		return code
	}
	return 1
}

// FormatError renders err for the terminal. Verbose mode prints the full chain.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	se, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return se.Error()
	}

	msg := se.Message
	switch {
	case se.Category == CategoryConfig || se.Category == CategoryValidation:
	case se.Cause != nil:
		msg = fmt.Sprintf("%s: %s: %v", se.Category, se.Message, se.Cause)
	default:
		msg = fmt.Sprintf("%s: %s", se.Category, se.Message)
	}
	if hint, ok := hints[se.Category]; ok {
		msg += "\n  hint: " + hint
	}
	return msg
}

// HandleError reports err and exits. A nil error is ignored.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	se, ok := As(err)
	if a.verbose || !ok {
		return true
	}
	return se.Severity == SeverityFatal || se.Category == CategoryInternal || se.Category == CategoryRuntime
}

func (a *CLIErrorAdapter) logError(err error) {
	se, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", slog.Any("error", err))
		return
	}

	keys := make([]string, 0, len(se.Context))
	for k := range se.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := []slog.Attr{slog.String("category", string(se.Category))}
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, se.Context[k]))
	}
	a.logger.LogAttrs(context.Background(), levelFor(se.Severity), se.Message, attrs...)
}

func levelFor(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
