// Package printer formats everything burrow prints for a human: command
// feedback, errors with suggestions, and the simulation notices.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Keep colors when piped; NO_COLOR still turns them off.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects command output and error output. It returns a func
// restoring the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		stdout, stderr = prevOut, prevErr
	}
}

// Success prints msg in green behind a checkmark.
func Success(format string, a ...any) {
	green.Fprint(stdout, withPrefix("✓ ", fmt.Sprintf(format, a...)))
}

// Info prints msg uncolored.
func Info(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

// Step prints one line of a multi-step operation.
func Step(format string, a ...any) {
	cyan.Fprint(stdout, withPrefix("→ ", fmt.Sprintf(format, a...)))
}

// Warning prints msg in yellow behind a warning sign.
func Warning(format string, a ...any) {
	yellow.Fprint(stderr, withPrefix("⚠️  ", fmt.Sprintf(format, a...)))
}

// Println prints a plain line.
func Println(a ...any) {
	fmt.Fprintln(stdout, a...)
}

// Error prints a titled error with an explanation and suggestions to stderr.
// The returned error carries only the title, which is what cobra sees.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error plus key/value details, printed in key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintln(stderr, explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(stderr)
		for _, k := range keys {
			fmt.Fprintf(stderr, "  %s: %s\n", k, context[k])
		}
	}

	writeSuggestions(stderr, suggestions)

	return fmt.Errorf("%s", title)
}

func writeSuggestions(w io.Writer, suggestions []string) {
	switch len(suggestions) {
	case 0:
		return
	case 1:
		fmt.Fprintf(w, "\n%s\n", suggestions[0])
	default:
		fmt.Fprint(w, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
}

func withPrefix(prefix, msg string) string {
	if strings.HasPrefix(msg, strings.TrimSpace(prefix)) {
		return msg
	}
	return prefix + msg
}
