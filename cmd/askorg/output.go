package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/askorg/internal/format"
	"github.com/kalambet/askorg/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printAnswer(r format.Response) {
	fmt.Fprintln(stdout, r.FormattedAnswer)
	meta := fmt.Sprintf("→ %s (%s) · %s", r.QueryType, r.Parameter, r.Summary)
	fmt.Fprintln(stdout, colorize(colorCyan, meta))
}

func printHistoryRecord(r storage.QueryRecord) {
	ts := r.CreatedAt.Local().Format("2006-01-02 15:04:05")
	head := fmt.Sprintf("%s  %s", ts, colorize(colorBold, r.Question))
	fmt.Fprintln(stdout, head)
	fmt.Fprintf(stdout, "    %s (%s), %d rows\n", r.IntentType, r.Parameter, r.RowCount)
	if r.Answer != "" {
		first, _, _ := strings.Cut(r.Answer, "\n")
		fmt.Fprintf(stdout, "    %s\n", first)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
