package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/infobarbosa/janusgraph-lab/internal/harness"
)

// OutputFormat is the output format of a command.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Formatter writes command results.
type Formatter interface {
	PrintSuccess(message string) error
	PrintError(message string) error
	// PrintResult writes a structured result. Text formatters call text to
	// render it; JSON formatters encode data.
	PrintResult(data any, text func(w io.Writer) error) error
}

// TextFormatter writes human-readable output. Marks are colored only when
// the writer is a terminal.
type TextFormatter struct {
	writer io.Writer
	ok     *color.Color
	bad    *color.Color
}

// NewTextFormatter creates a TextFormatter writing to w.
func NewTextFormatter(w io.Writer) *TextFormatter {
	f := &TextFormatter{
		writer: w,
		ok:     color.New(color.FgGreen),
		bad:    color.New(color.FgRed, color.Bold),
	}
	if !isTerminal(w) {
		f.ok.DisableColor()
		f.bad.DisableColor()
	}
	return f
}

// PrintSuccess prints a message with a checkmark prefix.
func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := fmt.Fprintf(f.writer, "%s %s\n", f.ok.Sprint("✓"), message)
	return err
}

// PrintError prints a message with an X prefix.
func (f *TextFormatter) PrintError(message string) error {
	_, err := fmt.Fprintf(f.writer, "%s %s\n", f.bad.Sprint("✗"), message)
	return err
}

func isTerminal(w io.Writer) bool {
	fd, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(fd.Fd()))
}

// PrintResult renders data through text.
func (f *TextFormatter) PrintResult(data any, text func(w io.Writer) error) error {
	return text(f.writer)
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a JSONFormatter writing to w.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// PrintSuccess prints {"status": "success", "message": ...}.
func (f *JSONFormatter) PrintSuccess(message string) error {
	return f.encode(map[string]any{"status": "success", "message": message})
}

// PrintError prints {"status": "error", "message": ...}.
func (f *JSONFormatter) PrintError(message string) error {
	return f.encode(map[string]any{"status": "error", "message": message})
}

// PrintResult encodes data.
func (f *JSONFormatter) PrintResult(data any, _ func(w io.Writer) error) error {
	return f.encode(data)
}

func (f *JSONFormatter) encode(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// NewFormatter returns the formatter for format.
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if format == FormatJSON {
		return NewJSONFormatter(w)
	}
	return NewTextFormatter(w)
}

// WriteReport renders a battery report the way an operator reads it: one
// numbered section per check with its findings underneath.
func WriteReport(w io.Writer, r *harness.Report) error {
	var b strings.Builder
	for i, res := range r.Results {
		title := res.Title
		if title == "" {
			title = res.Name
		}
		fmt.Fprintf(&b, "=== %d) %s ===\n", i+1, title)

		switch {
		case res.Status == harness.StatusError:
			fmt.Fprintf(&b, "[ERROR] %s\n", res.Detail)
		case res.Count != nil:
			fmt.Fprintf(&b, "Total: %d\n", *res.Count)
		case res.Kind == harness.KindFindPaths:
			if len(res.Paths) == 0 {
				b.WriteString("No paths found.\n")
			}
			for _, p := range res.Paths {
				fmt.Fprintf(&b, " - %s (%d hops)\n", p, p.Hops())
			}
		default:
			if len(res.Values) == 0 {
				b.WriteString("No results.\n")
			}
			for _, v := range res.Values {
				fmt.Fprintf(&b, " - %v\n", v)
			}
		}
		if res.Status == harness.StatusMismatch {
			fmt.Fprintf(&b, "[MISMATCH] %s\n", res.Detail)
		}
		b.WriteString("\n")
	}

	tally := r.Tally()
	fmt.Fprintf(&b, "%d checks: %d ok, %d mismatched, %d errored (%s)\n",
		len(r.Results), tally[harness.StatusOK], tally[harness.StatusMismatch], tally[harness.StatusError],
		r.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}
