// Package output renders command results as text or JSON.
package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how results are rendered.
type Format string

// Supported formats. FormatAuto picks text for terminals and JSON for pipes.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// ParseFormat maps a user-supplied name to a Format; unknown names are auto.
func ParseFormat(s string) Format {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == FormatText || f == FormatJSON {
		return f
	}
	return FormatAuto
}

// DetectFormat resolves explicit against w. Only FormatAuto and the empty
// format depend on w.
func DetectFormat(w io.Writer, explicit Format) Format {
	switch explicit {
	case FormatText, FormatJSON:
		return explicit
	}
	if isTerminal(w) {
		return FormatText
	}
	return FormatJSON
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int
}

// Formatter writes every result of one command in a single format, so a
// JSON consumer always receives exactly one document.
type Formatter struct {
	format Format
	w      io.Writer
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: DetectFormat(w, format), w: w}
}

// Format returns the resolved format, never FormatAuto.
func (f *Formatter) Format() Format { return f.format }

// Writer returns the destination.
func (f *Formatter) Writer() io.Writer { return f.w }

// IsJSON reports whether results are JSON documents.
func (f *Formatter) IsJSON() bool { return f.format == FormatJSON }

// Emit writes v as an indented JSON document, or hands the writer to text.
func (f *Formatter) Emit(v any, text func(w io.Writer) error) error {
	if f.IsJSON() || text == nil {
		return writeJSON(f.w, v)
	}
	return text(f.w)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
