package output

import (
	"fmt"
	"io"
)

// Info writes an informational line.
func Info(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "ℹ️  "+format+"\n", args...)
}

// Warn writes a warning line. Callers pass stderr.
func Warn(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "⚠️  "+format+"\n", args...)
}

// Success writes a success line.
func Success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "✅ "+format+"\n", args...)
}
