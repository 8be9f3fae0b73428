package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// ErrorOutput is the JSON shape of a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Kind       string            `json:"kind"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Retryable  bool              `json:"retryable"`
	ExitCode   int               `json:"exit_code"`
}

// Describe converts err into its reportable form.
func Describe(err error) ErrorDetail {
	d := ErrorDetail{
		Code:      veroxerr.Code(err),
		Kind:      string(veroxerr.KindOf(err)),
		Message:   err.Error(),
		Retryable: veroxerr.IsRetryable(err),
		ExitCode:  veroxerr.ExitCode(err),
	}
	var ve *veroxerr.VeroxError
	if errors.As(err, &ve) {
		d.Message = ve.Message
		d.Details = ve.Details
		d.Suggestion = ve.Suggestion
	}
	return d
}

// FormatError writes err for the user. nil writes nothing.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	d := Describe(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", d.Message)
	if len(d.Details) > 0 {
		keys := make([]string, 0, len(d.Details))
		for k := range d.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}
	if d.Retryable {
		sb.WriteString("\nThe node could not be reached; it is safe to try again.\n")
	}
	_, werr := io.WriteString(w, sb.String())
	return werr
}
