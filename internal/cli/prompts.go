package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// Prompter reads secrets and confirmations from the user.
type Prompter interface {
	Password(prompt string) (string, error)
	// NewPassword asks for a password twice and fails if they differ.
	NewPassword() (string, error)
	Mnemonic() (string, error)
	Confirm(prompt string) bool
}

// TerminalPrompter prompts on Out and reads from In. Passwords are read
// without echo when In is a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter prompts on stderr and reads stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) line() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	s, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Password reads one password.
func (p *TerminalPrompter) Password(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.Out, prompt)

	fd := int(p.In.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return p.line()
	}
	pw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// NewPassword reads a password and its confirmation.
func (p *TerminalPrompter) NewPassword() (string, error) {
	return confirmPassword(p)
}

// Mnemonic reads a recovery phrase from one line.
func (p *TerminalPrompter) Mnemonic() (string, error) {
	_, _ = fmt.Fprintln(p.Out, "Enter your recovery phrase, words separated by spaces:")
	return p.line()
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *TerminalPrompter) Confirm(prompt string) bool {
	_, _ = fmt.Fprintf(p.Out, "%s [y/N]: ", prompt)
	s, err := p.line()
	if err != nil {
		return false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func confirmPassword(p Prompter) (string, error) {
	pw, err := p.Password("Enter encryption password: ")
	if err != nil {
		return "", err
	}
	confirm, err := p.Password("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", veroxerr.WithSuggestion(veroxerr.ErrInvalidInput, "passwords do not match")
	}
	return pw, nil
}
