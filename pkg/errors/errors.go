// Package errors provides structured error handling for verox.
// It defines sentinel errors grouped by kind, exit codes, and helpers for
// adding context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitState      = 5 // Operation not valid in the current wallet state
	ExitNetwork    = 6 // Chain node unreachable or rejected the request
	ExitFatal      = 7 // Entropy or storage failure, not recoverable by retrying
	ExitPermission = 8 // Permission denied
)

// Kind groups error codes by how a caller should react to them.
type Kind string

// Error kinds.
const (
	KindGeneral Kind = "general"
	KindInput   Kind = "input"   // fix the input and try again
	KindAuth    Kind = "auth"    // re-prompt for credentials
	KindState   Kind = "state"   // unlock, create or import first
	KindNetwork Kind = "network" // inspect before retrying
	KindFatal   Kind = "fatal"   // stop and surface
)

// VeroxError is the structured error type for verox.
type VeroxError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
	Kind       Kind              // Reaction category
}

func (e *VeroxError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *VeroxError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for VeroxError.
func (e *VeroxError) Is(target error) bool {
	var t *VeroxError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &VeroxError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
		Kind:     KindGeneral,
	}

	// Input errors.
	ErrInvalidInput = &VeroxError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	ErrInvalidMnemonic = &VeroxError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	ErrInvalidAddress = &VeroxError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	ErrInvalidAmount = &VeroxError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	ErrWeakPassword = &VeroxError{
		Code:     "WEAK_PASSWORD",
		Message:  "password does not meet the minimum length",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	ErrConfigInvalid = &VeroxError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
		Kind:     KindInput,
	}

	// Authentication errors.
	ErrWrongPassword = &VeroxError{
		Code:     "WRONG_PASSWORD",
		Message:  "wrong password",
		ExitCode: ExitAuth,
		Kind:     KindAuth,
	}

	ErrBiometricDenied = &VeroxError{
		Code:     "BIOMETRIC_DENIED",
		Message:  "biometric verification denied",
		ExitCode: ExitAuth,
		Kind:     KindAuth,
	}

	// State errors.
	ErrWalletLocked = &VeroxError{
		Code:     "WALLET_LOCKED",
		Message:  "wallet is locked",
		ExitCode: ExitState,
		Kind:     KindState,
	}

	ErrNoWalletFound = &VeroxError{
		Code:     "NO_WALLET_FOUND",
		Message:  "no wallet found",
		ExitCode: ExitNotFound,
		Kind:     KindState,
	}

	ErrWalletExists = &VeroxError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitState,
		Kind:     KindState,
	}

	ErrTransactionNotFound = &VeroxError{
		Code:     "TRANSACTION_NOT_FOUND",
		Message:  "transaction not found",
		ExitCode: ExitNotFound,
		Kind:     KindState,
	}

	ErrTokenNotFound = &VeroxError{
		Code:     "TOKEN_NOT_FOUND",
		Message:  "token contract not found",
		ExitCode: ExitNotFound,
		Kind:     KindInput,
	}

	// Network errors.
	ErrNetworkUnavailable = &VeroxError{
		Code:     "NETWORK_UNAVAILABLE",
		Message:  "chain node unavailable",
		ExitCode: ExitNetwork,
		Kind:     KindNetwork,
	}

	ErrTxRejected = &VeroxError{
		Code:     "TX_REJECTED",
		Message:  "rejected by chain node",
		ExitCode: ExitNetwork,
		Kind:     KindNetwork,
	}

	// Fatal errors.
	ErrEntropyUnavailable = &VeroxError{
		Code:     "ENTROPY_UNAVAILABLE",
		Message:  "secure random source unavailable",
		ExitCode: ExitFatal,
		Kind:     KindFatal,
	}

	ErrVaultCorrupted = &VeroxError{
		Code:     "VAULT_CORRUPTED",
		Message:  "vault record is corrupted",
		ExitCode: ExitFatal,
		Kind:     KindFatal,
	}

	ErrLedgerCorrupted = &VeroxError{
		Code:     "LEDGER_CORRUPTED",
		Message:  "transaction ledger is corrupted",
		ExitCode: ExitFatal,
		Kind:     KindFatal,
	}

	ErrStorage = &VeroxError{
		Code:     "STORAGE_FAILURE",
		Message:  "storage operation failed",
		ExitCode: ExitFatal,
		Kind:     KindFatal,
	}

	ErrPermission = &VeroxError{
		Code:     "PERMISSION_DENIED",
		Message:  "permission denied",
		ExitCode: ExitPermission,
		Kind:     KindFatal,
	}
)

// Rejected returns a TX_REJECTED error carrying the node's reason verbatim
// and the JSON-RPC error code it came with.
func Rejected(reason string, rpcCode int) error {
	return WithDetails(ErrTxRejected, map[string]string{
		"reason":   reason,
		"rpc_code": strconv.Itoa(rpcCode),
	})
}

// Storage tags a persistence failure. Permission problems surface as
// PERMISSION_DENIED, everything else as STORAGE_FAILURE.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return WithSuggestion(WrapWith(ErrPermission, err), "Check the ownership and mode of the verox home directory")
	}
	return WrapWith(ErrStorage, err)
}

// RejectionReason returns the reason attached by Rejected, if any.
func RejectionReason(err error) string {
	var ve *VeroxError
	if errors.As(err, &ve) && ve.Code == ErrTxRejected.Code {
		return ve.Details["reason"]
	}
	return ""
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ve *VeroxError
	if errors.As(err, &ve) {
		return &VeroxError{
			Code:       ve.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ve.Message),
			Details:    ve.Details,
			Suggestion: ve.Suggestion,
			Cause:      err,
			ExitCode:   ve.ExitCode,
			Kind:       ve.Kind,
		}
	}

	return &VeroxError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
		Kind:     KindGeneral,
	}
}

// WrapWith tags cause with the code and kind of sentinel. Use it when a
// low-level failure needs to surface as a specific taxonomy member.
func WrapWith(sentinel *VeroxError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &VeroxError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
		Kind:       sentinel.Kind,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ve *VeroxError
	if errors.As(err, &ve) {
		return &VeroxError{
			Code:       ve.Code,
			Message:    ve.Message,
			Details:    details,
			Suggestion: ve.Suggestion,
			Cause:      ve.Cause,
			ExitCode:   ve.ExitCode,
			Kind:       ve.Kind,
		}
	}

	return &VeroxError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
		Kind:     KindGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ve *VeroxError
	if errors.As(err, &ve) {
		return &VeroxError{
			Code:       ve.Code,
			Message:    ve.Message,
			Details:    ve.Details,
			Suggestion: suggestion,
			Cause:      ve.Cause,
			ExitCode:   ve.ExitCode,
			Kind:       ve.Kind,
		}
	}

	return &VeroxError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
		Kind:       KindGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *VeroxError
	if errors.As(err, &ve) {
		return ve.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ve *VeroxError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return "GENERAL_ERROR"
}

// KindOf returns the kind of an error, KindGeneral for foreign errors.
func KindOf(err error) Kind {
	var ve *VeroxError
	if errors.As(err, &ve) && ve.Kind != "" {
		return ve.Kind
	}
	return KindGeneral
}

// IsRetryable reports whether the caller may retry the same operation.
// Only transport failures qualify; rejections are final.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
