package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

var (
	errInner     = errors.New("inner")
	errRootCause = errors.New("root cause")
	errPlain     = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, veroxerr.ExitSuccess},
		{"general error", veroxerr.ErrGeneral, veroxerr.ExitGeneral},
		{"invalid mnemonic", veroxerr.ErrInvalidMnemonic, veroxerr.ExitInput},
		{"wrong password", veroxerr.ErrWrongPassword, veroxerr.ExitAuth},
		{"biometric denied", veroxerr.ErrBiometricDenied, veroxerr.ExitAuth},
		{"wallet locked", veroxerr.ErrWalletLocked, veroxerr.ExitState},
		{"no wallet", veroxerr.ErrNoWalletFound, veroxerr.ExitNotFound},
		{"network", veroxerr.ErrNetworkUnavailable, veroxerr.ExitNetwork},
		{"entropy", veroxerr.ErrEntropyUnavailable, veroxerr.ExitFatal},
		{"plain", errPlain, veroxerr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, veroxerr.ExitCode(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		expected veroxerr.Kind
	}{
		{veroxerr.ErrInvalidAddress, veroxerr.KindInput},
		{veroxerr.ErrInvalidAmount, veroxerr.KindInput},
		{veroxerr.ErrWrongPassword, veroxerr.KindAuth},
		{veroxerr.ErrWalletLocked, veroxerr.KindState},
		{veroxerr.ErrNoWalletFound, veroxerr.KindState},
		{veroxerr.ErrTxRejected, veroxerr.KindNetwork},
		{veroxerr.ErrVaultCorrupted, veroxerr.KindFatal},
		{errPlain, veroxerr.KindGeneral},
		{veroxerr.Wrap(veroxerr.ErrWalletLocked, "send"), veroxerr.KindState},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, veroxerr.KindOf(tt.err))
		})
	}
}

func TestRejected(t *testing.T) {
	t.Parallel()

	err := veroxerr.Rejected("nonce too low", -32000)
	require.ErrorIs(t, err, veroxerr.ErrTxRejected)
	assert.Equal(t, "nonce too low", veroxerr.RejectionReason(err))
	assert.Contains(t, err.Error(), "nonce too low")
	assert.False(t, veroxerr.IsRetryable(err))

	var ve *veroxerr.VeroxError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "-32000", ve.Details["rpc_code"])

	wrapped := fmt.Errorf("submit: %w", err)
	assert.Equal(t, "nonce too low", veroxerr.RejectionReason(wrapped))
	assert.Empty(t, veroxerr.RejectionReason(veroxerr.ErrNetworkUnavailable))
}

func TestStorage(t *testing.T) {
	t.Parallel()

	assert.NoError(t, veroxerr.Storage(nil))

	denied := &fs.PathError{Op: "open", Path: "/verox/vault", Err: fs.ErrPermission}
	err := veroxerr.Storage(fmt.Errorf("put vault: %w", denied))
	require.ErrorIs(t, err, veroxerr.ErrPermission)
	require.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, veroxerr.ExitPermission, veroxerr.ExitCode(err))
	assert.Equal(t, "PERMISSION_DENIED", veroxerr.Code(err))

	err = veroxerr.Storage(errInner)
	require.ErrorIs(t, err, veroxerr.ErrStorage)
	assert.Equal(t, veroxerr.ExitFatal, veroxerr.ExitCode(err))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, veroxerr.IsRetryable(veroxerr.ErrNetworkUnavailable))
	assert.True(t, veroxerr.IsRetryable(veroxerr.WrapWith(veroxerr.ErrNetworkUnavailable, errInner)))
	assert.False(t, veroxerr.IsRetryable(veroxerr.ErrWrongPassword))
	assert.False(t, veroxerr.IsRetryable(nil))
}

func TestWrapWith(t *testing.T) {
	t.Parallel()

	t.Run("keeps cause", func(t *testing.T) {
		t.Parallel()
		err := veroxerr.WrapWith(veroxerr.ErrEntropyUnavailable, errRootCause)
		require.ErrorIs(t, err, veroxerr.ErrEntropyUnavailable)
		require.ErrorIs(t, err, errRootCause)
		assert.Equal(t, veroxerr.ExitFatal, veroxerr.ExitCode(err))
	})

	t.Run("nil cause returns sentinel", func(t *testing.T) {
		t.Parallel()
		err := veroxerr.WrapWith(veroxerr.ErrWalletLocked, nil)
		assert.Equal(t, veroxerr.ErrWalletLocked, err)
	})
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	details := map[string]string{"word": "abandn"}
	suggestion := "Did you mean 'abandon'?"

	err := veroxerr.WithDetails(veroxerr.ErrInvalidMnemonic, details)
	err = veroxerr.WithSuggestion(err, suggestion)

	var ve *veroxerr.VeroxError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, details, ve.Details)
	assert.Equal(t, suggestion, ve.Suggestion)
	assert.Equal(t, veroxerr.KindInput, ve.Kind)
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("preserves identity", func(t *testing.T) {
		t.Parallel()
		wrapped := veroxerr.Wrap(veroxerr.ErrNoWalletFound, "unlock %s", "vault")
		assert.Contains(t, wrapped.Error(), "unlock vault")
		require.ErrorIs(t, wrapped, veroxerr.ErrNoWalletFound)
		assert.False(t, veroxerr.Is(wrapped, veroxerr.ErrWalletLocked))
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, veroxerr.Wrap(nil, "context"))
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		wrapped := veroxerr.Wrap(errPlain, "context")
		var ve *veroxerr.VeroxError
		require.ErrorAs(t, wrapped, &ve)
		assert.Equal(t, "GENERAL_ERROR", ve.Code)
		assert.Equal(t, errPlain, ve.Cause)
	})
}

func TestVeroxError_Error(t *testing.T) {
	t.Parallel()

	t.Run("with details sorted", func(t *testing.T) {
		t.Parallel()
		err := &veroxerr.VeroxError{
			Code:    "TEST",
			Message: "failed",
			Details: map[string]string{"beta": "2", "alpha": "1"},
		}
		assert.Equal(t, "failed (alpha: 1) (beta: 2)", err.Error())
	})

	t.Run("with details and cause", func(t *testing.T) {
		t.Parallel()
		err := &veroxerr.VeroxError{
			Code:    "TEST",
			Message: "outer",
			Details: map[string]string{"key": "val"},
			Cause:   errInner,
		}
		assert.Equal(t, "outer (key: val): inner", err.Error())
		assert.Equal(t, errInner, err.Unwrap())
	})
}

func TestCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "WALLET_LOCKED", veroxerr.Code(veroxerr.ErrWalletLocked))
	assert.Equal(t, "GENERAL_ERROR", veroxerr.Code(errPlain))
	assert.Equal(t, "GENERAL_ERROR", veroxerr.Code(nil))
}
