package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verox-wallet/verox/internal/kvstore"
	"github.com/verox-wallet/verox/internal/ledger"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

var errDiskFull = errors.New("disk full")

// brokenStore fails every write.
type brokenStore struct {
	*kvstore.MemoryStore
}

func (brokenStore) Put(context.Context, string, []byte) error { return errDiskFull }
func (brokenStore) Delete(context.Context, string) error      { return errDiskFull }

func hashN(i int) string {
	return fmt.Sprintf("0x%064x", i)
}

func record(i int) ledger.Record {
	return ledger.Record{
		Hash:        hashN(i),
		From:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Recipient:   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Amount:      "0.01",
		AssetSymbol: "ETH",
	}
}

func TestAppend_Defaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), 0)
	require.NoError(t, err)

	rec, err := l.Append(ctx, record(1))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, ledger.StatusPending, rec.Status)
	assert.WithinDuration(t, time.Now(), rec.SubmittedAt, time.Minute)
}

func TestAppend_CapMostRecentFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const capacity, extra = 5, 3

	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), capacity)
	require.NoError(t, err)

	for i := range capacity + extra {
		_, err := l.Append(ctx, record(i))
		require.NoError(t, err)
	}

	records := l.List()
	require.Len(t, records, capacity)
	for i, r := range records {
		assert.Equal(t, hashN(capacity+extra-1-i), r.Hash)
	}
}

func TestAppend_DefaultCap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), -1)
	require.NoError(t, err)

	for i := range ledger.DefaultMaxRecords + 1 {
		_, err := l.Append(ctx, record(i))
		require.NoError(t, err)
	}
	assert.Equal(t, ledger.DefaultMaxRecords, l.Len())
}

func TestAppend_DuplicateHashIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), 10)
	require.NoError(t, err)

	first, err := l.Append(ctx, record(1))
	require.NoError(t, err)
	_, err = l.Append(ctx, record(2))
	require.NoError(t, err)

	dup := record(1)
	dup.Amount = "99"
	got, err := l.Append(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, 2, l.Len())
}

func TestAppend_RequiresHash(t *testing.T) {
	t.Parallel()
	l, err := ledger.Open(context.Background(), kvstore.NewMemoryStore(), 10)
	require.NoError(t, err)

	_, err = l.Append(context.Background(), ledger.Record{AssetSymbol: "ETH"})
	require.ErrorIs(t, err, veroxerr.ErrInvalidInput)
	assert.Zero(t, l.Len())
}

func TestAppend_StorageFailureLeavesLedgerUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, brokenStore{kvstore.NewMemoryStore()}, 10)
	require.NoError(t, err)

	_, err = l.Append(ctx, record(1))
	require.ErrorIs(t, err, veroxerr.ErrStorage)
	require.ErrorIs(t, err, errDiskFull)
	assert.Zero(t, l.Len())
}

func TestOpen_Persistence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	l, err := ledger.Open(ctx, store, 10)
	require.NoError(t, err)
	for i := range 3 {
		_, err := l.Append(ctx, record(i))
		require.NoError(t, err)
	}
	require.NoError(t, l.UpdateStatus(ctx, hashN(1), ledger.StatusConfirmed))

	reopened, err := ledger.Open(ctx, store, 10)
	require.NoError(t, err)
	assert.Equal(t, l.List(), reopened.List())

	got, err := reopened.Get(hashN(1))
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, got.Status)

	// a smaller cap truncates the oldest entries on load
	small, err := ledger.Open(ctx, store, 2)
	require.NoError(t, err)
	require.Len(t, small.List(), 2)
	assert.Equal(t, hashN(2), small.List()[0].Hash)
}

func TestOpen_Corrupted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := map[string][]byte{
		"not json":      []byte("{oops"),
		"wrong version": []byte(`{"version":9,"records":[]}`),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := kvstore.NewMemoryStore()
			require.NoError(t, store.Put(ctx, ledger.RecordKey, data))

			_, err := ledger.Open(ctx, store, 10)
			require.ErrorIs(t, err, veroxerr.ErrLedgerCorrupted)
			assert.Equal(t, veroxerr.KindFatal, veroxerr.KindOf(err))
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), 10)
	require.NoError(t, err)
	_, err = l.Append(ctx, record(1))
	require.NoError(t, err)
	_, err = l.Append(ctx, record(2))
	require.NoError(t, err)

	require.ErrorIs(t, l.UpdateStatus(ctx, hashN(7), ledger.StatusFailed), veroxerr.ErrTransactionNotFound)
	require.ErrorIs(t, l.UpdateStatus(ctx, hashN(1), "mined"), veroxerr.ErrInvalidInput)

	require.NoError(t, l.UpdateStatus(ctx, hashN(1), ledger.StatusFailed))
	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, hashN(2), pending[0].Hash)

	// lookups ignore hash case
	_, err = l.Get(fmt.Sprintf("0x%064X", 0xabc))
	require.ErrorIs(t, err, veroxerr.ErrTransactionNotFound)
	_, err = l.Append(ctx, ledger.Record{Hash: fmt.Sprintf("0x%064x", 0xabc), AssetSymbol: "ETH"})
	require.NoError(t, err)
	_, err = l.Get(fmt.Sprintf("0x%064X", 0xabc))
	require.NoError(t, err)
}

func TestClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	l, err := ledger.Open(ctx, store, 10)
	require.NoError(t, err)
	_, err = l.Append(ctx, record(1))
	require.NoError(t, err)

	require.NoError(t, l.Clear(ctx))
	assert.Zero(t, l.Len())
	has, err := store.Has(ctx, ledger.RecordKey)
	require.NoError(t, err)
	assert.False(t, has)

	// clearing an empty ledger is fine
	require.NoError(t, l.Clear(ctx))
}

func TestList_ReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l, err := ledger.Open(ctx, kvstore.NewMemoryStore(), 10)
	require.NoError(t, err)
	_, err = l.Append(ctx, record(1))
	require.NoError(t, err)

	list := l.List()
	list[0].Status = ledger.StatusFailed
	assert.Equal(t, ledger.StatusPending, l.List()[0].Status)
}
