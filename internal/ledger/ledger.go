// Package ledger keeps the local, capped history of submitted transactions.
// Records are held most recent first and persisted as one document.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/verox-wallet/verox/internal/kvstore"
	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// RecordKey is the storage key of the ledger document.
const RecordKey = "ledger"

// DefaultMaxRecords is the cap applied when Open is given a non-positive max.
const DefaultMaxRecords = 50

const documentVersion = 1

// Status is the lifecycle state of a submitted transaction.
type Status string

// Transaction statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusFailed:
		return true
	}
	return false
}

// Record is one submitted transaction.
type Record struct {
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	Recipient   string    `json:"recipient"`
	Amount      string    `json:"amount"` // decimal, in AssetSymbol units
	AssetSymbol string    `json:"asset_symbol"`
	Token       string    `json:"token,omitempty"` // contract address for token sends
	SubmittedAt time.Time `json:"submitted_at"`
	Status      Status    `json:"status"`
}

type document struct {
	Version int      `json:"version"`
	Records []Record `json:"records"`
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	kv      kvstore.Store
	max     int
	records []Record
	now     func() time.Time
}

// Open loads the ledger from kv. A missing document is an empty ledger;
// an unreadable one is LEDGER_CORRUPTED.
func Open(ctx context.Context, kv kvstore.Store, maxRecords int) (*Ledger, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	l := &Ledger{kv: kv, max: maxRecords, now: time.Now}

	data, err := kv.Get(ctx, RecordKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		return l, nil
	case err != nil:
		return nil, veroxerr.Storage(err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, veroxerr.WrapWith(veroxerr.ErrLedgerCorrupted, err)
	}
	if doc.Version != documentVersion {
		return nil, veroxerr.WithDetails(veroxerr.ErrLedgerCorrupted, map[string]string{
			"version": fmt.Sprint(doc.Version),
		})
	}

	l.records = doc.Records
	if len(l.records) > l.max {
		l.records = l.records[:l.max]
	}
	return l, nil
}

// Append records a submission at the front of the ledger. A record whose
// hash is already present is not added again; the stored record is returned.
// ID, SubmittedAt and Status are filled in when empty.
func (l *Ledger) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.Hash == "" {
		return Record{}, veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"field": "hash"})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(rec.Hash); i >= 0 {
		return l.records[i], nil
	}

	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = l.now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	next := make([]Record, 0, min(len(l.records)+1, l.max))
	next = append(next, rec)
	next = append(next, l.records...)
	if len(next) > l.max {
		next = next[:l.max]
	}

	if err := l.persist(ctx, next); err != nil {
		return Record{}, err
	}
	l.records = next
	return rec, nil
}

// List returns a copy of all records, most recent first.
func (l *Ledger) List() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Pending returns the records still awaiting confirmation.
func (l *Ledger) Pending() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Record
	for _, r := range l.records {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records held.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Get looks a record up by transaction hash.
func (l *Ledger) Get(hash string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(hash); i >= 0 {
		return l.records[i], nil
	}
	return Record{}, veroxerr.WithDetails(veroxerr.ErrTransactionNotFound, map[string]string{"hash": hash})
}

// UpdateStatus sets the status of the record with hash.
func (l *Ledger) UpdateStatus(ctx context.Context, hash string, status Status) error {
	if !status.Valid() {
		return veroxerr.WithDetails(veroxerr.ErrInvalidInput, map[string]string{"status": string(status)})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(hash)
	if i < 0 {
		return veroxerr.WithDetails(veroxerr.ErrTransactionNotFound, map[string]string{"hash": hash})
	}
	if l.records[i].Status == status {
		return nil
	}

	next := make([]Record, len(l.records))
	copy(next, l.records)
	next[i].Status = status
	if err := l.persist(ctx, next); err != nil {
		return err
	}
	l.records = next
	return nil
}

// Clear removes every record and the persisted document.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(ctx, RecordKey); err != nil {
		return veroxerr.Storage(err)
	}
	l.records = nil
	return nil
}

func (l *Ledger) indexOf(hash string) int {
	for i := range l.records {
		if strings.EqualFold(l.records[i].Hash, hash) {
			return i
		}
	}
	return -1
}

// persist writes records; callers hold l.mu.
func (l *Ledger) persist(ctx context.Context, records []Record) error {
	data, err := json.Marshal(document{Version: documentVersion, Records: records})
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := l.kv.Put(ctx, RecordKey, data); err != nil {
		return veroxerr.Storage(err)
	}
	return nil
}
