// Package metrics provides application-level metrics collection using atomic
// counters. A Metrics value is created by the caller and passed to the
// services that record into it.
package metrics

import (
	"sync/atomic"
	"time"

	veroxerr "github.com/verox-wallet/verox/pkg/errors"
)

// Metrics holds application metrics. The zero value is ready to use and safe
// for concurrent recording.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal    atomic.Int64
	rpcErrorsTotal   atomic.Int64
	rpcRejectedTotal atomic.Int64
	rpcLatencyNanos  atomic.Int64

	// Wallet lifecycle (create, import, reset)
	walletOpsTotal  atomic.Int64
	walletOpsErrors atomic.Int64

	unlockAttempts atomic.Int64
	unlockFailures atomic.Int64

	sendsTotal  atomic.Int64
	sendsFailed atomic.Int64
}

// New returns an empty Metrics.
func New() *Metrics {
	return &Metrics{}
}

// RecordRPCCall records one JSON-RPC round trip. Rejections by the node are
// counted separately from transport failures.
func (m *Metrics) RecordRPCCall(_ string, duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	switch {
	case err == nil:
	case veroxerr.Is(err, veroxerr.ErrTxRejected):
		m.rpcRejectedTotal.Add(1)
	default:
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordWalletOp records a create, import or reset.
func (m *Metrics) RecordWalletOp(err error) {
	m.walletOpsTotal.Add(1)
	if err != nil {
		m.walletOpsErrors.Add(1)
	}
}

// RecordUnlock records an unlock attempt.
func (m *Metrics) RecordUnlock(err error) {
	m.unlockAttempts.Add(1)
	if err != nil {
		m.unlockFailures.Add(1)
	}
}

// RecordSend records a native or token send.
func (m *Metrics) RecordSend(err error) {
	m.sendsTotal.Add(1)
	if err != nil {
		m.sendsFailed.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal    int64 `json:"rpc_calls_total"`
	RPCErrorsTotal   int64 `json:"rpc_errors_total"`
	RPCRejectedTotal int64 `json:"rpc_rejected_total"`
	RPCLatencyNanos  int64 `json:"rpc_latency_nanos"`
	WalletOpsTotal   int64 `json:"wallet_ops_total"`
	WalletOpsErrors  int64 `json:"wallet_ops_errors"`
	UnlockAttempts   int64 `json:"unlock_attempts"`
	UnlockFailures   int64 `json:"unlock_failures"`
	SendsTotal       int64 `json:"sends_total"`
	SendsFailed      int64 `json:"sends_failed"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:    m.rpcCallsTotal.Load(),
		RPCErrorsTotal:   m.rpcErrorsTotal.Load(),
		RPCRejectedTotal: m.rpcRejectedTotal.Load(),
		RPCLatencyNanos:  m.rpcLatencyNanos.Load(),
		WalletOpsTotal:   m.walletOpsTotal.Load(),
		WalletOpsErrors:  m.walletOpsErrors.Load(),
		UnlockAttempts:   m.unlockAttempts.Load(),
		UnlockFailures:   m.unlockFailures.Load(),
		SendsTotal:       m.sendsTotal.Load(),
		SendsFailed:      m.sendsFailed.Load(),
	}
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds, 0 before
// the first call.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.rpcLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset sets all counters back to zero.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.rpcCallsTotal, &m.rpcErrorsTotal, &m.rpcRejectedTotal, &m.rpcLatencyNanos,
		&m.walletOpsTotal, &m.walletOpsErrors,
		&m.unlockAttempts, &m.unlockFailures,
		&m.sendsTotal, &m.sendsFailed,
	} {
		c.Store(0)
	}
}
