// Package rollback implements the compensating-action ledger and its
// executor. Compensations are pushed in forward-success order and drained
// in strict reverse, best-effort: one failed compensation never stops the
// rest.
package rollback

import (
	"sync"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// Ledger is the ordered stack of compensating actions of one execution.
// Insertion order equals chronological forward-action order. When rollback
// is disabled for the run, Push is a no-op and the ledger stays empty;
// disabling rollback must not silently accumulate unused state.
type Ledger struct {
	mu      sync.Mutex
	enabled bool
	records []*contracts.CompensationRecord
}

// NewLedger creates a ledger. enabled mirrors the run's rollback flag.
func NewLedger(enabled bool) *Ledger {
	return &Ledger{enabled: enabled}
}

// Enabled reports whether pushes are being recorded.
func (l *Ledger) Enabled() bool {
	return l.enabled
}

// Push appends a compensation. Call it only after the forward action
// irreversibly succeeded.
func (l *Ledger) Push(rec *contracts.CompensationRecord) {
	if !l.enabled || rec == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Len returns the number of pending compensations.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Drain removes and returns all records in push order. Each record leaves
// the ledger exactly once; a drained ledger is empty.
func (l *Ledger) Drain() []*contracts.CompensationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.records
	l.records = nil
	return out
}
