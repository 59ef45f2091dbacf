// Package audit implements the append-only execution trail: an in-memory
// hash-chained store per run, a file-per-day JSONL partition sink, and a
// sqlite archive index for queries by execution identifier.
package audit

import (
	"time"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// Status reports the outcome of the audited operation.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Event is one immutable fact about something that happened during a run.
// Events are append-only; they are never mutated or deleted. For compensable
// operation kinds, Attrs must carry the full parameter set a detached
// rollback needs (site_url; user_email + site_url; tenant_id).
type Event struct {
	EventID     string                 `json:"event_id"`
	ExecutionID string                 `json:"execution_id"`
	Sequence    uint64                 `json:"sequence"`
	Timestamp   time.Time              `json:"timestamp"`
	Kind        contracts.OperationKind `json:"kind"`
	Status      Status                 `json:"status"`
	Detail      string                 `json:"detail"`
	Attrs       map[string]string      `json:"attrs,omitempty"`
	PrevHash    string                 `json:"prev_hash"`
	EntryHash   string                 `json:"entry_hash"`
}
