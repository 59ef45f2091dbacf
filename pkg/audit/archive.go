package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// ArchiveIndex mirrors appended events into a local sqlite database so
// they can be queried by execution id without scanning JSONL partitions.
// The partitions remain the source of truth; the index is derived and can
// be rebuilt from them at any time.
type ArchiveIndex struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	event_id TEXT PRIMARY KEY,
	execution_id TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT,
	attrs TEXT,
	prev_hash TEXT NOT NULL,
	entry_hash TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_execution ON audit_events(execution_id, sequence);
`

// OpenArchive opens (or creates) the archive database at path.
func OpenArchive(path string) (*ArchiveIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit archive: %w", err)
	}
	return &ArchiveIndex{db: db}, nil
}

// Close releases the underlying database.
func (a *ArchiveIndex) Close() error {
	return a.db.Close()
}

// Insert indexes one event. Re-inserting the same event id is a no-op, so
// rebuilding from partitions is idempotent.
func (a *ArchiveIndex) Insert(ctx context.Context, evt *Event) error {
	attrs, err := json.Marshal(evt.Attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal attrs: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audit_events
			(event_id, execution_id, sequence, timestamp, kind, status, detail, attrs, prev_hash, entry_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, evt.EventID, evt.ExecutionID, evt.Sequence, evt.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
		string(evt.Kind), string(evt.Status), evt.Detail, string(attrs), evt.PrevHash, evt.EntryHash)
	if err != nil {
		return fmt.Errorf("failed to index audit event: %w", err)
	}
	return nil
}

// ByExecution returns the indexed events of one execution in sequence order.
func (a *ArchiveIndex) ByExecution(ctx context.Context, executionID string) ([]*Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT event_id, execution_id, sequence, timestamp, kind, status, detail, attrs, prev_hash, entry_hash
		FROM audit_events WHERE execution_id = ? ORDER BY sequence
	`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit archive: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var evt Event
		var ts, kind, status, attrs string
		if err := rows.Scan(&evt.EventID, &evt.ExecutionID, &evt.Sequence, &ts, &kind, &status, &evt.Detail, &attrs, &evt.PrevHash, &evt.EntryHash); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		evt.Kind = contracts.OperationKind(kind)
		evt.Status = Status(status)
		if err := parseTimestamp(ts, &evt); err != nil {
			return nil, err
		}
		if attrs != "" && attrs != "null" {
			if err := json.Unmarshal([]byte(attrs), &evt.Attrs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attrs: %w", err)
			}
		}
		events = append(events, &evt)
	}
	return events, rows.Err()
}

func parseTimestamp(ts string, evt *Event) error {
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("malformed timestamp in audit archive: %w", err)
	}
	evt.Timestamp = parsed
	return nil
}

// Handler adapts the index to a Trail handler; indexing failures must not
// fail the forward operation.
func (a *ArchiveIndex) Handler(onError func(error)) EventHandler {
	return func(evt *Event) {
		if err := a.Insert(context.Background(), evt); err != nil && onError != nil {
			onError(err)
		}
	}
}
