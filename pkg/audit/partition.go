package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// PartitionWriter appends events to file-per-day JSONL partitions,
// audit-YYYY-MM-DD.jsonl, one JSON record per line. Multiple executions
// interleave in the same partition and are disambiguated by execution id.
type PartitionWriter struct {
	mu  sync.Mutex
	dir string
}

// NewPartitionWriter creates a writer rooted at dir, creating it if needed.
func NewPartitionWriter(dir string) (*PartitionWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &PartitionWriter{dir: dir}, nil
}

// PartitionPath returns the partition file for the given day.
func (w *PartitionWriter) PartitionPath(day time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("audit-%s.jsonl", day.UTC().Format("2006-01-02")))
}

// Write appends one event to its day partition.
func (w *PartitionWriter) Write(evt *Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.PartitionPath(evt.Timestamp)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit partition: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Handler adapts the writer to a Trail handler. Sink errors must not fail
// the forward operation, so they are surfaced through onError.
func (w *PartitionWriter) Handler(onError func(error)) EventHandler {
	return func(evt *Event) {
		if err := w.Write(evt); err != nil && onError != nil {
			onError(err)
		}
	}
}

// ReadPartition parses one JSONL partition file.
func ReadPartition(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit partition: %w", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, fmt.Errorf("malformed audit record at %s:%d: %w", path, line, err)
		}
		events = append(events, &evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit partition: %w", err)
	}
	return events, nil
}

// ReadDirectory parses every partition under dir, oldest partition first.
func ReadDirectory(dir string) ([]*Event, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var all []*Event
	for _, path := range matches {
		events, err := ReadPartition(path)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

// FilterExecution returns the events belonging to one execution id, in
// their original (sequence) order.
func FilterExecution(events []*Event, executionID string) []*Event {
	var out []*Event
	for _, evt := range events {
		if evt.ExecutionID == executionID {
			out = append(out, evt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// VerifyEvents checks the hash chain of every execution present in events.
// Returns the first broken chain found.
func VerifyEvents(events []*Event) error {
	byExecution := make(map[string][]*Event)
	var order []string
	for _, evt := range events {
		if _, seen := byExecution[evt.ExecutionID]; !seen {
			order = append(order, evt.ExecutionID)
		}
		byExecution[evt.ExecutionID] = append(byExecution[evt.ExecutionID], evt)
	}
	for _, id := range order {
		run := FilterExecution(byExecution[id], id)
		if err := verifyChain(run); err != nil {
			return fmt.Errorf("execution %s: %w", id, err)
		}
	}
	return nil
}
