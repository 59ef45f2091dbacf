package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

var (
	ErrChainBroken = errors.New("audit chain is broken")
)

const genesisHash = "genesis"

// EventHandler is called synchronously for every appended event.
type EventHandler func(evt *Event)

// Trail is the append-only audit log of one execution. Entries are
// hash-chained: each entry hash covers the previous hash, so any mutation
// or reordering is detectable. A Trail belongs to exactly one
// ExecutionContext and has a single writer.
type Trail struct {
	mu        sync.RWMutex
	execution *contracts.ExecutionContext
	events    []*Event
	sequence  uint64
	chainHead string
	handlers  []EventHandler
	clock     func() time.Time
}

// NewTrail creates an empty trail for the given execution.
func NewTrail(execution *contracts.ExecutionContext) *Trail {
	return &Trail{
		execution: execution,
		events:    make([]*Event, 0),
		chainHead: genesisHash,
		clock:     time.Now,
	}
}

// WithClock overrides the clock for testing.
func (t *Trail) WithClock(clock func() time.Time) *Trail {
	t.clock = clock
	return t
}

// AddHandler registers a handler invoked for every future append.
func (t *Trail) AddHandler(h EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

// Append records one event and returns it.
func (t *Trail) Append(kind contracts.OperationKind, status Status, detail string, attrs map[string]string) (*Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sequence++
	evt := &Event{
		EventID:     uuid.New().String(),
		ExecutionID: t.execution.ExecutionID,
		Sequence:    t.sequence,
		Timestamp:   t.clock().UTC(),
		Kind:        kind,
		Status:      status,
		Detail:      detail,
		Attrs:       attrs,
		PrevHash:    t.chainHead,
	}

	hash, err := computeEntryHash(evt)
	if err != nil {
		t.sequence--
		return nil, fmt.Errorf("failed to hash audit event: %w", err)
	}
	evt.EntryHash = hash
	t.chainHead = hash
	t.events = append(t.events, evt)

	for _, h := range t.handlers {
		h(evt)
	}
	return evt, nil
}

// Events returns all recorded events in append order.
func (t *Trail) Events() []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Event, len(t.events))
	copy(out, t.events)
	return out
}

// Len returns the number of recorded events.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// ChainHead returns the current head hash.
func (t *Trail) ChainHead() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.chainHead
}

// Verify checks the integrity of the trail's hash chain.
func (t *Trail) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return verifyChain(t.events)
}

// computeEntryHash hashes the chained representation of an event. The
// representation is canonicalized per RFC 8785 so the hash is byte-stable
// across processes, which detached verification depends on.
func computeEntryHash(evt *Event) (string, error) {
	hashable := struct {
		ExecutionID string                  `json:"execution_id"`
		Sequence    uint64                  `json:"sequence"`
		Timestamp   time.Time               `json:"timestamp"`
		Kind        contracts.OperationKind `json:"kind"`
		Status      Status                  `json:"status"`
		Detail      string                  `json:"detail"`
		Attrs       map[string]string       `json:"attrs,omitempty"`
		PrevHash    string                  `json:"prev_hash"`
	}{evt.ExecutionID, evt.Sequence, evt.Timestamp, evt.Kind, evt.Status, evt.Detail, evt.Attrs, evt.PrevHash}

	raw, err := json.Marshal(hashable)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalization failed: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// verifyChain checks one execution's events, which must be in append order.
func verifyChain(events []*Event) error {
	expectedPrev := genesisHash
	for i, evt := range events {
		if evt.PrevHash != expectedPrev {
			return fmt.Errorf("%w: event %d has prev_hash %s, expected %s", ErrChainBroken, i+1, evt.PrevHash, expectedPrev)
		}
		computed, err := computeEntryHash(evt)
		if err != nil {
			return fmt.Errorf("%w: event %d hash computation failed: %v", ErrChainBroken, i+1, err)
		}
		if computed != evt.EntryHash {
			return fmt.Errorf("%w: event %d hash mismatch", ErrChainBroken, i+1)
		}
		expectedPrev = evt.EntryHash
	}
	return nil
}
