package contracts

import (
	"fmt"
	"time"
)

// CompensationRecord is one undo step. It is a self-contained command
// record rather than a closure: Params carries everything the compensator
// needs, so the same representation serves live in-process rollback and
// reconstruction from persisted audit events in a later process.
type CompensationRecord struct {
	Kind        OperationKind     `json:"kind"`
	Params      map[string]string `json:"params"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewCompensationRecord builds a record for a compensable operation kind.
func NewCompensationRecord(kind OperationKind, params map[string]string, description string) (*CompensationRecord, error) {
	if !kind.Compensable() {
		return nil, fmt.Errorf("operation kind %s has no compensation", kind)
	}
	if params == nil {
		params = map[string]string{}
	}
	return &CompensationRecord{
		Kind:        kind,
		Params:      params,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// RollbackReport summarizes one executor drain.
type RollbackReport struct {
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Reason    string `json:"reason"`
}

// Clean reports whether every attempted compensation succeeded.
func (r RollbackReport) Clean() bool {
	return r.Failed == 0 && r.Attempted == r.Succeeded
}
