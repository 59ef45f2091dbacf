// Package contracts holds the shared value types of a provisioning run:
// the execution context, operation kinds, compensation records, and the
// error types the phases surface.
package contracts

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionMode selects whether a run mutates remote state or only
// projects what it would do.
type ExecutionMode string

const (
	ModeApply    ExecutionMode = "APPLY"
	ModeSimulate ExecutionMode = "SIMULATE"
)

// ExecutionContext is the immutable identity of one provisioning run.
// Every audit event and compensation carries its ExecutionID.
type ExecutionContext struct {
	ExecutionID       string        `json:"execution_id"`
	HostTenantDomain  string        `json:"host_tenant_domain"`
	GuestTenantDomain string        `json:"guest_tenant_domain"`
	AdminPrincipal    string        `json:"admin_principal"`
	Mode              ExecutionMode `json:"mode"`
	RollbackEnabled   bool          `json:"rollback_enabled"`
	StartedAt         time.Time     `json:"started_at"`
}

// NewExecutionContext mints a context with a fresh execution id.
func NewExecutionContext(hostDomain, guestDomain, adminPrincipal string, mode ExecutionMode, rollbackEnabled bool) *ExecutionContext {
	return &ExecutionContext{
		ExecutionID:       uuid.New().String(),
		HostTenantDomain:  hostDomain,
		GuestTenantDomain: guestDomain,
		AdminPrincipal:    adminPrincipal,
		Mode:              mode,
		RollbackEnabled:   rollbackEnabled,
		StartedAt:         time.Now().UTC(),
	}
}

// Simulated reports whether the run must not mutate remote state.
func (e *ExecutionContext) Simulated() bool {
	return e.Mode == ModeSimulate
}
