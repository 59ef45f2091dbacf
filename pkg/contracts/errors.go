package contracts

import "fmt"

// ConfigurationError reports missing or invalid required input. It fails
// fast before any remote call and never triggers rollback.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Detail)
}

// GatewayFault wraps a remote call failure. Per-user faults during user
// provisioning are tallied and swallowed; phase-level faults are fatal.
type GatewayFault struct {
	Operation OperationKind
	Detail    string
	Err       error
}

func (e *GatewayFault) Error() string {
	return fmt.Sprintf("gateway fault during %s: %s: %v", e.Operation, e.Detail, e.Err)
}

func (e *GatewayFault) Unwrap() error { return e.Err }

// RollbackFault reports a failed compensation. It is recorded but never
// aborts the remaining compensation attempts.
type RollbackFault struct {
	Kind   OperationKind
	Detail string
	Err    error
}

func (e *RollbackFault) Error() string {
	return fmt.Sprintf("rollback fault for %s: %s: %v", e.Kind, e.Detail, e.Err)
}

func (e *RollbackFault) Unwrap() error { return e.Err }

// ReconstructionError reports that detached rollback could not be built
// from the persisted audit partition (missing execution id, zero matching
// events). No compensations are attempted.
type ReconstructionError struct {
	ExecutionID string
	Detail      string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("cannot reconstruct rollback for execution %s: %s", e.ExecutionID, e.Detail)
}
