package contracts

import (
	"testing"
)

func TestNewExecutionContext(t *testing.T) {
	ctx := NewExecutionContext("host.example.com", "guest.example.com", "admin@host.example.com", ModeApply, true)
	if ctx.ExecutionID == "" {
		t.Fatal("expected execution id")
	}
	if ctx.Simulated() {
		t.Fatal("apply mode must not report simulated")
	}
	other := NewExecutionContext("host.example.com", "guest.example.com", "admin@host.example.com", ModeSimulate, false)
	if !other.Simulated() {
		t.Fatal("simulate mode must report simulated")
	}
	if ctx.ExecutionID == other.ExecutionID {
		t.Fatal("execution ids must be unique per invocation")
	}
}

func TestCompensable(t *testing.T) {
	compensable := []OperationKind{OpB2BConfiguration, OpSiteCreation, OpGuestInvitation}
	for _, k := range compensable {
		if !k.Compensable() {
			t.Fatalf("expected %s to be compensable", k)
		}
	}
	notCompensable := []OperationKind{OpFolderCreation, OpHostUserAdded, OpRollbackAction, OpScriptCompletion}
	for _, k := range notCompensable {
		if k.Compensable() {
			t.Fatalf("expected %s not to be compensable", k)
		}
	}
}

func TestNewCompensationRecord(t *testing.T) {
	rec, err := NewCompensationRecord(OpSiteCreation, map[string]string{AttrSiteURL: "https://host.example.com/sites/acme"}, "delete site")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != OpSiteCreation {
		t.Fatalf("expected site creation kind, got %s", rec.Kind)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected creation timestamp")
	}

	if _, err := NewCompensationRecord(OpHostUserAdded, nil, "never"); err == nil {
		t.Fatal("expected error for non-compensable kind")
	}
}

func TestRollbackReportClean(t *testing.T) {
	clean := RollbackReport{Attempted: 2, Succeeded: 2}
	if !clean.Clean() {
		t.Fatal("expected clean report")
	}
	dirty := RollbackReport{Attempted: 2, Succeeded: 1, Failed: 1}
	if dirty.Clean() {
		t.Fatal("expected dirty report")
	}
}

func TestDecisionTraceEqual(t *testing.T) {
	a := &DecisionTrace{}
	b := &DecisionTrace{}
	a.Record(Decision{Phase: "site", Action: "create", Target: "acme"})
	b.Record(Decision{Phase: "site", Action: "create", Target: "acme"})
	if !a.Equal(b) {
		t.Fatal("expected equal traces")
	}
	b.Record(Decision{Phase: "users", Action: "invite", Count: 1})
	if a.Equal(b) {
		t.Fatal("expected unequal traces after divergence")
	}
}
