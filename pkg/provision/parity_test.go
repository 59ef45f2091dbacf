package provision

import (
	"context"
	"testing"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

// mutating methods the simulate path must never reach.
var mutatingMethods = map[string]bool{
	"SetCrossTenantPolicy":    true,
	"DeleteCrossTenantPolicy": true,
	"CreateSite":              true,
	"DeleteSite":              true,
	"CreateFolder":            true,
	"InviteGuest":             true,
	"RemoveUser":              true,
	"GrantHostAccess":         true,
	"SendMail":                true,
}

func runBoth(t *testing.T) (simulate, apply *Result, simGW *gateway.Fake) {
	t.Helper()
	profile := testProfile()
	profile.SkipB2BConfig = false
	profile.GuestTenantID = "t-fallback"

	simGW = gateway.NewFake()
	simGW.Tenants["guest.example.com"] = "t-guest"
	sp := NewPipeline(profile, simGW, contracts.ModeSimulate)
	simulate, err := sp.Run(context.Background())
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if sp.Ledger().Len() != 0 {
		t.Fatal("simulate must not stage compensations")
	}

	appGW := gateway.NewFake()
	appGW.Tenants["guest.example.com"] = "t-guest"
	ap := NewPipeline(profile, appGW, contracts.ModeApply)
	apply, err = ap.Run(context.Background())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return simulate, apply, simGW
}

func TestModeParityDecisionTrace(t *testing.T) {
	simulate, apply, _ := runBoth(t)
	if !simulate.Trace.Equal(apply.Trace) {
		t.Fatalf("decision traces diverge:\nsimulate %+v\napply    %+v",
			simulate.Trace.Decisions(), apply.Trace.Decisions())
	}
}

func TestModeParityStatistics(t *testing.T) {
	simulate, apply, _ := runBoth(t)
	if simulate.Stats != apply.Stats {
		t.Fatalf("statistics diverge: simulate %+v apply %+v", simulate.Stats, apply.Stats)
	}
}

func TestSimulateNeverMutates(t *testing.T) {
	_, _, simGW := runBoth(t)
	for _, call := range simGW.Calls {
		if mutatingMethods[call.Method] {
			t.Fatalf("simulate reached mutating method %s", call.Method)
		}
	}
}
