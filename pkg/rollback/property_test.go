//go:build property
// +build property

package rollback_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
	"github.com/Mindburn-Labs/tenantbridge/pkg/rollback"
)

func newTrail() *audit.Trail {
	exec := contracts.NewExecutionContext("host.example.com", "guest.example.com", "admin@host.example.com", contracts.ModeApply, true)
	return audit.NewTrail(exec)
}

// TestCompensationOrderIsReversed verifies that for any number of pushed
// compensations, the executor consumes them in strict reverse push order.
func TestCompensationOrderIsReversed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("drain order is reverse of push order", prop.ForAll(
		func(n int) bool {
			gw := gateway.NewFake()
			site := "https://host.example.com/sites/prop"
			gw.Sites[site] = true

			l := rollback.NewLedger(true)
			for i := 0; i < n; i++ {
				email := fmt.Sprintf("user%d@guest.example.com", i)
				gw.SiteUsers[site] = append(gw.SiteUsers[site], email)
				rec, err := contracts.NewCompensationRecord(contracts.OpGuestInvitation, map[string]string{
					contracts.AttrSiteURL:   site,
					contracts.AttrUserEmail: email,
				}, "remove "+email)
				if err != nil {
					return false
				}
				l.Push(rec)
			}

			report := rollback.NewExecutor(gw, newTrail(), nil).ExecuteAll(context.Background(), l, "property")
			if report.Attempted != n || !report.Clean() {
				return false
			}
			for i, c := range gw.Calls {
				wantEmail := fmt.Sprintf("user%d@guest.example.com", n-1-i)
				if c.Method != "RemoveUser" || c.Args[1] != wantEmail {
					return false
				}
			}
			return len(gw.Calls) == n
		},
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}

// TestBestEffortAttemptsEverything verifies a failing compensation never
// shortens the drain: attempts always equal the ledger length.
func TestBestEffortAttemptsEverything(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("attempts == ledger length under injected failures", prop.ForAll(
		func(n, failAfter int) bool {
			gw := gateway.NewFake()
			site := "https://host.example.com/sites/prop"
			gw.Sites[site] = true
			if failAfter < n {
				gw.FailAfter("RemoveUser", failAfter, errors.New("throttled"))
			}

			l := rollback.NewLedger(true)
			for i := 0; i < n; i++ {
				email := fmt.Sprintf("user%d@guest.example.com", i)
				gw.SiteUsers[site] = append(gw.SiteUsers[site], email)
				rec, err := contracts.NewCompensationRecord(contracts.OpGuestInvitation, map[string]string{
					contracts.AttrSiteURL:   site,
					contracts.AttrUserEmail: email,
				}, "remove "+email)
				if err != nil {
					return false
				}
				l.Push(rec)
			}

			report := rollback.NewExecutor(gw, newTrail(), nil).ExecuteAll(context.Background(), l, "property")
			if report.Attempted != n {
				return false
			}
			return report.Succeeded+report.Failed == n
		},
		gen.IntRange(0, 25),
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}
