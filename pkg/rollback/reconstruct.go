package rollback

import (
	"fmt"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// Reconstruct synthesizes a ledger for one past execution from persisted
// audit events. The original closures do not survive a process restart, so
// compensations are rebuilt from the attributes each forward event is
// required to carry: tenant_id for B2B policy, site_url for site creation,
// user_email + site_url for guest invitations.
//
// Events already describing rollback activity are skipped, as are forward
// events that did not complete. Records are pushed in forward (sequence)
// order so the executor drains them in correct reverse order.
func Reconstruct(events []*audit.Event, executionID string) (*Ledger, error) {
	run := audit.FilterExecution(events, executionID)
	if len(run) == 0 {
		return nil, &contracts.ReconstructionError{
			ExecutionID: executionID,
			Detail:      "no audit events match this execution identifier",
		}
	}

	ledger := NewLedger(true)
	for _, evt := range run {
		if evt.Status != audit.StatusCompleted || !evt.Kind.Compensable() {
			continue
		}
		params, err := compensationParams(evt)
		if err != nil {
			return nil, &contracts.ReconstructionError{ExecutionID: executionID, Detail: err.Error()}
		}
		rec, err := contracts.NewCompensationRecord(evt.Kind, params, reconstructedDescription(evt))
		if err != nil {
			return nil, &contracts.ReconstructionError{ExecutionID: executionID, Detail: err.Error()}
		}
		ledger.Push(rec)
	}

	if ledger.Len() == 0 {
		return nil, &contracts.ReconstructionError{
			ExecutionID: executionID,
			Detail:      "execution has no completed compensable operations",
		}
	}
	return ledger, nil
}

func compensationParams(evt *audit.Event) (map[string]string, error) {
	switch evt.Kind {
	case contracts.OpB2BConfiguration:
		if evt.Attrs[contracts.AttrTenantID] == "" {
			return nil, fmt.Errorf("event %d lacks %s", evt.Sequence, contracts.AttrTenantID)
		}
		return map[string]string{contracts.AttrTenantID: evt.Attrs[contracts.AttrTenantID]}, nil
	case contracts.OpSiteCreation:
		if evt.Attrs[contracts.AttrSiteURL] == "" {
			return nil, fmt.Errorf("event %d lacks %s", evt.Sequence, contracts.AttrSiteURL)
		}
		return map[string]string{contracts.AttrSiteURL: evt.Attrs[contracts.AttrSiteURL]}, nil
	case contracts.OpGuestInvitation:
		if evt.Attrs[contracts.AttrSiteURL] == "" || evt.Attrs[contracts.AttrUserEmail] == "" {
			return nil, fmt.Errorf("event %d lacks %s or %s", evt.Sequence, contracts.AttrSiteURL, contracts.AttrUserEmail)
		}
		return map[string]string{
			contracts.AttrSiteURL:   evt.Attrs[contracts.AttrSiteURL],
			contracts.AttrUserEmail: evt.Attrs[contracts.AttrUserEmail],
		}, nil
	default:
		return nil, fmt.Errorf("event %d has unexpected kind %s", evt.Sequence, evt.Kind)
	}
}

func reconstructedDescription(evt *audit.Event) string {
	switch evt.Kind {
	case contracts.OpB2BConfiguration:
		return fmt.Sprintf("remove cross-tenant policy for %s", evt.Attrs[contracts.AttrTenantID])
	case contracts.OpSiteCreation:
		return fmt.Sprintf("delete site %s", evt.Attrs[contracts.AttrSiteURL])
	case contracts.OpGuestInvitation:
		return fmt.Sprintf("remove %s from %s", evt.Attrs[contracts.AttrUserEmail], evt.Attrs[contracts.AttrSiteURL])
	default:
		return string(evt.Kind)
	}
}
