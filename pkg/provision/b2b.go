package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

// runB2BPhase configures the cross-tenant collaboration policy.
//
// Tenant resolution is a read-only lookup, so it runs in both modes. When
// the lookup fails the phase degrades to the operator-provided tenant id;
// with neither available the phase is skipped with a warning, never a
// fault.
func (p *Pipeline) runB2BPhase(ctx context.Context) error {
	if p.profile.SkipB2BConfig {
		p.decide(contracts.Decision{Phase: "b2b", Action: "skip"})
		return nil
	}

	tenantID, err := p.gw.ResolveTenantID(ctx, p.profile.GuestTenantDomain)
	if err != nil {
		if !errors.Is(err, gateway.ErrNotFound) {
			return &contracts.GatewayFault{Operation: contracts.OpB2BConfiguration, Detail: "tenant lookup failed", Err: err}
		}
		tenantID = p.profile.GuestTenantID
	}
	if tenantID == "" {
		p.warn("guest tenant %s could not be resolved and no fallback id was supplied; skipping B2B configuration", p.profile.GuestTenantDomain)
		p.decide(contracts.Decision{Phase: "b2b", Action: "skip-unresolved"})
		return nil
	}

	p.decide(contracts.Decision{Phase: "b2b", Action: "configure", Target: tenantID})
	if !p.applying() {
		p.logger.Info("simulate: would set cross-tenant policy", "tenant_id", tenantID)
		return nil
	}

	policy := gateway.CrossTenantPolicy{GuestTenantID: tenantID, InboundEnabled: true, OutboundEnabled: true}
	if err := p.gw.SetCrossTenantPolicy(ctx, tenantID, policy); err != nil {
		return &contracts.GatewayFault{Operation: contracts.OpB2BConfiguration, Detail: "failed to set cross-tenant policy", Err: err}
	}

	if _, aerr := p.trail.Append(contracts.OpB2BConfiguration, audit.StatusCompleted,
		fmt.Sprintf("cross-tenant policy set for %s", p.profile.GuestTenantDomain),
		map[string]string{contracts.AttrTenantID: tenantID},
	); aerr != nil {
		p.logger.Error("failed to audit B2B configuration", "error", aerr)
	}

	rec, err := contracts.NewCompensationRecord(contracts.OpB2BConfiguration,
		map[string]string{contracts.AttrTenantID: tenantID},
		fmt.Sprintf("remove cross-tenant policy for %s", tenantID))
	if err == nil {
		p.ledger.Push(rec)
	}
	p.inventory.B2BTenantIDs = append(p.inventory.B2BTenantIDs, tenantID)
	return nil
}
