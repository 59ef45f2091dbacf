package rollback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

// Compensator undoes one forward operation kind from its recorded
// parameters. Implementations must be safe to run against an already
// cleaned-up target: the executor treats gateway.ErrNotFound as success.
type Compensator func(ctx context.Context, gw gateway.Gateway, params map[string]string) error

// Executor drains a ledger in reverse insertion order, auditing every
// attempt. It works the same for a live in-process ledger and for one
// reconstructed from persisted audit events.
type Executor struct {
	gw     gateway.Gateway
	trail  *audit.Trail
	logger *slog.Logger
	table  map[contracts.OperationKind]Compensator
	record func(ctx context.Context, kind string, succeeded bool)
}

// NewExecutor builds an executor with the standard dispatch table. The
// table deliberately has no entries for folder creation or host-access
// grants: deleting the site reclaims folders, and host permissions are
// never revoked automatically.
func NewExecutor(gw gateway.Gateway, trail *audit.Trail, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		gw:     gw,
		trail:  trail,
		logger: logger,
		table: map[contracts.OperationKind]Compensator{
			contracts.OpB2BConfiguration: compensateB2BPolicy,
			contracts.OpSiteCreation:     compensateSite,
			contracts.OpGuestInvitation:  compensateGuestInvitation,
		},
	}
}

// WithRecorder registers a per-attempt metrics callback.
func (e *Executor) WithRecorder(record func(ctx context.Context, kind string, succeeded bool)) *Executor {
	e.record = record
	return e
}

func compensateB2BPolicy(ctx context.Context, gw gateway.Gateway, params map[string]string) error {
	tenantID := params[contracts.AttrTenantID]
	if tenantID == "" {
		return fmt.Errorf("compensation record is missing %s", contracts.AttrTenantID)
	}
	return gw.DeleteCrossTenantPolicy(ctx, tenantID)
}

func compensateSite(ctx context.Context, gw gateway.Gateway, params map[string]string) error {
	url := params[contracts.AttrSiteURL]
	if url == "" {
		return fmt.Errorf("compensation record is missing %s", contracts.AttrSiteURL)
	}
	return gw.DeleteSite(ctx, url)
}

func compensateGuestInvitation(ctx context.Context, gw gateway.Gateway, params map[string]string) error {
	url := params[contracts.AttrSiteURL]
	email := params[contracts.AttrUserEmail]
	if url == "" || email == "" {
		return fmt.Errorf("compensation record is missing %s or %s", contracts.AttrSiteURL, contracts.AttrUserEmail)
	}
	return gw.RemoveUser(ctx, url, email)
}

// ExecuteAll drains the ledger and runs every compensation in reverse
// insertion order. Failures are tallied, never propagated mid-drain; the
// total number of attempts always equals the ledger length.
func (e *Executor) ExecuteAll(ctx context.Context, ledger *Ledger, reason string) contracts.RollbackReport {
	records := ledger.Drain()
	report := contracts.RollbackReport{Reason: reason}

	e.audit(contracts.OpRollbackInitiated, audit.StatusCompleted, "rollback initiated", map[string]string{
		contracts.AttrReason: reason,
		"action_count":       strconv.Itoa(len(records)),
	})
	e.logger.Info("rollback initiated", "reason", reason, "actions", len(records))

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		report.Attempted++

		err := e.executeOne(ctx, rec)
		if e.record != nil {
			e.record(ctx, string(rec.Kind), err == nil)
		}
		attrs := map[string]string{"compensated_kind": string(rec.Kind)}
		for k, v := range rec.Params {
			attrs[k] = v
		}

		if err != nil {
			report.Failed++
			fault := &contracts.RollbackFault{Kind: rec.Kind, Detail: rec.Description, Err: err}
			attrs["error"] = err.Error()
			e.audit(contracts.OpRollbackAction, audit.StatusFailed, rec.Description, attrs)
			e.logger.Warn("compensation failed", "kind", rec.Kind, "error", fault)
			continue
		}
		report.Succeeded++
		e.audit(contracts.OpRollbackAction, audit.StatusCompleted, rec.Description, attrs)
		e.logger.Info("compensation applied", "kind", rec.Kind, "description", rec.Description)
	}

	status := audit.StatusCompleted
	if report.Failed > 0 {
		status = audit.StatusFailed
	}
	e.audit(contracts.OpRollbackCompleted, status, "rollback completed", map[string]string{
		contracts.AttrReason: reason,
		"succeeded":          strconv.Itoa(report.Succeeded),
		"failed":             strconv.Itoa(report.Failed),
	})
	e.logger.Info("rollback completed", "succeeded", report.Succeeded, "failed", report.Failed)
	return report
}

func (e *Executor) executeOne(ctx context.Context, rec *contracts.CompensationRecord) error {
	comp, ok := e.table[rec.Kind]
	if !ok {
		return fmt.Errorf("no compensator registered for %s", rec.Kind)
	}
	err := comp(ctx, e.gw, rec.Params)
	if errors.Is(err, gateway.ErrNotFound) {
		// Target already gone: stale manual cleanup beat us to it.
		return nil
	}
	return err
}

func (e *Executor) audit(kind contracts.OperationKind, status audit.Status, detail string, attrs map[string]string) {
	if e.trail == nil {
		return
	}
	if _, err := e.trail.Append(kind, status, detail, attrs); err != nil {
		e.logger.Error("failed to audit rollback event", "error", err)
	}
}
