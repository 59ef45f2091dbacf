package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/observability"
	"github.com/Mindburn-Labs/tenantbridge/pkg/rollback"
)

// runRollbackCmd implements `tenantbridge rollback`: a detached rollback
// of a past execution, reconstructed from its persisted audit events.
//
// Exit codes:
//
//	0 = all compensations succeeded
//	1 = at least one compensation failed
//	2 = usage error or reconstruction failure
func runRollbackCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("rollback", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		auditDir    string
		executionID string
	)

	cmd.StringVar(&auditDir, "audit-dir", "", "Audit partition directory (default from environment)")
	cmd.StringVar(&executionID, "execution-id", "", "Execution to roll back (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if executionID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --execution-id is required")
		return 2
	}

	cfg := config.Load()
	logger := setupLogger(cfg, stderr)
	if auditDir == "" {
		auditDir = cfg.AuditDir
	}

	events, err := audit.ReadDirectory(auditDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ledger, err := rollback.Reconstruct(events, executionID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// The rollback itself is a fresh audited execution, persisted next
	// to the original's events.
	execution := contracts.NewExecutionContext("", "", "manual-rollback", contracts.ModeApply, true)
	trail := audit.NewTrail(execution)
	writer, err := audit.NewPartitionWriter(auditDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	trail.AddHandler(writer.Handler(func(err error) {
		logger.Error("audit partition write failed", "error", err)
	}))

	ctx := context.Background()
	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "tenantbridge",
		ServiceVersion: version,
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Insecure:       true,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	gw := openGateway(cfg)
	executor := rollback.NewExecutor(gw, trail, logger).WithRecorder(obs.RecordCompensation)
	reason := fmt.Sprintf("manual rollback of execution %s", executionID)
	result := executor.ExecuteAll(ctx, ledger, reason)

	fmt.Fprintf(stdout, "Rollback of %s: attempted %d, succeeded %d, failed %d\n",
		executionID, result.Attempted, result.Succeeded, result.Failed)
	if !result.Clean() {
		return 1
	}
	return 0
}
