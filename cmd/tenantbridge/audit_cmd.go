package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
)

func runAuditCmd(args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "verify":
		return runAuditVerifyCmd(args[1:], stdout, stderr)
	case "show":
		return runAuditShowCmd(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown audit subcommand: %s\n", args[0])
		return 2
	}
}

// runAuditVerifyCmd checks the hash chain of every execution found in
// the audit directory.
//
// Exit codes:
//
//	0 = all chains verified
//	1 = at least one chain is broken
//	2 = usage or read error
func runAuditVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("audit verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var auditDir string
	cmd.StringVar(&auditDir, "audit-dir", "", "Audit partition directory (default from environment)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	if auditDir == "" {
		auditDir = cfg.AuditDir
	}

	events, err := audit.ReadDirectory(auditDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(events) == 0 {
		fmt.Fprintln(stdout, "No audit events found.")
		return 0
	}

	if err := audit.VerifyEvents(events); err != nil {
		_, _ = fmt.Fprintf(stderr, "Verification failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%sOK%s: %d events verified\n", ColorGreen, ColorReset, len(events))
	return 0
}

// runAuditShowCmd prints the events of one execution in sequence order.
// The sqlite archive index answers the query directly; partitions are
// scanned only when the archive is unavailable or has no match.
func runAuditShowCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("audit show", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		auditDir    string
		archivePath string
		executionID string
	)
	cmd.StringVar(&auditDir, "audit-dir", "", "Audit partition directory (default from environment)")
	cmd.StringVar(&archivePath, "archive-db", "", "Archive index database (default from environment)")
	cmd.StringVar(&executionID, "execution-id", "", "Execution to show (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if executionID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --execution-id is required")
		return 2
	}

	cfg := config.Load()
	if auditDir == "" {
		auditDir = cfg.AuditDir
	}
	if archivePath == "" {
		archivePath = cfg.ArchivePath
	}

	matched := queryArchive(archivePath, executionID)
	if len(matched) == 0 {
		events, err := audit.ReadDirectory(auditDir)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		matched = audit.FilterExecution(events, executionID)
	}
	if len(matched) == 0 {
		_, _ = fmt.Fprintf(stderr, "No events for execution %s\n", executionID)
		return 1
	}

	for _, evt := range matched {
		fmt.Fprintf(stdout, "%4d  %s  %-20s %-9s %s\n",
			evt.Sequence,
			evt.Timestamp.Format("2006-01-02T15:04:05Z"),
			evt.Kind, evt.Status, evt.Detail)
	}
	return 0
}

// queryArchive tries the index; any failure means "no answer" and the
// caller falls back to scanning partitions.
func queryArchive(path, executionID string) []*audit.Event {
	archive, err := audit.OpenArchive(path)
	if err != nil {
		return nil
	}
	defer func() { _ = archive.Close() }()

	events, err := archive.ByExecution(context.Background(), executionID)
	if err != nil {
		return nil
	}
	return events
}
