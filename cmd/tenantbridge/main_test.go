package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
)

const testProfileYAML = `
host_tenant_domain: host.example.com
guest_tenant_domain: guest.example.com
guest_tenant_id: t-guest
admin_principal: admin@host.example.com
site_title: Acme Collaboration
site_alias: acme
client_folders:
  - Acme
users:
  - email: guest@guest.example.com
    kind: GUEST
    role: MEMBER
  - email: owner@host.example.com
    kind: HOST
    role: OWNER
enable_rollback: true
`

func setupEnv(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("TENANTBRIDGE_AUDIT_DIR", filepath.Join(dir, "audit"))
	t.Setenv("TENANTBRIDGE_ARCHIVE_DB", filepath.Join(dir, "audit", "archive.db"))
	t.Setenv("TENANTBRIDGE_REPORT_DIR", filepath.Join(dir, "reports"))
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	return dir
}

func writeProfile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testProfileYAML), 0o644))
	return path
}

func useFake(t *testing.T) *gateway.Fake {
	t.Helper()
	fake := gateway.NewFake()
	fake.Tenants["guest.example.com"] = "t-guest"
	prev := openGateway
	openGateway = func(*config.Config) gateway.Gateway { return fake }
	t.Cleanup(func() { openGateway = prev })
	return fake
}

func TestRunDispatch(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 0, Run([]string{"tenantbridge", "help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "provision")

	assert.Equal(t, 2, Run([]string{"tenantbridge", "frobnicate"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown command")

	assert.Equal(t, 2, Run([]string{"tenantbridge"}, &stdout, &stderr))

	stdout.Reset()
	assert.Equal(t, 0, Run([]string{"tenantbridge", "version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), version)
}

func TestProvisionCmdMissingProfile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"tenantbridge", "provision"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "--profile is required")
}

func TestProvisionCmdEndToEnd(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	fake := useFake(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "COMPLETED")

	if assert.Equal(t, 1, fake.CallsTo("CreateSite")) {
		assert.Equal(t, 1, fake.CallsTo("SetCrossTenantPolicy"))
		assert.Equal(t, 1, fake.CallsTo("InviteGuest"))
	}

	// Partitions and the report must land on disk.
	events, err := audit.ReadDirectory(filepath.Join(dir, "audit"))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.NoError(t, audit.VerifyEvents(events))

	reports, err := filepath.Glob(filepath.Join(dir, "reports", "summary-*.html"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestProvisionCmdSimulateWritesNoForwardEvents(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	useFake(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"tenantbridge", "provision", "--profile", profilePath, "--simulate"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	events, err := audit.ReadDirectory(filepath.Join(dir, "audit"))
	require.NoError(t, err)
	for _, evt := range events {
		assert.Equal(t, contracts.OpScriptCompletion, evt.Kind, "simulate may only record completion")
	}
}

func TestRollbackCmdEndToEnd(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	fake := useFake(t)

	var stdout, stderr bytes.Buffer
	code := Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	auditDir := filepath.Join(dir, "audit")
	events, err := audit.ReadDirectory(auditDir)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	executionID := events[0].ExecutionID

	stdout.Reset()
	code = Run([]string{"tenantbridge", "rollback", "--audit-dir", auditDir, "--execution-id", executionID}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "succeeded 3")

	// The forward run staged the policy, the site and one invitation.
	assert.Equal(t, 1, fake.CallsTo("DeleteCrossTenantPolicy"))
	assert.Equal(t, 1, fake.CallsTo("DeleteSite"))
	assert.Equal(t, 1, fake.CallsTo("RemoveUser"))
}

func TestRollbackCmdUnknownExecution(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	useFake(t)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr))

	code := Run([]string{"tenantbridge", "rollback", "--audit-dir", filepath.Join(dir, "audit"), "--execution-id", "no-such-execution"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "no-such-execution")
}

func TestAuditVerifyCmd(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	useFake(t)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr))

	auditDir := filepath.Join(dir, "audit")
	stdout.Reset()
	code := Run([]string{"tenantbridge", "audit", "verify", "--audit-dir", auditDir}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "events verified")

	// Tamper with a partition line and verification must fail.
	partitions, err := filepath.Glob(filepath.Join(auditDir, "audit-*.jsonl"))
	require.NoError(t, err)
	require.NotEmpty(t, partitions)
	data, err := os.ReadFile(partitions[0])
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "COMPLETED", "CORRUPTED", 1)
	require.NoError(t, os.WriteFile(partitions[0], []byte(tampered), 0o644))

	stderr.Reset()
	code = Run([]string{"tenantbridge", "audit", "verify", "--audit-dir", auditDir}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestAuditShowCmd(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	useFake(t)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr))

	auditDir := filepath.Join(dir, "audit")
	events, err := audit.ReadDirectory(auditDir)
	require.NoError(t, err)
	executionID := events[0].ExecutionID

	stdout.Reset()
	code := Run([]string{"tenantbridge", "audit", "show", "--audit-dir", auditDir, "--execution-id", executionID}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), string(contracts.OpSiteCreation))
	assert.Contains(t, stdout.String(), string(contracts.OpScriptCompletion))
}

func TestAuditShowCmdAnswersFromArchive(t *testing.T) {
	dir := setupEnv(t)
	profilePath := writeProfile(t, dir)
	useFake(t)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, Run([]string{"tenantbridge", "provision", "--profile", profilePath}, &stdout, &stderr))

	auditDir := filepath.Join(dir, "audit")
	events, err := audit.ReadDirectory(auditDir)
	require.NoError(t, err)
	executionID := events[0].ExecutionID

	// With the partitions gone, the archive index must answer the query.
	partitions, err := filepath.Glob(filepath.Join(auditDir, "audit-*.jsonl"))
	require.NoError(t, err)
	require.NotEmpty(t, partitions)
	for _, p := range partitions {
		require.NoError(t, os.Remove(p))
	}

	stdout.Reset()
	code := Run([]string{"tenantbridge", "audit", "show", "--audit-dir", auditDir, "--execution-id", executionID}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), string(contracts.OpSiteCreation))
	assert.Contains(t, stdout.String(), string(contracts.OpGuestInvitation))
}
