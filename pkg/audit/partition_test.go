package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

func TestPartitionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewPartitionWriter(dir)
	require.NoError(t, err)

	trail := NewTrail(testExecution(contracts.ModeApply))
	trail.AddHandler(w.Handler(func(err error) { t.Fatalf("sink error: %v", err) }))

	_, err = trail.Append(contracts.OpSiteCreation, StatusCompleted, "site created", map[string]string{
		contracts.AttrSiteURL: "https://host.example.com/sites/acme",
	})
	require.NoError(t, err)
	_, err = trail.Append(contracts.OpGuestInvitation, StatusCompleted, "guest invited", map[string]string{
		contracts.AttrUserEmail: "guest@guest.example.com",
		contracts.AttrSiteURL:   "https://host.example.com/sites/acme",
	})
	require.NoError(t, err)

	path := w.PartitionPath(time.Now())
	events, err := ReadPartition(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, contracts.OpSiteCreation, events[0].Kind)
	require.Equal(t, "guest@guest.example.com", events[1].Attrs[contracts.AttrUserEmail])

	require.NoError(t, VerifyEvents(events))
}

func TestPartitionInterleavedExecutions(t *testing.T) {
	dir := t.TempDir()
	w, err := NewPartitionWriter(dir)
	require.NoError(t, err)

	runA := NewTrail(testExecution(contracts.ModeApply))
	runB := NewTrail(testExecution(contracts.ModeApply))
	runA.AddHandler(w.Handler(nil))
	runB.AddHandler(w.Handler(nil))

	runA.Append(contracts.OpB2BConfiguration, StatusCompleted, "a1", nil)
	runB.Append(contracts.OpSiteCreation, StatusCompleted, "b1", nil)
	runA.Append(contracts.OpSiteCreation, StatusCompleted, "a2", nil)

	events, err := ReadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, events, 3)

	execA := runA.Events()[0].ExecutionID
	filtered := FilterExecution(events, execA)
	require.Len(t, filtered, 2)
	require.Equal(t, "a1", filtered[0].Detail)
	require.Equal(t, "a2", filtered[1].Detail)

	// Each execution's chain verifies independently despite interleaving.
	require.NoError(t, VerifyEvents(events))
}

func TestReadPartitionMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit-2026-01-01.jsonl")
	require.NoError(t, writeFile(path, "{not json}\n"))

	_, err := ReadPartition(path)
	require.Error(t, err)
}
