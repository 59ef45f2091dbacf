package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestArchiveIndexRoundTrip(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer archive.Close()

	trail := NewTrail(testExecution(contracts.ModeApply))
	trail.AddHandler(archive.Handler(func(err error) { t.Fatalf("index error: %v", err) }))

	evt, err := trail.Append(contracts.OpGuestInvitation, StatusCompleted, "guest invited", map[string]string{
		contracts.AttrUserEmail: "guest@guest.example.com",
		contracts.AttrSiteURL:   "https://host.example.com/sites/acme",
	})
	require.NoError(t, err)

	got, err := archive.ByExecution(context.Background(), evt.ExecutionID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, evt.EventID, got[0].EventID)
	require.Equal(t, evt.EntryHash, got[0].EntryHash)
	require.Equal(t, "guest@guest.example.com", got[0].Attrs[contracts.AttrUserEmail])
	require.Equal(t, evt.Timestamp.UTC(), got[0].Timestamp.UTC())
}

func TestArchiveIndexInsertIdempotent(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer archive.Close()

	trail := NewTrail(testExecution(contracts.ModeApply))
	evt, err := trail.Append(contracts.OpSiteCreation, StatusCompleted, "site", nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, archive.Insert(ctx, evt))
	require.NoError(t, archive.Insert(ctx, evt))

	got, err := archive.ByExecution(ctx, evt.ExecutionID)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
