package report

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
	"github.com/Mindburn-Labs/tenantbridge/pkg/provision"
	"github.com/Mindburn-Labs/tenantbridge/pkg/users"
)

func testResult(t *testing.T) (*config.Profile, *provision.Result) {
	t.Helper()
	profile := &config.Profile{
		HostTenantDomain:  "host.example.com",
		GuestTenantDomain: "guest.example.com",
		AdminPrincipal:    "admin@host.example.com",
		SiteTitle:         "Acme Collaboration",
		SiteAlias:         "acme",
		ClientFolders:     []string{"Acme"},
		Subfolders:        append([]string{}, config.DefaultSubfolders...),
		Users: []users.Entry{
			{Email: "guest@guest.example.com", Kind: users.KindGuest, Role: users.RoleMember},
		},
		SkipB2BConfig:  true,
		EnableRollback: true,
	}
	p := provision.NewPipeline(profile, gateway.NewFake(), contracts.ModeApply)
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	return profile, res
}

func TestBuildAndRender(t *testing.T) {
	profile, res := testResult(t)
	s := Build(profile, res)

	assert.Equal(t, res.Execution.ExecutionID, s.ExecutionID)
	assert.Equal(t, "https://host.example.com/sites/acme", s.SiteURL)
	assert.Equal(t, 3, s.FoldersCreated)
	assert.False(t, s.RolledBack)

	body, err := Render(s)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, s.ExecutionID)
	assert.Contains(t, html, "Acme Collaboration")
	assert.Contains(t, html, "guest@guest.example.com")
	assert.NotContains(t, html, "Rolled back")
}

func TestRenderRollbackSection(t *testing.T) {
	profile, res := testResult(t)
	res.Rollback = &contracts.RollbackReport{Attempted: 2, Succeeded: 1, Failed: 1, Reason: "fatal fault in site_creation"}
	body, err := Render(Build(profile, res))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Rolled back")
	assert.Contains(t, string(body), "fatal fault in site_creation")
}

func TestWriteFile(t *testing.T) {
	profile, res := testResult(t)
	dir := t.TempDir()
	path, err := WriteFile(dir, Build(profile, res))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".html"))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), res.Execution.ExecutionID)
}

func TestNotify(t *testing.T) {
	profile, res := testResult(t)
	gw := gateway.NewFake()
	s := Build(profile, res)

	require.NoError(t, Notify(context.Background(), gw, "", s))
	assert.Empty(t, gw.SentMail)

	require.NoError(t, Notify(context.Background(), gw, "ops@host.example.com", s))
	require.Len(t, gw.SentMail, 1)
	assert.Equal(t, "ops@host.example.com", gw.SentMail[0].Recipient)
	assert.Contains(t, gw.SentMail[0].Subject, "COMPLETED")
}
