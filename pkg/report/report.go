// Package report renders a human-readable summary of a provisioning run
// and optionally mails it to the notification recipient.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/Mindburn-Labs/tenantbridge/pkg/config"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/gateway"
	"github.com/Mindburn-Labs/tenantbridge/pkg/provision"
)

// Summary is the flattened view of a run that the template renders.
type Summary struct {
	ExecutionID string
	Mode        string
	State       string
	StartedAt   time.Time
	SiteTitle   string
	SiteURL     string

	SitesCreated       int
	FoldersCreated     int
	GuestsInvited      int
	HostUsersProcessed int
	Errors             int
	Warnings           []string

	RolledBack      bool
	RollbackReport  *contracts.RollbackReport
	GuestUsers      []string
	HostUsers       []string
	Folders         []string
	B2BTenantIDs    []string
	DecisionActions []string
}

// Build flattens a pipeline result into a Summary.
func Build(profile *config.Profile, res *provision.Result) *Summary {
	s := &Summary{
		ExecutionID:        res.Execution.ExecutionID,
		Mode:               string(res.Execution.Mode),
		State:              string(res.State),
		StartedAt:          res.Execution.StartedAt,
		SiteTitle:          profile.SiteTitle,
		SiteURL:            fmt.Sprintf("https://%s/sites/%s", profile.HostTenantDomain, profile.SiteAlias),
		SitesCreated:       res.Stats.SitesCreated,
		FoldersCreated:     res.Stats.FoldersCreated,
		GuestsInvited:      res.Stats.GuestsInvited,
		HostUsersProcessed: res.Stats.HostUsersProcessed,
		Errors:             res.Stats.Errors,
		Warnings:           res.Warnings,
		RolledBack:         res.Rollback != nil,
		RollbackReport:     res.Rollback,
		GuestUsers:         res.Inventory.GuestUsers,
		HostUsers:          res.Inventory.HostUsers,
		Folders:            res.Inventory.Folders,
		B2BTenantIDs:       res.Inventory.B2BTenantIDs,
	}
	for _, d := range res.Trace.Decisions() {
		s.DecisionActions = append(s.DecisionActions, fmt.Sprintf("%s: %s %s", d.Phase, d.Action, d.Target))
	}
	return s
}

const summaryTemplate = `<!DOCTYPE html>
<html>
<head><title>Provisioning Summary {{.ExecutionID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
.warn { color: #b45309; }
.fail { color: #b91c1c; }
</style>
</head>
<body>
<h1>Provisioning Summary</h1>
<table>
<tr><th>Execution</th><td>{{.ExecutionID}}</td></tr>
<tr><th>Mode</th><td>{{.Mode}}</td></tr>
<tr><th>State</th><td>{{.State}}</td></tr>
<tr><th>Started</th><td>{{.StartedAt.Format "2006-01-02 15:04:05 MST"}}</td></tr>
<tr><th>Site</th><td><a href="{{.SiteURL}}">{{.SiteTitle}}</a></td></tr>
<tr><th>Sites created</th><td>{{.SitesCreated}}</td></tr>
<tr><th>Folders created</th><td>{{.FoldersCreated}}</td></tr>
<tr><th>Guests invited</th><td>{{.GuestsInvited}}</td></tr>
<tr><th>Host users processed</th><td>{{.HostUsersProcessed}}</td></tr>
<tr><th>Errors</th><td{{if .Errors}} class="fail"{{end}}>{{.Errors}}</td></tr>
</table>
{{if .RolledBack}}
<h2 class="fail">Rolled back</h2>
<p>Reason: {{.RollbackReport.Reason}}</p>
<p>Attempted {{.RollbackReport.Attempted}}, succeeded {{.RollbackReport.Succeeded}}, failed {{.RollbackReport.Failed}}.</p>
{{end}}
{{if .Warnings}}
<h2 class="warn">Warnings</h2>
<ul>{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .GuestUsers}}
<h2>Guest users</h2>
<ul>{{range .GuestUsers}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .HostUsers}}
<h2>Host users</h2>
<ul>{{range .HostUsers}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .Folders}}
<h2>Folders</h2>
<ul>{{range .Folders}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .DecisionActions}}
<h2>Decisions</h2>
<ul>{{range .DecisionActions}}<li>{{.}}</li>{{end}}</ul>
{{end}}
</body>
</html>
`

// Render produces the HTML summary document.
func Render(s *Summary) ([]byte, error) {
	tmpl, err := template.New("summary").Parse(summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("report: render summary: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the summary into dir as
// summary-<execution-id>.html and returns the path written.
func WriteFile(dir string, s *Summary) (string, error) {
	body, err := Render(s)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create report dir: %w", err)
	}
	path := filepath.Join(dir, "summary-"+s.ExecutionID+".html")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// Notify mails the rendered summary to the recipient through the
// gateway. It is a no-op when recipient is empty.
func Notify(ctx context.Context, gw gateway.Gateway, recipient string, s *Summary) error {
	if recipient == "" {
		return nil
	}
	body, err := Render(s)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Provisioning %s: %s (%s)", s.State, s.SiteTitle, s.Mode)
	mail := gateway.Mail{
		Recipient:      recipient,
		Subject:        subject,
		HTMLBody:       string(body),
		AttachmentName: "summary-" + s.ExecutionID + ".html",
		Attachment:     body,
	}
	if err := gw.SendMail(ctx, mail); err != nil {
		return fmt.Errorf("report: send summary mail: %w", err)
	}
	return nil
}
