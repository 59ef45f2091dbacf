package provision

import (
	"context"
	"fmt"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/users"
)

// runUsersPhase provisions the roster, one user at a time. Partial success
// is expected and normal here: a per-user gateway failure increments the
// error counter and processing continues with the next user.
func (p *Pipeline) runUsersPhase(ctx context.Context) error {
	if !p.siteUsable {
		p.decide(contracts.Decision{Phase: "users", Action: "skip-no-site"})
		return nil
	}

	for _, entry := range p.profile.Users {
		switch entry.Kind {
		case users.KindGuest:
			p.provisionGuest(ctx, entry)
		case users.KindHost:
			p.provisionHost(ctx, entry)
		}
	}
	return nil
}

func (p *Pipeline) provisionGuest(ctx context.Context, entry users.Entry) {
	level := entry.AccessLevel()
	p.decide(contracts.Decision{Phase: "users", Action: "invite-guest", Target: entry.Email})

	if !p.applying() {
		p.logger.Info("simulate: would invite guest", "email", entry.Email, "access", level)
		p.stats.GuestsInvited++
		return
	}

	if err := p.gw.InviteGuest(ctx, p.siteURL, entry.Email, level); err != nil {
		p.stats.Errors++
		p.logger.Warn("guest invitation failed", "email", entry.Email, "error", err)
		p.auditUser(contracts.OpGuestInvitation, audit.StatusFailed, entry.Email, string(level),
			fmt.Sprintf("failed to invite %s: %v", entry.Email, err))
		return
	}

	p.auditUser(contracts.OpGuestInvitation, audit.StatusCompleted, entry.Email, string(level),
		fmt.Sprintf("guest %s invited with %s access", entry.Email, level))

	rec, err := contracts.NewCompensationRecord(contracts.OpGuestInvitation,
		map[string]string{
			contracts.AttrSiteURL:   p.siteURL,
			contracts.AttrUserEmail: entry.Email,
		},
		fmt.Sprintf("remove %s from %s", entry.Email, p.siteURL))
	if err == nil {
		p.ledger.Push(rec)
	}
	p.stats.GuestsInvited++
	p.inventory.GuestUsers = append(p.inventory.GuestUsers, entry.Email)
}

func (p *Pipeline) provisionHost(ctx context.Context, entry users.Entry) {
	level := entry.AccessLevel()
	p.decide(contracts.Decision{Phase: "users", Action: "grant-host", Target: entry.Email})

	if !p.applying() {
		p.logger.Info("simulate: would grant host access", "email", entry.Email, "access", level)
		p.stats.HostUsersProcessed++
		return
	}

	if err := p.gw.GrantHostAccess(ctx, p.siteURL, entry.Email, level); err != nil {
		p.stats.Errors++
		p.logger.Warn("host access grant failed", "email", entry.Email, "error", err)
		p.auditUser(contracts.OpHostUserAdded, audit.StatusFailed, entry.Email, string(level),
			fmt.Sprintf("failed to grant %s access to %s: %v", level, entry.Email, err))
		return
	}

	p.auditUser(contracts.OpHostUserAdded, audit.StatusCompleted, entry.Email, string(level),
		fmt.Sprintf("host user %s granted %s access", entry.Email, level))
	p.stats.HostUsersProcessed++
	p.inventory.HostUsers = append(p.inventory.HostUsers, entry.Email)
}

func (p *Pipeline) auditUser(kind contracts.OperationKind, status audit.Status, email, level, detail string) {
	if _, err := p.trail.Append(kind, status, detail, map[string]string{
		contracts.AttrUserEmail: email,
		contracts.AttrSiteURL:   p.siteURL,
		contracts.AttrAccess:    level,
	}); err != nil {
		p.logger.Error("failed to audit user provisioning", "error", err)
	}
}
