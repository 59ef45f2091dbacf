package provision

import (
	"context"
	"fmt"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// runSitePhase creates (or adopts) the collaboration site. When the site
// already exists, apply mode asks the operator whether to reuse it;
// simulate mode never prompts and reports the reuse decision instead.
// This is the one intentional divergence between the two modes, because a
// prompt is meaningless without real remote state.
func (p *Pipeline) runSitePhase(ctx context.Context) error {
	computed := p.computedSiteURL()

	if p.profile.SkipSiteCreation {
		p.decide(contracts.Decision{Phase: "site", Action: "use-existing", Target: computed})
		p.siteURL = computed
		p.siteUsable = true
		return nil
	}

	exists, err := p.gw.SiteExists(ctx, computed)
	if err != nil {
		return &contracts.GatewayFault{Operation: contracts.OpSiteCreation, Detail: "site existence check failed", Err: err}
	}

	if exists {
		p.decide(contracts.Decision{Phase: "site", Action: "reuse-existing", Target: computed})
		if !p.applying() {
			p.logger.Info("simulate: site already exists, would ask to reuse", "site_url", computed)
			p.siteURL = computed
			p.siteUsable = true
			return nil
		}
		if p.prompter == nil {
			return fmt.Errorf("site %s already exists and no prompter is configured", computed)
		}
		reuse, err := p.prompter.ConfirmSiteReuse(computed)
		if err != nil {
			return fmt.Errorf("site reuse confirmation failed: %w", err)
		}
		if !reuse {
			return ErrAborted
		}
		p.siteURL = computed
		p.siteUsable = true
		return nil
	}

	p.decide(contracts.Decision{Phase: "site", Action: "create", Target: p.profile.SiteAlias})
	if !p.applying() {
		p.logger.Info("simulate: would create site", "title", p.profile.SiteTitle, "alias", p.profile.SiteAlias)
		p.stats.SitesCreated++
		p.siteURL = computed
		p.siteUsable = true
		return nil
	}

	url, err := p.gw.CreateSite(ctx, p.profile.SiteTitle, p.profile.SiteAlias)
	if err != nil {
		return &contracts.GatewayFault{Operation: contracts.OpSiteCreation, Detail: "site creation failed", Err: err}
	}

	if _, aerr := p.trail.Append(contracts.OpSiteCreation, audit.StatusCompleted,
		fmt.Sprintf("site %q created", p.profile.SiteTitle),
		map[string]string{
			contracts.AttrSiteURL:   url,
			contracts.AttrSiteTitle: p.profile.SiteTitle,
		},
	); aerr != nil {
		p.logger.Error("failed to audit site creation", "error", aerr)
	}

	rec, err := contracts.NewCompensationRecord(contracts.OpSiteCreation,
		map[string]string{contracts.AttrSiteURL: url},
		fmt.Sprintf("delete site %s", url))
	if err == nil {
		p.ledger.Push(rec)
	}

	p.stats.SitesCreated++
	p.inventory.Sites = append(p.inventory.Sites, url)
	p.siteURL = url
	p.siteUsable = true
	return nil
}
