package gateway

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited decorates a Gateway with a token-bucket limiter so the tool
// stays under the remote API's throttling thresholds. Every call waits for
// a token before delegating.
type RateLimited struct {
	next    Gateway
	limiter *rate.Limiter
}

// NewRateLimited wraps next with r events/sec and burst b.
func NewRateLimited(next Gateway, r rate.Limit, b int) *RateLimited {
	return &RateLimited{next: next, limiter: rate.NewLimiter(r, b)}
}

func (g *RateLimited) wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

func (g *RateLimited) ResolveTenantID(ctx context.Context, domain string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.next.ResolveTenantID(ctx, domain)
}

func (g *RateLimited) SetCrossTenantPolicy(ctx context.Context, tenantID string, policy CrossTenantPolicy) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.SetCrossTenantPolicy(ctx, tenantID, policy)
}

func (g *RateLimited) DeleteCrossTenantPolicy(ctx context.Context, tenantID string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.DeleteCrossTenantPolicy(ctx, tenantID)
}

func (g *RateLimited) SiteExists(ctx context.Context, url string) (bool, error) {
	if err := g.wait(ctx); err != nil {
		return false, err
	}
	return g.next.SiteExists(ctx, url)
}

func (g *RateLimited) CreateSite(ctx context.Context, title, alias string) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	return g.next.CreateSite(ctx, title, alias)
}

func (g *RateLimited) DeleteSite(ctx context.Context, url string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.DeleteSite(ctx, url)
}

func (g *RateLimited) CreateFolder(ctx context.Context, siteURL, path string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.CreateFolder(ctx, siteURL, path)
}

func (g *RateLimited) InviteGuest(ctx context.Context, siteURL, email string, level AccessLevel) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.InviteGuest(ctx, siteURL, email, level)
}

func (g *RateLimited) RemoveUser(ctx context.Context, siteURL, email string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.RemoveUser(ctx, siteURL, email)
}

func (g *RateLimited) GrantHostAccess(ctx context.Context, siteURL, email string, level AccessLevel) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.GrantHostAccess(ctx, siteURL, email, level)
}

func (g *RateLimited) SendMail(ctx context.Context, mail Mail) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return g.next.SendMail(ctx, mail)
}
