// Package gateway defines the port to the remote collaboration systems:
// the tenant directory, the site host, and mail delivery. The engine only
// ever talks to these systems through this interface; concrete SDK-backed
// implementations live outside the core.
package gateway

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a remote resource does not exist. Rollback
// compensations treat it as success so stale cleanup never fails.
var ErrNotFound = errors.New("gateway: resource not found")

// AccessLevel is the permission granted on a site.
type AccessLevel string

const (
	AccessRead        AccessLevel = "READ"
	AccessEdit        AccessLevel = "EDIT"
	AccessFullControl AccessLevel = "FULL_CONTROL"
)

// CrossTenantPolicy is the B2B collaboration policy applied to the host
// tenant for one partner tenant.
type CrossTenantPolicy struct {
	GuestTenantID   string
	InboundEnabled  bool
	OutboundEnabled bool
}

// Mail is a notification message, optionally with one attachment.
type Mail struct {
	Recipient      string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Gateway is the boundary to the remote systems. All calls are blocking
// from the pipeline's point of view; the pipeline never overlaps two
// mutating calls.
type Gateway interface {
	// ResolveTenantID looks up the tenant id for a domain.
	// Returns ErrNotFound if the directory has no such tenant.
	ResolveTenantID(ctx context.Context, domain string) (string, error)

	SetCrossTenantPolicy(ctx context.Context, tenantID string, policy CrossTenantPolicy) error
	DeleteCrossTenantPolicy(ctx context.Context, tenantID string) error

	SiteExists(ctx context.Context, url string) (bool, error)
	// CreateSite provisions a site and returns its URL.
	CreateSite(ctx context.Context, title, alias string) (string, error)
	DeleteSite(ctx context.Context, url string) error

	// CreateFolder has no delete counterpart: folders are reclaimed by
	// deleting the site that contains them.
	CreateFolder(ctx context.Context, siteURL, path string) error

	InviteGuest(ctx context.Context, siteURL, email string, level AccessLevel) error
	RemoveUser(ctx context.Context, siteURL, email string) error
	// GrantHostAccess has no revoke counterpart.
	GrantHostAccess(ctx context.Context, siteURL, email string, level AccessLevel) error

	SendMail(ctx context.Context, mail Mail) error
}
