package provision

import (
	"context"
	"fmt"
	"path"

	"github.com/Mindburn-Labs/tenantbridge/pkg/audit"
	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
)

// runFoldersPhase creates the client folder structure. It runs only when
// the site phase yielded a usable site reference. Folder creation has no
// compensation: deleting the site reclaims its folders.
func (p *Pipeline) runFoldersPhase(ctx context.Context) error {
	if !p.siteUsable {
		p.decide(contracts.Decision{Phase: "folders", Action: "skip-no-site"})
		return nil
	}

	for _, folder := range p.profile.ClientFolders {
		p.decide(contracts.Decision{Phase: "folders", Action: "create", Target: folder, Count: len(p.profile.Subfolders)})

		if !p.applying() {
			p.logger.Info("simulate: would create client folder", "folder", folder, "subfolders", len(p.profile.Subfolders))
			p.stats.FoldersCreated += len(p.profile.Subfolders)
			continue
		}

		if err := p.gw.CreateFolder(ctx, p.siteURL, folder); err != nil {
			return &contracts.GatewayFault{Operation: contracts.OpFolderCreation, Detail: fmt.Sprintf("failed to create folder %q", folder), Err: err}
		}
		for _, sub := range p.profile.Subfolders {
			if err := p.gw.CreateFolder(ctx, p.siteURL, path.Join(folder, sub)); err != nil {
				return &contracts.GatewayFault{Operation: contracts.OpFolderCreation, Detail: fmt.Sprintf("failed to create subfolder %q", path.Join(folder, sub)), Err: err}
			}
			p.stats.FoldersCreated++
			p.inventory.Folders = append(p.inventory.Folders, path.Join(folder, sub))
		}

		if _, aerr := p.trail.Append(contracts.OpFolderCreation, audit.StatusCompleted,
			fmt.Sprintf("client folder %q created with %d subfolders", folder, len(p.profile.Subfolders)),
			map[string]string{
				contracts.AttrFolder:  folder,
				contracts.AttrSiteURL: p.siteURL,
			},
		); aerr != nil {
			p.logger.Error("failed to audit folder creation", "error", aerr)
		}
	}
	return nil
}
