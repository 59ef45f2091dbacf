package provision

// Statistics tallies run outcomes. Each counter is mutated by exactly one
// phase of the single-threaded pipeline; no locking is needed.
type Statistics struct {
	SitesCreated       int `json:"sites_created"`
	FoldersCreated     int `json:"folders_created"`
	GuestsInvited      int `json:"guests_invited"`
	HostUsersProcessed int `json:"host_users_processed"`
	Errors             int `json:"errors"`
	Warnings           int `json:"warnings"`
}

// Inventory is the set of resources touched during a run. It feeds
// reporting only; rollback correctness depends on the ledger, never on
// this inventory.
type Inventory struct {
	B2BTenantIDs []string `json:"b2b_tenant_ids,omitempty"`
	Sites        []string `json:"sites,omitempty"`
	Folders      []string `json:"folders,omitempty"`
	GuestUsers   []string `json:"guest_users,omitempty"`
	HostUsers    []string `json:"host_users,omitempty"`
}
