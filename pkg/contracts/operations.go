package contracts

// OperationKind identifies one class of auditable operation.
type OperationKind string

const (
	OpB2BConfiguration  OperationKind = "B2B_CONFIGURATION"
	OpSiteCreation      OperationKind = "SITE_CREATION"
	OpFolderCreation    OperationKind = "FOLDER_CREATION"
	OpGuestInvitation   OperationKind = "GUEST_INVITATION"
	OpHostUserAdded     OperationKind = "HOST_USER_ADDED"
	OpRollbackInitiated OperationKind = "ROLLBACK_INITIATED"
	OpRollbackAction    OperationKind = "ROLLBACK_ACTION"
	OpRollbackCompleted OperationKind = "ROLLBACK_COMPLETED"
	OpScriptCompletion  OperationKind = "SCRIPT_COMPLETION"
)

// Compensable reports whether a completed operation of this kind leaves
// remote state that rollback must undo. Folder creation and host access
// grants are deliberately excluded: folders live inside a site whose
// deletion already removes them, and host access grants are membership
// changes the host tenant owns.
func (k OperationKind) Compensable() bool {
	switch k {
	case OpB2BConfiguration, OpSiteCreation, OpGuestInvitation:
		return true
	}
	return false
}

// Attribute keys shared between audit events and compensation params.
// Compensators resolve their targets through these keys, so audit
// records are sufficient to reconstruct a rollback.
const (
	AttrTenantID  = "tenant_id"
	AttrSiteURL   = "site_url"
	AttrSiteTitle = "site_title"
	AttrUserEmail = "user_email"
	AttrFolder    = "folder_path"
	AttrAccess    = "access_level"
	AttrReason    = "reason"
)
