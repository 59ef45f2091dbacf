package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/tenantbridge/pkg/contracts"
	"github.com/Mindburn-Labs/tenantbridge/pkg/users"
)

// Profile describes one provisioning job. It is the validated input the
// pipeline runs from; no partial execution is attempted on an invalid
// profile.
type Profile struct {
	HostTenantDomain  string        `yaml:"host_tenant_domain" json:"host_tenant_domain"`
	GuestTenantDomain string        `yaml:"guest_tenant_domain" json:"guest_tenant_domain"`
	// GuestTenantID is the operator-provided fallback used when directory
	// lookup of the guest domain fails.
	GuestTenantID  string   `yaml:"guest_tenant_id,omitempty" json:"guest_tenant_id,omitempty"`
	AdminPrincipal string   `yaml:"admin_principal" json:"admin_principal"`
	SiteTitle      string   `yaml:"site_title" json:"site_title"`
	SiteAlias      string   `yaml:"site_alias" json:"site_alias"`
	ClientFolders  []string `yaml:"client_folders" json:"client_folders"`
	// Subfolders is the template created under every client folder.
	Subfolders []string      `yaml:"subfolders,omitempty" json:"subfolders,omitempty"`
	Users      []users.Entry `yaml:"users,omitempty" json:"users,omitempty"`
	RosterPath string        `yaml:"roster_path,omitempty" json:"roster_path,omitempty"`

	SkipB2BConfig    bool `yaml:"skip_b2b_config" json:"skip_b2b_config"`
	SkipSiteCreation bool `yaml:"skip_site_creation" json:"skip_site_creation"`
	EnableRollback   bool `yaml:"enable_rollback" json:"enable_rollback"`

	NotifyRecipient string `yaml:"notify_recipient,omitempty" json:"notify_recipient,omitempty"`
}

// DefaultSubfolders is the standard client-folder template.
var DefaultSubfolders = []string{"Documents", "Deliverables", "Archive"}

const profileSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["host_tenant_domain", "guest_tenant_domain", "admin_principal", "site_title", "site_alias"],
	"properties": {
		"host_tenant_domain": {"type": "string", "minLength": 1},
		"guest_tenant_domain": {"type": "string", "minLength": 1},
		"guest_tenant_id": {"type": "string"},
		"admin_principal": {"type": "string", "minLength": 1},
		"site_title": {"type": "string", "minLength": 1},
		"site_alias": {"type": "string", "pattern": "^[a-z0-9-]+$"},
		"client_folders": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"subfolders": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"users": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["email", "kind", "role"],
				"properties": {
					"email": {"type": "string", "minLength": 3},
					"kind": {"type": "string", "enum": ["GUEST", "HOST"]},
					"role": {"type": "string", "enum": ["OWNER", "MEMBER", "VISITOR"]}
				}
			}
		},
		"roster_path": {"type": "string"},
		"skip_b2b_config": {"type": "boolean"},
		"skip_site_creation": {"type": "boolean"},
		"enable_rollback": {"type": "boolean"},
		"notify_recipient": {"type": "string"}
	}
}`

var compiledProfileSchema = jsonschema.MustCompileString("tenantbridge/profile.schema.json", profileSchema)

// LoadProfile reads, schema-validates, and normalizes a run profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile parses and validates profile YAML.
func ParseProfile(data []byte) (*Profile, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &contracts.ConfigurationError{Detail: fmt.Sprintf("malformed profile: %v", err)}
	}
	if err := compiledProfileSchema.Validate(normalizeForSchema(raw)); err != nil {
		return nil, &contracts.ConfigurationError{Detail: fmt.Sprintf("profile schema violation: %v", err)}
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, &contracts.ConfigurationError{Detail: fmt.Sprintf("malformed profile: %v", err)}
	}
	if len(profile.Subfolders) == 0 {
		profile.Subfolders = append([]string{}, DefaultSubfolders...)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Validate checks the constraints the schema cannot express.
func (p *Profile) Validate() error {
	if !strings.Contains(p.AdminPrincipal, "@") {
		return &contracts.ConfigurationError{Field: "admin_principal", Detail: "must be a user principal name"}
	}
	for _, u := range p.Users {
		if err := u.Validate(); err != nil {
			return &contracts.ConfigurationError{Field: "users", Detail: err.Error()}
		}
	}
	if len(p.Users) == 0 && p.RosterPath == "" && p.SkipSiteCreation && p.SkipB2BConfig {
		return &contracts.ConfigurationError{Detail: "profile skips every phase and provisions no users"}
	}
	return nil
}

// normalizeForSchema converts yaml.v3's decoded tree into the shape the
// JSON Schema validator expects (string keys all the way down).
func normalizeForSchema(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeForSchema(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeForSchema(item)
		}
		return out
	default:
		return v
	}
}
