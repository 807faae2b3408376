package terraform

import (
	"fmt"
	"strings"
)

// Vars is everything the infrastructure configuration needs: identity,
// machine shape, placement, the service-account role list, the firewall
// allow-list, and the SSH hardening parameters.
type Vars struct {
	ProjectID    string
	Region       string
	Zone         string
	MachineType  string
	ClusterName  string
	ClusterZone  string
	VMName       string
	Owner        string
	SkipDeletion string
	Roles        []string
	AllowedIPs   []string
	SSHUsername  string
	SSHPublicKey string
}

// Render serializes the variables in the fixed key order the configuration
// expects. Output is byte-stable for a given Vars value.
func (v Vars) Render() string {
	return fmt.Sprintf(`project_id     = %q
region         = %q
zone           = %q
machine_type   = %q
cluster_name   = %q
cluster_zone   = %q
vm_name        = %q
owner          = %q
skip_deletion  = %q
permissions    = %s
allowed_ips    = %s
ssh_username   = %q
ssh_public_key = %q
`,
		v.ProjectID,
		v.Region,
		v.Zone,
		v.MachineType,
		v.ClusterName,
		v.ClusterZone,
		v.VMName,
		v.Owner,
		v.SkipDeletion,
		hclList(v.Roles),
		hclList(v.AllowedIPs),
		v.SSHUsername,
		v.SSHPublicKey,
	)
}

// hclList renders a string slice as an HCL list literal.
func hclList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
