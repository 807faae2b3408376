package terraform

import (
	"context"
	"strings"

	"github.com/projecteru2/core/log"
)

// roleForPermission maps the operator-facing short permission names to the
// provider IAM roles granted to the VM's service account.
var roleForPermission = map[string]string{
	"compute": "roles/compute.admin",
	"gke":     "roles/container.admin",
	"storage": "roles/storage.admin",
	"iam":     "roles/iam.serviceAccountUser",
}

// adminRoles is the fixed superset the literal "admin" permission expands to.
var adminRoles = []string{
	"roles/compute.admin",
	"roles/container.admin",
	"roles/storage.admin",
	"roles/iam.serviceAccountUser",
}

// ExpandRoles maps short permission names to IAM roles, deduplicated in
// input order. "admin" expands to the full fixed superset. Unrecognized
// names are dropped with a warning so a typo is visible instead of silently
// narrowing the service account.
func ExpandRoles(ctx context.Context, permissions []string) []string {
	logger := log.WithFunc("terraform.ExpandRoles")

	var roles []string
	seen := map[string]struct{}{}
	add := func(role string) {
		if _, dup := seen[role]; dup {
			return
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	for _, perm := range permissions {
		perm = strings.TrimSpace(perm)
		if perm == "" {
			continue
		}
		if perm == "admin" {
			for _, r := range adminRoles {
				add(r)
			}
			continue
		}
		role, ok := roleForPermission[perm]
		if !ok {
			logger.Warnf(ctx, "unknown permission %q ignored (known: compute, gke, storage, iam, admin)", perm)
			continue
		}
		add(role)
	}
	return roles
}
