package config

import (
	"os"
	"path/filepath"
	"strings"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds the full invocation configuration, built once at startup from
// flags, environment, and the optional config file, then passed down the
// call graph. Nothing below this struct reads the environment.
type Config struct {
	// Agent is the coding-agent backend to deploy for.
	Agent string `json:"agent" mapstructure:"agent"`
	// Zone is the provider zone the VM lives in.
	Zone string `json:"zone" mapstructure:"zone"`
	// MachineType is the VM shape.
	MachineType string `json:"machine_type" mapstructure:"machine_type"`
	// ClusterName optionally grants access to a GKE cluster.
	ClusterName string `json:"cluster_name" mapstructure:"cluster_name"`
	// SSHKey is the private key used both for guest login and GitHub.
	SSHKey string `json:"ssh_key" mapstructure:"ssh_key"`
	// GitHubToken is a PAT, either the literal value or a path to a file
	// holding it.
	GitHubToken string `json:"github_token" mapstructure:"github_token"`
	// SkipDeletion labels the VM as protected from reaper jobs.
	SkipDeletion string `json:"skip_deletion" mapstructure:"skip_deletion"`
	// Permissions is the comma-separated short permission list.
	Permissions string `json:"permissions" mapstructure:"permissions"`
	// AdditionalIP is an extra allow-listed address.
	AdditionalIP string `json:"additional_ip" mapstructure:"additional_ip"`
	// Username overrides the derived operator identity.
	Username string `json:"username" mapstructure:"username"`
	// LocalUser is the operating-system login name, captured once at
	// startup as the default identity source.
	LocalUser string `json:"-" mapstructure:"-"`
	// Company is appended to the owner label.
	Company string `json:"company" mapstructure:"company"`
	// BootWaitSeconds is the settle delay after the first apply, giving the
	// guest startup script time to finish.
	BootWaitSeconds int `json:"boot_wait_seconds" mapstructure:"boot_wait_seconds"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Agent:           "auggie",
		Zone:            "us-central1-a",
		MachineType:     "n2-standard-4",
		SkipDeletion:    "yes",
		BootWaitSeconds: 90,
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Region derives the provider region from the zone by stripping the zone
// letter ("us-central1-a" -> "us-central1").
func (c *Config) Region() string {
	if i := strings.LastIndex(c.Zone, "-"); i > 0 {
		return c.Zone[:i]
	}
	return c.Zone
}

// PermissionList splits the raw permission string.
func (c *Config) PermissionList() []string {
	if strings.TrimSpace(c.Permissions) == "" {
		return nil
	}
	parts := strings.Split(c.Permissions, ",")
	perms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

// sshKeyCandidates are probed in order when no key is configured.
var sshKeyCandidates = []string{"cloud-auggie", "cloud-agent", "id_ed25519", "id_rsa"}

// ResolveSSHKey returns the configured private key path, falling back to
// well-known names under ~/.ssh. Empty when nothing is found.
func (c *Config) ResolveSSHKey() string {
	if c.SSHKey != "" {
		return c.SSHKey
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range sshKeyCandidates {
		path := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
