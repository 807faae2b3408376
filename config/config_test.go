package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "auggie", c.Agent)
	assert.Equal(t, "us-central1-a", c.Zone)
	assert.Equal(t, "n2-standard-4", c.MachineType)
	assert.Equal(t, "yes", c.SkipDeletion)
	assert.Equal(t, 90, c.BootWaitSeconds)
}

func TestRegion(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "us-central1", c.Region())

	c.Zone = "europe-west4-b"
	assert.Equal(t, "europe-west4", c.Region())
}

func TestPermissionList(t *testing.T) {
	c := DefaultConfig()
	assert.Nil(t, c.PermissionList())

	c.Permissions = "compute, gke ,storage"
	assert.Equal(t, []string{"compute", "gke", "storage"}, c.PermissionList())

	c.Permissions = " , "
	assert.Empty(t, c.PermissionList())
}

func TestResolveSSHKeyExplicitWins(t *testing.T) {
	c := DefaultConfig()
	c.SSHKey = "/keys/mine"
	assert.Equal(t, "/keys/mine", c.ResolveSSHKey())
}

func TestResolveSSHKeyDetection(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))

	c := DefaultConfig()
	assert.Empty(t, c.ResolveSSHKey())

	// id_rsa present: found last in preference order.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "id_rsa"), nil, 0o600))
	assert.Equal(t, filepath.Join(home, ".ssh", "id_rsa"), c.ResolveSSHKey())

	// cloud-agent outranks id_rsa.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "cloud-agent"), nil, 0o600))
	assert.Equal(t, filepath.Join(home, ".ssh", "cloud-agent"), c.ResolveSSHKey())
}
