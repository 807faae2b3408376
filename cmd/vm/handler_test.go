package vm

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdcore "github.com/projecteru2/cloudagent/cmd/core"
	"github.com/projecteru2/cloudagent/config"
	"github.com/projecteru2/cloudagent/gitutil"
	"github.com/projecteru2/cloudagent/identity"
)

func testHandler(conf *config.Config) Handler {
	return Handler{BaseHandler: cmdcore.BaseHandler{ConfProvider: func() *config.Config { return conf }}}
}

// An operator whose login name has no first.last form cannot derive an
// identity without a terminal. The read-only list does not need one, so it
// must never fail (or prompt) for that reason.
func TestListNeedsNoIdentity(t *testing.T) {
	conf := config.DefaultConfig()
	conf.LocalUser = "bob"
	h := testHandler(conf)

	err := h.List(&cobra.Command{}, nil)
	// The provider CLI may be unavailable in the test environment; the only
	// failure mode ruled out here is identity resolution.
	require.NotErrorIs(t, err, identity.ErrMissingIdentity)
}

func TestReposExplicitArgsWin(t *testing.T) {
	h := testHandler(config.DefaultConfig())

	repos, err := h.repos(context.Background(), []string{"https://github.com/acme/widget.git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://github.com/acme/widget.git"}, repos)
}

// Outside a git checkout with no arguments there is nothing to sync; the
// deploy fails instead of quietly doing nothing.
func TestReposOutsideRepoFails(t *testing.T) {
	t.Chdir(t.TempDir())
	h := testHandler(config.DefaultConfig())

	_, err := h.repos(context.Background(), nil)
	require.ErrorIs(t, err, gitutil.ErrNotARepo)
}
