package vm

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/agents"
	"github.com/projecteru2/cloudagent/creds"
	"github.com/projecteru2/cloudagent/gcloud"
	"github.com/projecteru2/cloudagent/gitutil"
	"github.com/projecteru2/cloudagent/sshtransport"
	"github.com/projecteru2/cloudagent/types"
)

// Transport is what the deploy flow needs from the guest connection.
type Transport interface {
	Run(ctx context.Context, command string) error
	Output(ctx context.Context, command string) (string, error)
	CopyTo(ctx context.Context, localPath, remotePath string) error
}

// newTransport is swapped out in tests.
var newTransport = func(info types.ConnectionInfo) Transport {
	return sshtransport.New(info)
}

// Preflight validates the configured agent before anything touches the
// network. An unknown agent name is fatal; a missing or unauthenticated
// local install only warns, the operator may authenticate on the guest.
func (m *Manager) Preflight(ctx context.Context) (agents.Agent, error) {
	agent, err := agents.Lookup(m.conf.Agent)
	if err != nil {
		return nil, err
	}
	logger := log.WithFunc("vm.Preflight")
	if !agent.Installed() {
		logger.Warnf(ctx, "%s CLI not found locally, install with: %s", agent.DisplayName(), agent.InstallCommand())
	}
	if !agent.Authenticated() {
		logger.Warnf(ctx, "no local %s credentials found. %s", agent.DisplayName(), agent.LoginInstructions())
	}
	return agent, nil
}

// Deploy pushes credentials onto an existing VM and syncs the given
// repositories into its workspace. The VM must already exist, deploy never
// creates one.
func (m *Manager) Deploy(ctx context.Context, repos []string, skipCreds bool) error {
	agent, err := m.Preflight(ctx)
	if err != nil {
		return err
	}
	rec, err := m.Exists(ctx)
	if err != nil {
		return err
	}
	if !rec.Exists {
		return fmt.Errorf("%w: %s, create it first", ErrNotFound, m.id.Name)
	}
	return m.deployTo(ctx, agent, repos, skipCreds)
}

func (m *Manager) deployTo(ctx context.Context, agent agents.Agent, repos []string, skipCreds bool) error {
	logger := log.WithFunc("vm.Deploy")

	info, err := m.ConnectionInfo(ctx)
	if err != nil {
		return err
	}
	tr := newTransport(info)

	if skipCreds {
		logger.Infof(ctx, "skipping credential transfer")
	} else {
		creds.FanOut(ctx, tr, m.conf)
	}

	if err := gitutil.Sync(ctx, tr, repos); err != nil {
		return err
	}
	if listing, err := gitutil.ListWorkspace(ctx, tr); err == nil && listing != "" {
		logger.Infof(ctx, "workspace contents:\n%s", listing)
	}

	logger.Infof(ctx, "deployment complete")
	logger.Infof(ctx, "connect with: cloud-agent ssh")
	logger.Infof(ctx, "then run %s inside %s", agent.Command(), gitutil.WorkspaceDir)
	return nil
}

// FullDeploy is the default end-to-end flow: make sure the VM exists, then
// deploy onto it.
func (m *Manager) FullDeploy(ctx context.Context, repos []string, forceCreate, skipCreate, skipCreds bool) error {
	agent, err := m.Preflight(ctx)
	if err != nil {
		return err
	}
	if skipCreate {
		rec, err := m.Exists(ctx)
		if err != nil {
			return err
		}
		if !rec.Exists {
			return fmt.Errorf("%w: %s, cannot skip creation", ErrNotFound, m.id.Name)
		}
	} else if err := m.Ensure(ctx, forceCreate); err != nil {
		return err
	}
	return m.deployTo(ctx, agent, repos, skipCreds)
}

// List returns every VM carrying the fleet label, for all owners. The label
// filter alone scopes the query; no operator identity is involved, so the
// read-only path never prompts for one.
func List(ctx context.Context, provider Provider) ([]gcloud.Instance, error) {
	return provider.List(ctx)
}
