// Package vm is the orchestrating core: it reconciles VM existence across
// local provisioning state and the provider, decides create-vs-reuse, and
// routes lifecycle operations to the terraform driver and the provider CLI.
package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/config"
	"github.com/projecteru2/cloudagent/gcloud"
	"github.com/projecteru2/cloudagent/network"
	"github.com/projecteru2/cloudagent/terraform"
	"github.com/projecteru2/cloudagent/types"
)

// ErrNotFound is returned when an operation needs an existing VM and none is
// there.
var ErrNotFound = errors.New("VM not found")

// Infra is the slice of the terraform driver the manager uses.
type Infra interface {
	StatePresent() bool
	WriteVars(vars terraform.Vars) error
	Init(ctx context.Context) error
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	ReadOutput(ctx context.Context, name string) string
}

// Provider is the slice of the provider control-plane the manager uses.
type Provider interface {
	Project(ctx context.Context) (string, error)
	List(ctx context.Context) ([]gcloud.Instance, error)
	Exists(ctx context.Context, name string) (bool, error)
	Describe(ctx context.Context, name, zone string) (*gcloud.Instance, error)
	Start(ctx context.Context, name, zone string) error
	Stop(ctx context.Context, name, zone string) error
	Delete(ctx context.Context, name, zone string) error
}

// Manager drives one operator's VM.
type Manager struct {
	conf     *config.Config
	id       types.VMIdentity
	infra    Infra
	provider Provider
	detector network.Detector
}

// New wires the manager.
func New(conf *config.Config, id types.VMIdentity, infra Infra, provider Provider, detector network.Detector) *Manager {
	return &Manager{conf: conf, id: id, infra: infra, provider: provider, detector: detector}
}

// Identity returns the derived identity the manager operates on.
func (m *Manager) Identity() types.VMIdentity { return m.id }

// Exists resolves whether the VM is already there. Local provisioning state
// is consulted first: it is authoritative for VMs this tool created and
// avoids a provider round-trip. VMs created by other means are caught by the
// provider query fallback. A VM deleted out-of-band after the fast path
// answers is not caught here; that race is accepted.
func (m *Manager) Exists(ctx context.Context) (types.ExistenceRecord, error) {
	if m.infra.StatePresent() {
		if m.infra.ReadOutput(ctx, "vm_name") == m.id.Name {
			return types.ExistenceRecord{Exists: true, Source: types.SourceLocalState}, nil
		}
	}
	found, err := m.provider.Exists(ctx, m.id.Name)
	if err != nil {
		return types.ExistenceRecord{}, err
	}
	if found {
		return types.ExistenceRecord{Exists: true, Source: types.SourceProviderQuery}, nil
	}
	return types.ExistenceRecord{Exists: false, Source: types.SourceNone}, nil
}

// Start boots the VM. Starting an already-running VM is the provider's
// problem, not an error here.
func (m *Manager) Start(ctx context.Context) error {
	log.WithFunc("vm.Start").Infof(ctx, "starting VM %s", m.id.Name)
	return m.provider.Start(ctx, m.id.Name, m.conf.Zone)
}

// Stop halts the VM without deleting it.
func (m *Manager) Stop(ctx context.Context) error {
	log.WithFunc("vm.Stop").Infof(ctx, "stopping VM %s", m.id.Name)
	return m.provider.Stop(ctx, m.id.Name, m.conf.Zone)
}

// Terminate deletes the VM. Destroying through terraform is preferred so the
// firewall, service account, and network resources go with it; the direct
// provider delete only runs when no local provisioning state exists.
func (m *Manager) Terminate(ctx context.Context) error {
	logger := log.WithFunc("vm.Terminate")
	if m.infra.StatePresent() {
		logger.Infof(ctx, "destroying all provisioned resources")
		if err := m.infra.Destroy(ctx); err != nil {
			return err
		}
		logger.Infof(ctx, "all resources destroyed")
		return nil
	}
	logger.Infof(ctx, "no provisioning state found, deleting VM %s directly", m.id.Name)
	if err := m.provider.Delete(ctx, m.id.Name, m.conf.Zone); err != nil {
		return err
	}
	logger.Infof(ctx, "VM terminated")
	return nil
}

// ConnectionInfo resolves how to reach the guest, preferring terraform
// outputs and falling back to a provider describe.
func (m *Manager) ConnectionInfo(ctx context.Context) (types.ConnectionInfo, error) {
	info := types.ConnectionInfo{
		SSHUser:    m.id.SSHUser,
		SSHKeyPath: m.conf.ResolveSSHKey(),
	}

	if m.infra.StatePresent() {
		info.ExternalIP = m.infra.ReadOutput(ctx, "cloud_agent_ip")
		info.InternalIP = m.infra.ReadOutput(ctx, "internal_ip")
	}
	if info.ExternalIP == "" {
		inst, err := m.provider.Describe(ctx, m.id.Name, m.conf.Zone)
		if err != nil {
			return types.ConnectionInfo{}, fmt.Errorf("%w: %s", ErrNotFound, m.id.Name)
		}
		info.ExternalIP = inst.ExternalIP()
		info.InternalIP = inst.InternalIP()
	}
	if info.ExternalIP == "" {
		return types.ConnectionInfo{}, fmt.Errorf("could not determine address of VM %s", m.id.Name)
	}
	return info, nil
}
