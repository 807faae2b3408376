package vm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/network"
	"github.com/projecteru2/cloudagent/terraform"
)

// Ensure makes sure the VM exists, creating it when it does not. With force
// set the existence check is skipped and the apply runs unconditionally.
func (m *Manager) Ensure(ctx context.Context, force bool) error {
	logger := log.WithFunc("vm.Ensure")
	if !force {
		rec, err := m.Exists(ctx)
		if err != nil {
			return err
		}
		if rec.Exists {
			logger.Infof(ctx, "VM %s already exists (%s), reusing it", m.id.Name, rec.Source)
			return nil
		}
	}

	logger.Infof(ctx, "creating VM %s", m.id.Name)
	if err := m.renderVars(ctx); err != nil {
		return err
	}
	if err := m.infra.Init(ctx); err != nil {
		return fmt.Errorf("provisioning init failed: %w", err)
	}
	if err := m.infra.Apply(ctx); err != nil {
		return fmt.Errorf("provisioning apply failed: %w", err)
	}

	m.bootWait(ctx)
	return nil
}

// Update re-renders variables and re-applies the existing provisioning
// state. It refuses to run without local state: applying from scratch under
// the guise of an update would recreate resources the operator did not ask
// for.
func (m *Manager) Update(ctx context.Context) error {
	if !m.infra.StatePresent() {
		return fmt.Errorf("no provisioning state found, create the VM first")
	}
	log.WithFunc("vm.Update").Infof(ctx, "re-applying provisioning for VM %s", m.id.Name)
	if err := m.renderVars(ctx); err != nil {
		return err
	}
	return m.infra.Apply(ctx)
}

// renderVars assembles the full variable set and writes it for the driver.
func (m *Manager) renderVars(ctx context.Context) error {
	logger := log.WithFunc("vm.renderVars")

	project, err := m.provider.Project(ctx)
	if err != nil {
		return err
	}

	allowed, err := network.AllowedIPs(ctx, m.detector, m.conf.AdditionalIP)
	if err != nil {
		return err
	}

	roles := terraform.ExpandRoles(ctx, m.conf.PermissionList())

	vars := terraform.Vars{
		ProjectID:    project,
		Region:       m.conf.Region(),
		Zone:         m.conf.Zone,
		MachineType:  m.conf.MachineType,
		ClusterName:  m.conf.ClusterName,
		ClusterZone:  m.conf.Zone,
		VMName:       m.id.Name,
		Owner:        m.id.Owner,
		SkipDeletion: m.conf.SkipDeletion,
		Roles:        roles,
		AllowedIPs:   allowed,
	}

	if key := m.conf.ResolveSSHKey(); key != "" {
		pub, err := os.ReadFile(key + ".pub")
		if err != nil {
			logger.Warnf(ctx, "public key %s.pub not readable, VM will accept any SSH key", key)
		} else {
			vars.SSHUsername = m.id.SSHUser
			vars.SSHPublicKey = strings.TrimSpace(string(pub))
		}
	} else {
		logger.Warn(ctx, "no SSH key found, VM will accept any SSH key")
	}

	return m.infra.WriteVars(vars)
}

// bootWait gives the guest time to finish its startup script before anyone
// connects. There is no readiness signal to poll, the VM image runs cloud-init
// on first boot and SSH comes up partway through.
func (m *Manager) bootWait(ctx context.Context) {
	wait := m.conf.BootWaitSeconds
	if wait <= 0 {
		return
	}
	log.WithFunc("vm.bootWait").Infof(ctx, "waiting %d seconds for the VM to finish booting", wait)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(wait) * time.Second):
	}
}
