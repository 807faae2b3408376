// Package creds fans credentials out to the guest: GitHub authentication
// material first, then every agent backend's credential artifact. Each step
// failing is a warning, not fatal: a partially credentialed VM is still
// reachable and the operator can finish by hand.
package creds

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/agents"
	"github.com/projecteru2/cloudagent/config"
)

// FanOut configures GitHub access and stages agent credentials on the guest.
func FanOut(ctx context.Context, tr agents.Transport, conf *config.Config) {
	logger := log.WithFunc("creds.FanOut")
	logger.Infof(ctx, "configuring credentials on guest")

	if err := tr.Run(ctx, "mkdir -p ~/.ssh && chmod 700 ~/.ssh"); err != nil {
		logger.Warnf(ctx, "prepare ~/.ssh: %v", err)
	}

	if key := conf.ResolveSSHKey(); key != "" {
		if err := transferSSHKey(ctx, tr, key); err != nil {
			logger.Warnf(ctx, "GitHub SSH key transfer: %v", err)
		} else {
			logger.Infof(ctx, "GitHub SSH key transferred")
		}
	} else if token, err := ResolveToken(conf.GitHubToken); err != nil {
		logger.Warnf(ctx, "GitHub token: %v", err)
	} else if token != "" {
		if err := transferToken(ctx, tr, token); err != nil {
			logger.Warnf(ctx, "GitHub PAT transfer: %v", err)
		} else {
			logger.Infof(ctx, "GitHub PAT transferred")
		}
	} else {
		logger.Warnf(ctx, "no GitHub credentials configured; pushes from the guest will fail")
	}

	for _, agent := range agents.All() {
		if _, ok := agent.CredentialPath(); !ok {
			continue
		}
		if err := agent.TransferCredential(ctx, tr); err != nil {
			logger.Warnf(ctx, "%s credentials: %v", agent.DisplayName(), err)
			continue
		}
		logger.Infof(ctx, "%s credentials transferred", agent.DisplayName())
	}
}

// transferSSHKey places the key pair on the guest, trusts GitHub's host key,
// and sets the commit identity.
func transferSSHKey(ctx context.Context, tr agents.Transport, keyPath string) error {
	if err := tr.CopyTo(ctx, keyPath, "~/.ssh/id_ed25519"); err != nil {
		return err
	}
	pubPath := keyPath + ".pub"
	havePub := false
	if _, err := os.Stat(pubPath); err == nil {
		if err := tr.CopyTo(ctx, pubPath, "~/.ssh/id_ed25519.pub"); err != nil {
			return err
		}
		havePub = true
	}

	steps := []string{"chmod 600 ~/.ssh/id_ed25519"}
	if havePub {
		steps = append(steps,
			"chmod 644 ~/.ssh/id_ed25519.pub",
			"cat ~/.ssh/id_ed25519.pub >> ~/.ssh/authorized_keys",
			"chmod 600 ~/.ssh/authorized_keys",
		)
	}
	steps = append(steps,
		"ssh-keyscan github.com >> ~/.ssh/known_hosts 2>/dev/null",
		"git config --global user.email 'cloud-agent@localhost'",
		"git config --global user.name 'Cloud Agent'",
	)
	return tr.Run(ctx, strings.Join(steps, " && "))
}

// transferToken configures the store credential helper with the PAT in
// embedded-credential URL form. The token must never reach a log line.
func transferToken(ctx context.Context, tr agents.Transport, token string) error {
	cmd := fmt.Sprintf(
		"git config --global credential.helper store && "+
			"echo 'https://oauth2:%s@github.com' > ~/.git-credentials && "+
			"chmod 600 ~/.git-credentials && "+
			"git config --global user.email 'cloud-agent@localhost' && "+
			"git config --global user.name 'Cloud Agent'",
		token)
	if err := tr.Run(ctx, cmd); err != nil {
		// Strip the command (and token) from the error before it surfaces.
		return fmt.Errorf("credential helper setup failed")
	}
	return nil
}

// ResolveToken accepts a PAT either directly or as a path to a file holding
// it.
func ResolveToken(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value) //nolint:gosec // operator-supplied path
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return value, nil
}
