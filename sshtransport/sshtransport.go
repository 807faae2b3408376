// Package sshtransport is the direct key-based transport to the guest: shell
// commands, file copies, and the interactive session. It drives the OpenSSH
// client binaries rather than the provider's brokered SSH, because
// provisioning disables provider key injection.
package sshtransport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/types"
	"github.com/projecteru2/cloudagent/utils"
)

// RemotePrefix marks a path as living on the guest in scp arguments.
const RemotePrefix = "vm:"

// ErrNoSSHKey is returned when no private key is configured for the
// transport.
var ErrNoSSHKey = errors.New("no SSH key configured")

type runner interface {
	Output(ctx context.Context, bin string, args ...string) (string, error)
	Run(ctx context.Context, bin string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, bin string, args ...string) (string, error) {
	return utils.Output(ctx, "", bin, args...)
}

func (execRunner) Run(ctx context.Context, bin string, args ...string) error {
	return utils.Run(ctx, "", bin, args...)
}

// Client reaches one guest.
type Client struct {
	info types.ConnectionInfo
	run  runner
}

// New returns a transport for the resolved connection info.
func New(info types.ConnectionInfo) *Client {
	return &Client{info: info, run: execRunner{}}
}

func (c *Client) options() ([]string, error) {
	if c.info.SSHKeyPath == "" {
		return nil, ErrNoSSHKey
	}
	return []string{
		"-i", c.info.SSHKeyPath,
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "ConnectTimeout=10",
	}, nil
}

func (c *Client) target() string {
	return c.info.SSHUser + "@" + c.info.ExternalIP
}

// Output runs a shell command on the guest and returns its trimmed stdout.
func (c *Client) Output(ctx context.Context, command string) (string, error) {
	opts, err := c.options()
	if err != nil {
		return "", err
	}
	args := append(opts, c.target(), command)
	out, err := c.run.Output(ctx, "ssh", args...)
	if err != nil {
		return "", fmt.Errorf("remote command: %w", err)
	}
	return out, nil
}

// Run runs a shell command on the guest, discarding output.
func (c *Client) Run(ctx context.Context, command string) error {
	_, err := c.Output(ctx, command)
	return err
}

// CopyTo copies a local file to a path on the guest.
func (c *Client) CopyTo(ctx context.Context, localPath, remotePath string) error {
	opts, err := c.options()
	if err != nil {
		return err
	}
	args := append(opts, localPath, c.target()+":"+remotePath)
	if _, err := c.run.Output(ctx, "scp", args...); err != nil {
		return fmt.Errorf("copy to guest: %w", err)
	}
	return nil
}

// Interactive opens a terminal-attached session that lands in tmux,
// attaching to an existing session or starting a fresh one.
func (c *Client) Interactive(ctx context.Context) error {
	opts, err := c.options()
	if err != nil {
		return err
	}
	logger := log.WithFunc("sshtransport.Interactive")
	logger.Infof(ctx, "connecting to %s as %s", c.info.ExternalIP, c.info.SSHUser)
	logger.Infof(ctx, "using SSH key: %s", c.info.SSHKeyPath)

	args := append(opts, c.target(), "-t", "tmux attach-session 2>/dev/null || tmux new-session")
	if err := c.run.Run(ctx, "ssh", args...); err != nil {
		return fmt.Errorf("interactive session: %w", err)
	}
	return nil
}

// Copy performs a recursive scp between two paths, either of which may carry
// the vm: prefix.
func (c *Client) Copy(ctx context.Context, src, dst string) error {
	opts, err := c.options()
	if err != nil {
		return err
	}
	args := append(opts, "-r", c.Rewrite(src), c.Rewrite(dst))
	if err := c.run.Run(ctx, "scp", args...); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// Rewrite turns a vm:-prefixed path into the resolved user@host: form;
// local paths pass through untouched.
func (c *Client) Rewrite(path string) string {
	if !strings.HasPrefix(path, RemotePrefix) {
		return path
	}
	return c.target() + ":" + strings.TrimPrefix(path, RemotePrefix)
}
