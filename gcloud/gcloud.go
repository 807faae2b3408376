// Package gcloud wraps the provider control-plane CLI: instance queries and
// the start/stop/delete primitives. Like the terraform driver, the binary
// sits behind a runner interface so callers are tested against fakes.
package gcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/projecteru2/cloudagent/utils"
)

// PurposeLabel marks instances managed by this tool; list filters on it.
const PurposeLabel = "cloud-agent"

// ErrProjectNotConfigured is returned when the CLI has no active project.
var ErrProjectNotConfigured = errors.New("GCP project not configured, run: gcloud config set project PROJECT_ID")

type runner interface {
	Output(ctx context.Context, args ...string) (string, error)
	Run(ctx context.Context, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, args ...string) (string, error) {
	return utils.Output(ctx, "", "gcloud", args...)
}

func (execRunner) Run(ctx context.Context, args ...string) error {
	return utils.Run(ctx, "", "gcloud", args...)
}

// Instance is the subset of the provider's instance resource the
// orchestrator reads.
type Instance struct {
	Name              string             `json:"name"`
	Zone              string             `json:"zone"`
	Status            string             `json:"status"`
	Labels            map[string]string  `json:"labels"`
	CreationTimestamp string             `json:"creationTimestamp"`
	NetworkInterfaces []NetworkInterface `json:"networkInterfaces"`
}

type NetworkInterface struct {
	NetworkIP     string         `json:"networkIP"`
	AccessConfigs []AccessConfig `json:"accessConfigs"`
}

type AccessConfig struct {
	NatIP string `json:"natIP"`
}

// ZoneName strips the self-link prefix the API puts in the zone field.
func (i Instance) ZoneName() string { return path.Base(i.Zone) }

// ExternalIP returns the first NAT address, "" when the instance has none
// (stopped instances release theirs).
func (i Instance) ExternalIP() string {
	for _, ni := range i.NetworkInterfaces {
		for _, ac := range ni.AccessConfigs {
			if ac.NatIP != "" {
				return ac.NatIP
			}
		}
	}
	return ""
}

// InternalIP returns the first interface's network address.
func (i Instance) InternalIP() string {
	for _, ni := range i.NetworkInterfaces {
		if ni.NetworkIP != "" {
			return ni.NetworkIP
		}
	}
	return ""
}

// Created parses the creation timestamp; zero time when absent or malformed.
func (i Instance) Created() time.Time {
	t, err := time.Parse(time.RFC3339, i.CreationTimestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Client drives the gcloud binary.
type Client struct {
	run runner
}

// New returns a Client using the real gcloud binary.
func New() *Client {
	return &Client{run: execRunner{}}
}

// Project returns the active project ID from the local CLI configuration.
func (c *Client) Project(ctx context.Context) (string, error) {
	out, err := c.run.Output(ctx, "config", "get-value", "project")
	if err != nil || out == "" || out == "(unset)" {
		return "", ErrProjectNotConfigured
	}
	return out, nil
}

// List returns every instance carrying the tool's purpose label.
func (c *Client) List(ctx context.Context) ([]Instance, error) {
	out, err := c.run.Output(ctx, "compute", "instances", "list",
		"--filter=labels.purpose="+PurposeLabel, "--format=json")
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	var instances []Instance
	if err := json.Unmarshal([]byte(out), &instances); err != nil {
		return nil, fmt.Errorf("parse instance list: %w", err)
	}
	return instances, nil
}

// Exists queries the provider for an instance with the exact name.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	out, err := c.run.Output(ctx, "compute", "instances", "list",
		"--filter=name="+name, "--format=value(name)")
	if err != nil {
		return false, fmt.Errorf("query instance %s: %w", name, err)
	}
	return out != "", nil
}

// Describe fetches a single instance by name and zone.
func (c *Client) Describe(ctx context.Context, name, zone string) (*Instance, error) {
	out, err := c.run.Output(ctx, "compute", "instances", "describe", name,
		"--zone="+zone, "--format=json")
	if err != nil {
		return nil, fmt.Errorf("describe instance %s: %w", name, err)
	}
	var inst Instance
	if err := json.Unmarshal([]byte(out), &inst); err != nil {
		return nil, fmt.Errorf("parse instance %s: %w", name, err)
	}
	return &inst, nil
}

// Start boots a stopped instance. Idempotent at this layer: the provider
// accepts a start of a running instance.
func (c *Client) Start(ctx context.Context, name, zone string) error {
	if err := c.run.Run(ctx, "compute", "instances", "start", name, "--zone="+zone); err != nil {
		return fmt.Errorf("start instance %s: %w", name, err)
	}
	return nil
}

// Stop halts a running instance without deleting it.
func (c *Client) Stop(ctx context.Context, name, zone string) error {
	if err := c.run.Run(ctx, "compute", "instances", "stop", name, "--zone="+zone); err != nil {
		return fmt.Errorf("stop instance %s: %w", name, err)
	}
	return nil
}

// Delete removes the instance directly, bypassing terraform. Used only when
// no local provisioning state exists.
func (c *Client) Delete(ctx context.Context, name, zone string) error {
	if err := c.run.Run(ctx, "compute", "instances", "delete", name, "--zone="+zone, "--quiet"); err != nil {
		return fmt.Errorf("delete instance %s: %w", name, err)
	}
	return nil
}
