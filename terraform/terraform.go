// Package terraform drives the infrastructure tool: it renders the variable
// file, runs init/apply/destroy, and reads back named outputs. The terraform
// binary is reached through a narrow runner interface so the decision logic
// is testable without subprocesses.
package terraform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/projecteru2/cloudagent/utils"
)

const (
	stateFile = "terraform.tfstate"
	varsFile  = "terraform.tfvars"
)

// runner executes the terraform binary in a working directory. Output
// captures stdout for output reads; Run streams to the operator's terminal
// for the long init/apply/destroy phases.
type runner interface {
	Output(ctx context.Context, dir string, args ...string) (string, error)
	Run(ctx context.Context, dir string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	return utils.Output(ctx, dir, "terraform", args...)
}

func (execRunner) Run(ctx context.Context, dir string, args ...string) error {
	return utils.Run(ctx, dir, "terraform", args...)
}

// Driver wraps one terraform working directory.
type Driver struct {
	dir string
	run runner
}

// New returns a Driver rooted at dir.
func New(dir string) *Driver {
	return &Driver{dir: dir, run: execRunner{}}
}

// Dir returns the working directory holding state and variables.
func (d *Driver) Dir() string { return d.dir }

// StatePresent reports whether local provisioning state exists.
func (d *Driver) StatePresent() bool {
	_, err := os.Stat(filepath.Join(d.dir, stateFile))
	return err == nil
}

// WriteVars renders vars to terraform.tfvars. 0600: the file carries the SSH
// public key and the allow-list.
func (d *Driver) WriteVars(vars Vars) error {
	path := filepath.Join(d.dir, varsFile)
	if err := os.WriteFile(path, []byte(vars.Render()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", varsFile, err)
	}
	return nil
}

// Init runs terraform init non-interactively.
func (d *Driver) Init(ctx context.Context) error {
	if err := d.run.Run(ctx, d.dir, "init", "-input=false"); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}
	return nil
}

// Apply runs terraform apply. Failure is propagated verbatim with no retry:
// infrastructure applies are not safely auto-retryable without inspecting
// what was partially created.
func (d *Driver) Apply(ctx context.Context) error {
	if err := d.run.Run(ctx, d.dir, "apply", "-auto-approve"); err != nil {
		return fmt.Errorf("terraform apply: %w", err)
	}
	return nil
}

// Destroy tears down every resource tracked in state.
func (d *Driver) Destroy(ctx context.Context) error {
	if err := d.run.Run(ctx, d.dir, "destroy", "-auto-approve"); err != nil {
		return fmt.Errorf("terraform destroy: %w", err)
	}
	return nil
}

// ReadOutput returns the raw value of a named output, or "" when the output
// cannot be read (absent state, unknown name).
func (d *Driver) ReadOutput(ctx context.Context, name string) string {
	out, err := d.run.Output(ctx, d.dir, "output", "-raw", name)
	if err != nil {
		return ""
	}
	return out
}
