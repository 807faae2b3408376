package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/cloudagent/config"
	"github.com/projecteru2/cloudagent/gcloud"
	"github.com/projecteru2/cloudagent/identity"
	"github.com/projecteru2/cloudagent/network"
	"github.com/projecteru2/cloudagent/terraform"
	"github.com/projecteru2/cloudagent/vm"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitManager derives the operator identity and wires the VM manager with
// the real terraform, gcloud, and address-detection backends.
func InitManager(conf *config.Config) (*vm.Manager, error) {
	var prompter identity.Prompter
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prompter = &identity.StdinPrompter{}
	}
	id, err := identity.Derive(conf.LocalUser, conf.Username, conf.Company, prompter)
	if err != nil {
		return nil, err
	}
	return vm.New(conf, id, terraform.New("."), gcloud.New(), network.NewHTTPDetector()), nil
}

// Confirm asks a yes/no question on the terminal. Anything but an explicit
// yes is a no.
func Confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("confirmation requires an interactive terminal")
	}
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
