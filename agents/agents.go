// Package agents holds the registry of coding-agent backends that can run on
// the VM. Each backend knows how to find its local credential artifact and
// how to place it on the guest; the orchestrator never learns the artifact's
// shape.
package agents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/projecteru2/cloudagent/utils"
)

// ErrUnknownAgent is returned when the requested agent name is not
// registered.
var ErrUnknownAgent = errors.New("unknown agent")

// Transport is the slice of the remote transport an agent needs to move its
// credential onto the guest.
type Transport interface {
	Run(ctx context.Context, command string) error
	CopyTo(ctx context.Context, localPath, remotePath string) error
}

// Agent describes one coding-agent backend.
type Agent interface {
	Name() string
	DisplayName() string
	// Command is the binary the operator runs on the guest.
	Command() string
	// InstallCommand is shown when the agent CLI is missing on the guest.
	InstallCommand() string
	// Installed reports whether the agent CLI resolves on the local PATH.
	Installed() bool
	// Authenticated reports whether a local credential artifact exists.
	Authenticated() bool
	// LoginInstructions tells the operator how to authenticate locally.
	LoginInstructions() string
	// CredentialPath returns the local credential artifact, if present.
	CredentialPath() (string, bool)
	// TransferCredential stages the credential onto the guest with 0600
	// permissions.
	TransferCredential(ctx context.Context, tr Transport) error
}

// fileCredAgent is an agent whose credential is a single file under the
// operator's home directory.
type fileCredAgent struct {
	name       string
	display    string
	command    string
	install    string
	login      string
	localCred  string // relative to $HOME
	remoteDir  string // guest directory holding the credential, "" for $HOME
	remoteCred string // guest credential path, ~-relative
}

func (a fileCredAgent) Name() string              { return a.name }
func (a fileCredAgent) DisplayName() string       { return a.display }
func (a fileCredAgent) Command() string           { return a.command }
func (a fileCredAgent) InstallCommand() string    { return a.install }
func (a fileCredAgent) LoginInstructions() string { return a.login }

func (a fileCredAgent) Installed() bool {
	return utils.CommandExists(a.command)
}

func (a fileCredAgent) Authenticated() bool {
	_, ok := a.CredentialPath()
	return ok
}

func (a fileCredAgent) CredentialPath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, a.localCred)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// TransferCredential copies the artifact to a uuid-named staging file on the
// guest, then moves it into place so a failed copy never leaves a partial
// credential at the final path.
func (a fileCredAgent) TransferCredential(ctx context.Context, tr Transport) error {
	local, ok := a.CredentialPath()
	if !ok {
		return fmt.Errorf("no local credentials for %s", a.display)
	}

	staging := "~/.cloudagent-stage-" + uuid.New().String()
	if err := tr.CopyTo(ctx, local, staging); err != nil {
		return fmt.Errorf("copy %s credentials: %w", a.display, err)
	}

	var install string
	if a.remoteDir != "" {
		install = fmt.Sprintf("mkdir -p %s && mv %s %s && chmod 600 %s",
			a.remoteDir, staging, a.remoteCred, a.remoteCred)
	} else {
		install = fmt.Sprintf("mv %s %s && chmod 600 %s", staging, a.remoteCred, a.remoteCred)
	}
	if err := tr.Run(ctx, install); err != nil {
		return fmt.Errorf("install %s credentials: %w", a.display, err)
	}
	return nil
}

// registry is the compile-time agent table. Adding a backend means adding an
// entry here; there is no runtime plugin loading.
var registry = map[string]Agent{
	"auggie": fileCredAgent{
		name:       "auggie",
		display:    "Auggie (Augment Code)",
		command:    "auggie",
		install:    "npm install -g @augmentcode/auggie",
		login:      "Run 'auggie login' to authenticate",
		localCred:  filepath.Join(".augment", "session.json"),
		remoteDir:  "~/.augment",
		remoteCred: "~/.augment/session.json",
	},
	"claude": fileCredAgent{
		name:       "claude",
		display:    "Claude Code (Anthropic)",
		command:    "claude",
		install:    "npm install -g @anthropic-ai/claude-code",
		login:      "Run 'claude' to authenticate",
		localCred:  ".claude.json",
		remoteCred: "~/.claude.json",
	},
	"codex": fileCredAgent{
		name:       "codex",
		display:    "Codex (OpenAI)",
		command:    "codex",
		install:    "npm install -g @openai/codex",
		login:      "Run 'codex' to authenticate",
		localCred:  filepath.Join(".codex", "config.toml"),
		remoteDir:  "~/.codex",
		remoteCred: "~/.codex/config.toml",
	},
}

// Lookup resolves an agent by name.
func Lookup(name string) (Agent, error) {
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAgent, name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names returns the registered agent names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every registered agent in name order.
func All() []Agent {
	var all []Agent
	for _, n := range Names() {
		all = append(all, registry[n])
	}
	return all
}
