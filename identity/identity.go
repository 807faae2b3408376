// Package identity derives the per-operator VM identity: a provider-legal
// instance name, a bookkeeping owner label, and the hardened SSH username.
package identity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/projecteru2/cloudagent/types"
)

// NameSuffix is appended to the owner-derived instance name.
const NameSuffix = "-cloud-agent"

// ErrMissingIdentity is returned when no usable operator identity can be
// derived and interactive solicitation came back empty.
var ErrMissingIdentity = errors.New("operator identity missing")

// Normalize maps a raw identity fragment to the owner-label alphabet:
// lowercase with dots and dashes folded to underscores. Idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// NameFromOwner converts an owner label to the provider-legal VM name:
// dashes instead of underscores, plus the fixed suffix.
func NameFromOwner(owner string) string {
	return strings.ReplaceAll(owner, "_", "-") + NameSuffix
}

// Prompter solicits an identity fragment from the operator. The default
// implementation reads from the terminal; tests inject fakes.
type Prompter interface {
	Prompt(label string) (string, error)
}

// StdinPrompter prompts on stderr and reads a line from In. A single
// buffered reader lives for the prompter's lifetime: two lines arriving in
// one write (a paste) are both seen, instead of the second being lost in a
// discarded buffer.
type StdinPrompter struct {
	In io.Reader

	reader *bufio.Reader
}

func (p *StdinPrompter) Prompt(label string) (string, error) {
	if p.reader == nil {
		in := p.In
		if in == nil {
			in = os.Stdin
		}
		p.reader = bufio.NewReader(in)
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Derive builds the VMIdentity from the operator username, an optional
// explicit override, and an optional company suffix.
//
// With an override the override wins verbatim (normalized). Without one the
// local username is used when it already carries a first.last delimiter;
// otherwise the prompter solicits first and last name, and an empty answer
// for either is ErrMissingIdentity.
func Derive(username, override, company string, prompter Prompter) (types.VMIdentity, error) {
	base := override
	if base == "" {
		base = username
		if base == "" {
			return types.VMIdentity{}, fmt.Errorf("%w: no username available", ErrMissingIdentity)
		}
		if !strings.Contains(base, ".") {
			if prompter == nil {
				return types.VMIdentity{}, fmt.Errorf("%w: username %q has no first.last form and no terminal to ask on, set USERNAME", ErrMissingIdentity, base)
			}
			first, err := prompter.Prompt("First name")
			if err != nil {
				return types.VMIdentity{}, fmt.Errorf("read first name: %w", err)
			}
			last, err := prompter.Prompt("Last name")
			if err != nil {
				return types.VMIdentity{}, fmt.Errorf("read last name: %w", err)
			}
			if first == "" || last == "" {
				return types.VMIdentity{}, fmt.Errorf("%w: first and last name required", ErrMissingIdentity)
			}
			base = first + "." + last
		}
	}

	owner := Normalize(base)
	if company != "" {
		owner = owner + "_" + Normalize(company)
	}

	return types.VMIdentity{
		Name:    NameFromOwner(owner),
		Owner:   owner,
		SSHUser: strings.ReplaceAll(owner, "_", "-"),
	}, nil
}
