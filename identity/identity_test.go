package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	answers []string
	asked   []string
}

func (f *fakePrompter) Prompt(label string) (string, error) {
	f.asked = append(f.asked, label)
	if len(f.answers) == 0 {
		return "", nil
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Jane.Doe", "jane-doe", "JANE_DOE", "j.a-n.e", "  mixed.Case-Val  "}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestDeriveFromDelimitedUsername(t *testing.T) {
	id, err := Derive("jane.doe", "", "", &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, "jane_doe", id.Owner)
	assert.Equal(t, "jane-doe-cloud-agent", id.Name)
	assert.Equal(t, "jane-doe", id.SSHUser)
}

func TestDeriveWithCompanySuffix(t *testing.T) {
	id, err := Derive("jane.doe", "", "Acme.Corp", &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, "jane_doe_acme_corp", id.Owner)
	assert.Equal(t, "jane-doe-acme-corp-cloud-agent", id.Name)
}

func TestDeriveOverrideSkipsPrompt(t *testing.T) {
	p := &fakePrompter{}
	id, err := Derive("someuser", "John-Smith", "", p)
	require.NoError(t, err)
	assert.Empty(t, p.asked, "override must not solicit input")
	assert.Equal(t, "john_smith", id.Owner)
	assert.Equal(t, "john-smith-cloud-agent", id.Name)
}

func TestDeriveSolicitsWhenNoDelimiter(t *testing.T) {
	p := &fakePrompter{answers: []string{"Jane", "Doe"}}
	id, err := Derive("jdoe42", "", "", p)
	require.NoError(t, err)
	assert.Equal(t, []string{"First name", "Last name"}, p.asked)
	assert.Equal(t, "jane_doe", id.Owner)
}

func TestDeriveEmptyAnswerFails(t *testing.T) {
	p := &fakePrompter{answers: []string{"Jane", ""}}
	_, err := Derive("jdoe42", "", "", p)
	require.ErrorIs(t, err, ErrMissingIdentity)
}

func TestDeriveNoPrompterFails(t *testing.T) {
	_, err := Derive("jdoe42", "", "", nil)
	require.ErrorIs(t, err, ErrMissingIdentity)
}

func TestDeriveNoUsernameFails(t *testing.T) {
	_, err := Derive("", "", "", &fakePrompter{})
	require.ErrorIs(t, err, ErrMissingIdentity)
}

// Both lines of a paste land in the reader's buffer on the first read; the
// second prompt must still see the second line.
func TestStdinPrompterReadsPastedLines(t *testing.T) {
	p := &StdinPrompter{In: strings.NewReader("Jane\nDoe\n")}

	first, err := p.Prompt("First name")
	require.NoError(t, err)
	last, err := p.Prompt("Last name")
	require.NoError(t, err)
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)
}

func TestStdinPrompterViaDerive(t *testing.T) {
	p := &StdinPrompter{In: strings.NewReader("Jane\nDoe\n")}
	id, err := Derive("jdoe42", "", "", p)
	require.NoError(t, err)
	assert.Equal(t, "jane_doe", id.Owner)
}

func TestNameFromOwnerIsProviderLegal(t *testing.T) {
	name := NameFromOwner("jane_doe_acme")
	assert.NotContains(t, name, "_")
	assert.Equal(t, "jane-doe-acme-cloud-agent", name)
}
