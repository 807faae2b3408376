package gitutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	runs []string
	out  string
}

func (f *fakeRemote) Run(_ context.Context, command string) error {
	f.runs = append(f.runs, command)
	return nil
}

func (f *fakeRemote) Output(_ context.Context, command string) (string, error) {
	f.runs = append(f.runs, command)
	return f.out, nil
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:org/repo.git", "repo"},
		{"https://github.com/org/repo.git", "repo"},
		{"https://github.com/org/repo", "repo"},
		{"https://github.com/org/repo/", "repo"},
	}
	for _, tt := range tests {
		name, err := RepoName(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, name, tt.url)
	}
}

func TestRepoNameInvalid(t *testing.T) {
	_, err := RepoName("")
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("git@github.com:org/repo.git"))
	assert.NoError(t, ValidateURL("https://github.com/org/repo.git"))
	assert.NoError(t, ValidateURL("http://github.com/org/repo"))
	assert.ErrorIs(t, ValidateURL("org/repo"), ErrInvalidURL)
}

func TestSyncClonesEachRepo(t *testing.T) {
	tr := &fakeRemote{}
	repos := []string{"git@github.com:org/alpha.git", "https://github.com/org/beta.git"}
	require.NoError(t, Sync(context.Background(), tr, repos))

	// chmod + one command per repo
	require.Len(t, tr.runs, 3)
	assert.Contains(t, tr.runs[1], "git clone 'git@github.com:org/alpha.git' 'alpha'")
	assert.Contains(t, tr.runs[1], "cd 'alpha' && git pull")
	assert.Contains(t, tr.runs[2], "'beta'")
}

func TestSyncRejectsInvalidURL(t *testing.T) {
	err := Sync(context.Background(), &fakeRemote{}, []string{"not-a-url"})
	require.ErrorIs(t, err, ErrInvalidURL)
}
