package sshtransport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projecteru2/cloudagent/types"
)

type call struct {
	bin  string
	args []string
}

type fakeRunner struct {
	calls []call
	out   string
}

func (f *fakeRunner) Output(_ context.Context, bin string, args ...string) (string, error) {
	f.calls = append(f.calls, call{bin, args})
	return f.out, nil
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) error {
	f.calls = append(f.calls, call{bin, args})
	return nil
}

func testClient(run runner) *Client {
	return &Client{
		info: types.ConnectionInfo{
			ExternalIP: "34.55.1.2",
			SSHUser:    "jane-doe",
			SSHKeyPath: "/home/jane/.ssh/cloud-agent",
		},
		run: run,
	}
}

func TestOutputArgs(t *testing.T) {
	run := &fakeRunner{out: "ok"}
	c := testClient(run)

	out, err := c.Output(context.Background(), "ls /workspace")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, run.calls, 1)
	assert.Equal(t, "ssh", run.calls[0].bin)
	assert.Equal(t, []string{
		"-i", "/home/jane/.ssh/cloud-agent",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "ConnectTimeout=10",
		"jane-doe@34.55.1.2",
		"ls /workspace",
	}, run.calls[0].args)
}

func TestCopyToTargetsGuest(t *testing.T) {
	run := &fakeRunner{}
	c := testClient(run)

	require.NoError(t, c.CopyTo(context.Background(), "/tmp/key", "~/.ssh/id_ed25519"))
	require.Len(t, run.calls, 1)
	assert.Equal(t, "scp", run.calls[0].bin)
	assert.Contains(t, run.calls[0].args, "jane-doe@34.55.1.2:~/.ssh/id_ed25519")
}

func TestRewrite(t *testing.T) {
	c := testClient(&fakeRunner{})
	tests := []struct {
		in   string
		want string
	}{
		{"vm:/workspace/out.txt", "jane-doe@34.55.1.2:/workspace/out.txt"},
		{"./out.txt", "./out.txt"},
		{"/abs/path", "/abs/path"},
		{"file-with-vm:inside", "file-with-vm:inside"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Rewrite(tt.in), "input %q", tt.in)
	}
}

func TestCopyRewritesBothSides(t *testing.T) {
	run := &fakeRunner{}
	c := testClient(run)

	require.NoError(t, c.Copy(context.Background(), "vm:/workspace/out.txt", "./out.txt"))
	require.Len(t, run.calls, 1)
	args := run.calls[0].args
	assert.Contains(t, args, "-r")
	assert.Contains(t, args, "jane-doe@34.55.1.2:/workspace/out.txt")
	assert.Contains(t, args, "./out.txt")
}

func TestMissingKeyFails(t *testing.T) {
	c := &Client{info: types.ConnectionInfo{ExternalIP: "34.55.1.2", SSHUser: "jane-doe"}, run: &fakeRunner{}}
	_, err := c.Output(context.Background(), "true")
	require.ErrorIs(t, err, ErrNoSSHKey)
	require.ErrorIs(t, c.CopyTo(context.Background(), "a", "b"), ErrNoSSHKey)
	require.ErrorIs(t, c.Copy(context.Background(), "a", "b"), ErrNoSSHKey)
}
