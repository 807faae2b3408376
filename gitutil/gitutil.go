// Package gitutil handles repository references: detecting the origin of the
// working directory, validating URLs, and syncing repositories into the
// guest's workspace.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/cloudagent/utils"
)

// WorkspaceDir is where repositories land on the guest.
const WorkspaceDir = "/workspace"

var (
	ErrNotARepo   = errors.New("not in a git repository; pass a repository URL or run from a git directory")
	ErrInvalidURL = errors.New("invalid repository URL")
)

// remote is the slice of the transport repo sync needs.
type remote interface {
	Run(ctx context.Context, command string) error
	Output(ctx context.Context, command string) (string, error)
}

// DetectCurrentRepo returns the origin URL of the current working directory.
func DetectCurrentRepo(ctx context.Context) ([]string, error) {
	if _, err := utils.Output(ctx, "", "git", "rev-parse", "--is-inside-work-tree"); err != nil {
		return nil, ErrNotARepo
	}
	url, err := utils.Output(ctx, "", "git", "remote", "get-url", "origin")
	if err != nil || url == "" {
		return nil, fmt.Errorf("no usable 'origin' remote in current repository")
	}
	log.WithFunc("gitutil.DetectCurrentRepo").Infof(ctx, "auto-detected repo from current directory: %s", url)
	return []string{url}, nil
}

// ValidateURL accepts SSH and HTTP(S) repository references.
func ValidateURL(url string) error {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidURL, url)
}

// RepoName extracts the repository name from an SSH or HTTPS URL.
func RepoName(url string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	trimmed = strings.TrimSuffix(trimmed, "/")
	idx := strings.LastIndexAny(trimmed, "/:")
	name := trimmed[idx+1:]
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}
	return name, nil
}

// Sync clones each repository into the guest workspace, pulling instead when
// a checkout already exists.
func Sync(ctx context.Context, tr remote, repos []string) error {
	logger := log.WithFunc("gitutil.Sync")
	logger.Infof(ctx, "cloning repositories to guest workspace")

	// Workspace is created root-owned by the startup script.
	_ = tr.Run(ctx, fmt.Sprintf("sudo chmod 777 %s 2>/dev/null || true", WorkspaceDir))

	for _, repo := range repos {
		if err := ValidateURL(repo); err != nil {
			return err
		}
		name, err := RepoName(repo)
		if err != nil {
			return err
		}
		logger.Infof(ctx, "syncing %s", name)

		cmd := fmt.Sprintf(
			"cd %s && if [ -d '%s' ]; then cd '%s' && git pull; else git clone '%s' '%s'; fi",
			WorkspaceDir, name, name, repo, name)
		if err := tr.Run(ctx, cmd); err != nil {
			return fmt.Errorf("sync %s: %w", name, err)
		}
	}
	logger.Infof(ctx, "all repositories synced")
	return nil
}

// ListWorkspace returns the guest workspace listing for the post-deploy
// summary.
func ListWorkspace(ctx context.Context, tr remote) (string, error) {
	return tr.Output(ctx, "ls -la "+WorkspaceDir+"/")
}
