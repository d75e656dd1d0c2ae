package release

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Revision returns the HEAD commit of the repository containing dir,
// suffixed with "-dirty" when the worktree has uncommitted changes.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	rev := head.Hash().String()

	wt, err := repo.Worktree()
	if err != nil {
		return rev, nil
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read worktree status: %w", err)
	}
	if !status.IsClean() {
		rev += "-dirty"
	}
	return rev, nil
}
