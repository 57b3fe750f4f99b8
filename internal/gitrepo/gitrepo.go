// Package gitrepo locates the enclosing git repository and reads its
// configured remote, grounded on the teacher's internal/mcp/git_helper.go
// (getRepoRoot's walk-up-to-.git pattern), rebuilt on go-git's own
// DetectDotGit option instead of a manual directory walk.
package gitrepo

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Root finds the repository root enclosing startPath by walking upward
// until a .git directory is found.
func Root(startPath string) (string, error) {
	repo, err := git.PlainOpenWithOptions(startPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not a git repository (or any parent up to root): %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolve worktree root: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// RemoteURL returns the first configured URL for the named remote (typically
// "origin"), used by internal/platform.DetectPlatform to pick an adapter.
func RemoteURL(repoRoot, remoteName string) (string, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return "", fmt.Errorf("open repository at %q: %w", repoRoot, err)
	}
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return "", fmt.Errorf("no remote %q configured: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no configured URL", remoteName)
	}
	return urls[0], nil
}

// OwnerRepo splits an "owner/repo" pair out of a git remote URL, handling
// both SSH (git@host:owner/repo.git) and HTTPS (https://host/owner/repo.git)
// forms.
func OwnerRepo(remoteURL string) (owner, repo string, err error) {
	trimmed := remoteURL
	for _, prefix := range []string{"git@", "https://", "http://", "ssh://git@"} {
		if len(trimmed) > len(prefix) && trimmed[:len(prefix)] == prefix {
			trimmed = trimmed[len(prefix):]
			break
		}
	}
	if i := indexByte(trimmed, ':'); i >= 0 && indexByte(trimmed, '/') > i {
		trimmed = trimmed[i+1:]
	} else if i := indexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	trimmed = trimSuffix(trimmed, ".git")

	slash := indexByte(trimmed, '/')
	if slash < 0 {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote URL %q", remoteURL)
	}
	return trimmed[:slash], trimmed[slash+1:], nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSuffix(s, suffix string) string {
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}
