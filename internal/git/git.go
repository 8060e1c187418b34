// Package git detects the repository a directory belongs to, so a team can
// default its local directory to the repository root.
package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repository describes the git checkout containing a directory.
type Repository struct {
	// Root is the top level of the checkout containing the directory.
	Root string
	// PrimaryRoot is the main worktree; it equals Root outside linked worktrees.
	PrimaryRoot string
	Branch      string
	IsWorktree  bool
}

// Detect returns the repository containing dir, or nil when dir is not
// inside one. An empty dir means the current working directory.
func Detect(dir string) (*Repository, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	root, err := runGitCommand(dir, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		//nolint:nilerr // not a repository is a normal outcome
		return nil, nil
	}

	branch, err := runGitCommand(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// Fresh repositories have no HEAD commit yet.
		branch = ""
	}

	repo := &Repository{Root: root, PrimaryRoot: root, Branch: branch}

	commonDir, err := runGitCommand(dir, "rev-parse", "--git-common-dir")
	if err == nil && commonDir != "" {
		if !filepath.IsAbs(commonDir) {
			commonDir = filepath.Join(dir, commonDir)
		}
		repo.PrimaryRoot = filepath.Dir(filepath.Clean(commonDir))
	}

	gitDir, err := runGitCommand(dir, "rev-parse", "--git-dir")
	if err == nil {
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(dir, gitDir)
		}
		// Linked worktrees keep their objects in the common dir.
		_, statErr := os.Stat(filepath.Join(gitDir, "objects"))
		repo.IsWorktree = os.IsNotExist(statErr)
	}

	return repo, nil
}

// DefaultLocalDirectory returns the primary repository root for dir, or ""
// when dir is not inside a repository.
func DefaultLocalDirectory(dir string) string {
	repo, err := Detect(dir)
	if err != nil || repo == nil {
		return ""
	}
	return repo.PrimaryRoot
}

func runGitCommand(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stderr = nil

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}
