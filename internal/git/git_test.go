package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	steps := [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
	}
	for _, args := range steps {
		runOrSkip(t, dir, args...)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# docs"), 0o600))
	runOrSkip(t, dir, "add", "README.md")
	runOrSkip(t, dir, "commit", "-m", "Initial commit")
	return dir
}

func runOrSkip(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		t.Skipf("Skipping test: git %v failed: %v", args, err)
	}
}

func assertSameDir(t *testing.T, want, got string) {
	t.Helper()
	rw, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	rg, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, rw, rg)
}

func TestDetectOutsideRepository(t *testing.T) {
	repo, err := Detect(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, repo)
	assert.Empty(t, DefaultLocalDirectory(t.TempDir()))
}

func TestDetectFromSubdirectory(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "notes", "drafts")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	repo, err := Detect(sub)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assertSameDir(t, dir, repo.Root)
	assert.False(t, repo.IsWorktree, "primary checkout reported as worktree")
	assert.NotEmpty(t, repo.Branch)
	assertSameDir(t, dir, DefaultLocalDirectory(sub))
}

func TestDetectLinkedWorktree(t *testing.T) {
	dir := initRepo(t)
	worktree := filepath.Join(t.TempDir(), "wt")
	runOrSkip(t, dir, "worktree", "add", worktree, "-b", "review")

	repo, err := Detect(worktree)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.True(t, repo.IsWorktree)
	assert.Equal(t, "review", repo.Branch)
	assertSameDir(t, dir, repo.PrimaryRoot)
}
