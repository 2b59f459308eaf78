package gitutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitOrSkip(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git binary not available")
	}
	return path
}

func initRepo(t *testing.T, gitPath string) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command(gitPath, args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Tester",
			"GIT_AUTHOR_EMAIL=tester@example.com",
			"GIT_COMMITTER_NAME=Tester",
			"GIT_COMMITTER_EMAIL=tester@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	run("init", "-q")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content", "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", "posts", "a.md"), []byte("hello"), 0o644))
	run("add", ".")
	run("-c", "commit.gpgsign=false", "commit", "-q", "-m", "add first post")
	return dir
}

func TestOpen(t *testing.T) {
	gitPath := gitOrSkip(t)
	dir := initRepo(t, gitPath)

	// Opening a nested directory walks up to the repository root.
	repo, err := Open(gitPath, filepath.Join(dir, "content", "posts"), 0)
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Dir)
}

func TestOpenNotRepository(t *testing.T) {
	_, err := Open("git", filepath.Join(string(filepath.Separator), "nonexistent-penna-test"), 0)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestFileLog(t *testing.T) {
	gitPath := gitOrSkip(t)
	dir := initRepo(t, gitPath)

	repo, err := Open(gitPath, dir, 0)
	require.NoError(t, err)

	info, err := repo.FileLog(context.Background(), filepath.Join(dir, "content", "posts", "a.md"))
	require.NoError(t, err)
	assert.Len(t, info.Hash, 40)
	assert.Equal(t, "Tester", info.Author)
	assert.Equal(t, "add first post", info.Message)
	assert.False(t, info.CommittedAt.IsZero())
}

func TestFileLogUncommitted(t *testing.T) {
	gitPath := gitOrSkip(t)
	dir := initRepo(t, gitPath)

	repo, err := Open(gitPath, dir, 0)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.md"), []byte("x"), 0o644))
	_, err = repo.FileLog(context.Background(), filepath.Join(dir, "untracked.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileLogOutsideRepository(t *testing.T) {
	gitPath := gitOrSkip(t)
	dir := initRepo(t, gitPath)

	repo, err := Open(gitPath, dir, 0)
	require.NoError(t, err)

	_, err = repo.FileLog(context.Background(), filepath.Join(t.TempDir(), "x.md"))
	assert.Error(t, err)
}

func TestHeadHash(t *testing.T) {
	gitPath := gitOrSkip(t)
	dir := initRepo(t, gitPath)

	repo, err := Open(gitPath, dir, 0)
	require.NoError(t, err)

	hash, err := repo.HeadHash(context.Background())
	require.NoError(t, err)
	assert.Len(t, hash, 40)
}
