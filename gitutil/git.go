package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNotRepository indicates the working copy is not inside a git checkout.
var ErrNotRepository = errors.New("not a git repository")

// Repository reads commit metadata from the blog's working copy. It is used
// for last-modified stamping and never mutates the checkout.
type Repository struct {
	Dir            string
	GitPath        string
	CommandTimeout time.Duration
	mu             sync.Mutex
}

// FileInfo is the most recent commit touching a file.
type FileInfo struct {
	Hash        string
	Author      string
	Email       string
	Message     string
	CommittedAt time.Time
}

// Open locates the repository containing dir by walking toward the root.
func Open(gitPath, dir string, timeout time.Duration) (*Repository, error) {
	if gitPath == "" {
		gitPath = "git"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for probe := abs; ; probe = filepath.Dir(probe) {
		if _, err := os.Stat(filepath.Join(probe, ".git")); err == nil {
			return &Repository{Dir: probe, GitPath: gitPath, CommandTimeout: timeout}, nil
		}
		if probe == filepath.Dir(probe) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
	}
}

// FileLog returns the newest commit touching path, relative to the repository
// root or absolute. A file never committed yields os.ErrNotExist.
func (r *Repository) FileLog(ctx context.Context, path string) (FileInfo, error) {
	ctx, cancel := r.ensureContext(ctx)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	rel, err := r.relPath(path)
	if err != nil {
		return FileInfo{}, err
	}

	cmd := r.command(ctx, "log", "-n1", "--date=unix", "--pretty=%H%x00%an%x00%ae%x00%at%x00%s", "--", rel)
	out, err := cmd.Output()
	if err != nil {
		return FileInfo{}, fmt.Errorf("git log: %w", err)
	}

	line := bytes.TrimSpace(out)
	if len(line) == 0 {
		return FileInfo{}, fmt.Errorf("%s: %w", rel, os.ErrNotExist)
	}
	parts := bytes.Split(line, []byte{0})
	if len(parts) != 5 {
		return FileInfo{}, fmt.Errorf("git log: unexpected output %q", line)
	}
	seconds, err := strconv.ParseInt(string(parts[3]), 10, 64)
	if err != nil {
		return FileInfo{}, fmt.Errorf("git log: parse time: %w", err)
	}
	return FileInfo{
		Hash:        string(parts[0]),
		Author:      string(parts[1]),
		Email:       string(parts[2]),
		CommittedAt: time.Unix(seconds, 0).UTC(),
		Message:     string(parts[4]),
	}, nil
}

// HeadHash reports the current HEAD commit, or "" in an empty repository.
func (r *Repository) HeadHash(ctx context.Context) (string, error) {
	ctx, cancel := r.ensureContext(ctx)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := r.command(ctx, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Repository) relPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	rel, err := filepath.Rel(r.Dir, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s outside repository %s", path, r.Dir)
	}
	return filepath.ToSlash(rel), nil
}

func (r *Repository) command(ctx context.Context, args ...string) *exec.Cmd {
	baseArgs := []string{
		"-c", "credential.helper=", // Disable credential helper to prevent daemon spawning
	}
	fullArgs := append(baseArgs, args...)

	cmd := exec.CommandContext(ctx, r.GitPath, fullArgs...)
	cmd.Dir = r.Dir
	return cmd
}

func (r *Repository) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx != nil {
		if _, ok := ctx.Deadline(); ok {
			return ctx, func() {}
		}
		return context.WithTimeout(ctx, r.CommandTimeout)
	}
	return context.WithTimeout(context.Background(), r.CommandTimeout)
}
