package remote

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParse_LocalPath(t *testing.T) {
	dir := t.TempDir()

	src, err := Parse(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != nil {
		t.Errorf("expected nil for local path, got %+v", src)
	}
}

func TestParse_Remote(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{"shorthand", "vercel/next.js", "https://github.com/vercel/next.js", ""},
		{"shorthand with tag", "expressjs/express@v4.19.2", "https://github.com/expressjs/express", "v4.19.2"},
		{"shorthand with branch", "owner/repo@feature-branch", "https://github.com/owner/repo", "feature-branch"},
		{"github.com without scheme", "github.com/nestjs/nest", "https://github.com/nestjs/nest", ""},
		{"host with ref", "github.com/nestjs/nest@v10.0.0", "https://github.com/nestjs/nest", "v10.0.0"},
		{"https URL", "https://github.com/koajs/koa", "https://github.com/koajs/koa", ""},
		{"gitlab URL", "https://gitlab.com/group/project", "https://gitlab.com/group/project", ""},
		{"ssh URL", "git@github.com:owner/repo.git", "git@github.com:owner/repo.git", ""},
		{"ssh URL with ref", "git@github.com:owner/repo.git@main", "git@github.com:owner/repo.git", "main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{"missing-dir", "a/b/c", "/abs/missing", "./rel/missing"} {
		t.Run(input, func(t *testing.T) {
			src, err := Parse(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src != nil {
				t.Errorf("Parse(%q) = %+v, want nil", input, src)
			}
		})
	}

	if _, err := Parse("github.com/owner"); err == nil {
		t.Error("expected an error for a host path without a repository")
	}
}

// initRepo creates a repository with one commit on main and a v1 tag.
func initRepo(t *testing.T) (string, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	path := filepath.Join(dir, "src", "middleware", "auth.ts")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export function authenticate(req, res, next) { next() }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("src/middleware/auth.ts"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("add auth", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTag("v1", hash, nil); err != nil {
		t.Fatal(err)
	}
	return dir, hash
}

func requireGit(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping clone test in short mode")
	}
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available for local clones")
	}
}

func TestSource_Clone(t *testing.T) {
	requireGit(t)
	origin, hash := initRepo(t)

	tests := []struct {
		name string
		ref  string
	}{
		{"default branch", ""},
		{"tag", "v1"},
		{"commit", hash.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &Source{URL: origin, Ref: tt.ref}
			if err := src.Clone(context.Background(), io.Discard, false); err != nil {
				t.Fatalf("Clone failed: %v", err)
			}
			defer src.Cleanup()

			if _, err := os.Stat(filepath.Join(src.CloneDir, "src", "middleware", "auth.ts")); err != nil {
				t.Errorf("cloned file missing: %v", err)
			}

			repo, err := git.PlainOpen(src.CloneDir)
			if err != nil {
				t.Fatalf("open clone: %v", err)
			}
			head, err := repo.Head()
			if err != nil {
				t.Fatalf("HEAD: %v", err)
			}
			if head.Hash() != hash {
				t.Errorf("HEAD = %s, want %s", head.Hash(), hash)
			}
		})
	}
}

func TestSource_Clone_MissingRef(t *testing.T) {
	requireGit(t)
	origin, _ := initRepo(t)

	src := &Source{URL: origin, Ref: "no-such-branch"}
	if err := src.Clone(context.Background(), io.Discard, false); err == nil {
		src.Cleanup()
		t.Fatal("expected an error for a missing ref")
	}
	if _, err := os.Stat(src.CloneDir); !os.IsNotExist(err) {
		t.Error("failed clone should remove its directory")
	}
}

func TestResolve_LocalPaths(t *testing.T) {
	dir := t.TempDir()
	paths, cleanup, err := Resolve(context.Background(), []string{dir, "."}, io.Discard)
	defer cleanup()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(paths) != 2 || paths[0] != dir || paths[1] != "." {
		t.Errorf("Resolve() = %v", paths)
	}
}
