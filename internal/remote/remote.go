// Package remote lets the CLI analyze a git repository by URL or GitHub
// shorthand by cloning it to a temporary directory first.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source is a remote repository to analyze.
type Source struct {
	URL      string // clone URL
	Ref      string // branch, tag or commit; empty means the default branch
	CloneDir string // set by Clone
}

var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Parse reports whether path names a remote repository. Paths that exist
// locally always win and return nil. A trailing @ref selects a branch, tag
// or commit.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	// SSH URLs carry an @ before the host, so only a later @ is a ref.
	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 && !isSSHUserOnly(path, idx) {
		ref = path[idx+1:]
		path = path[:idx]
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"):
		return &Source{URL: path, Ref: ref}, nil
	case strings.HasPrefix(path, "git@"), strings.HasPrefix(path, "ssh://"):
		return &Source{URL: path, Ref: ref}, nil
	case strings.HasPrefix(path, "github.com/"), strings.HasPrefix(path, "gitlab.com/"), strings.HasPrefix(path, "bitbucket.org/"):
		if strings.Count(path, "/") < 2 {
			return nil, fmt.Errorf("incomplete repository path %q", path)
		}
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// isSSHUserOnly reports whether the @ at idx is the user separator of an
// scp-style URL such as git@github.com:owner/repo.git.
func isSSHUserOnly(path string, idx int) bool {
	return strings.HasPrefix(path, "git@") && idx == len("git")
}

// isGitHubShorthand matches owner/repo.
func isGitHubShorthand(path string) bool {
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash is a host, not an owner.
	return !strings.Contains(path[:slash], ".")
}

// Clone clones the repository into a new temporary directory and checks
// out Ref. Progress messages go to progress. A shallow clone fetches only
// the tip of the requested branch or tag; commit refs always need full
// history.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "chainlint-clone-*")
	if err != nil {
		return fmt.Errorf("create clone directory: %w", err)
	}
	s.CloneDir = dir

	if err := s.clone(ctx, progress, shallow); err != nil {
		s.Cleanup()
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}
	return nil
}

func (s *Source) clone(ctx context.Context, progress io.Writer, shallow bool) error {
	opts := &git.CloneOptions{URL: s.URL, Progress: progress}
	if shallow {
		opts.Depth = 1
	}

	if s.Ref == "" {
		_, err := git.PlainCloneContext(ctx, s.CloneDir, false, opts)
		return err
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(s.Ref),
		plumbing.NewTagReferenceName(s.Ref),
	} {
		try := *opts
		try.ReferenceName = name
		try.SingleBranch = true
		_, err := git.PlainCloneContext(ctx, s.CloneDir, false, &try)
		if err == nil {
			return nil
		}
		if !isMissingRef(err) {
			return err
		}
		if err := resetDir(s.CloneDir); err != nil {
			return err
		}
	}

	if !shaPattern.MatchString(s.Ref) {
		return fmt.Errorf("ref %q not found", s.Ref)
	}

	full := *opts
	full.Depth = 0
	repo, err := git.PlainCloneContext(ctx, s.CloneDir, false, &full)
	if err != nil {
		return err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(s.Ref))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.Ref, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

func isMissingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

// resetDir empties dir so another clone can use it.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		os.RemoveAll(s.CloneDir)
	}
}

// Resolve replaces every remote reference in paths with the directory it
// was cloned to. The returned cleanup removes all clones and is safe to
// call when Resolve fails.
func Resolve(ctx context.Context, paths []string, progress io.Writer) ([]string, func(), error) {
	var clones []*Source
	cleanup := func() {
		for _, src := range clones {
			src.Cleanup()
		}
	}

	out := make([]string, len(paths))
	for i, path := range paths {
		src, err := Parse(path)
		if err != nil {
			return nil, cleanup, err
		}
		if src == nil {
			out[i] = path
			continue
		}
		if err := src.Clone(ctx, progress, true); err != nil {
			return nil, cleanup, err
		}
		clones = append(clones, src)
		out[i] = src.CloneDir
	}
	return out, cleanup, nil
}
