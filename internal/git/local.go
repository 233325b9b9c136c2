package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"changelog.dev/changelog/internal/snapshot"
)

var (
	mergeMessageRe  = regexp.MustCompile(`^Merge pull request #(\d+) from ([^/\s]+)/(\S+)`)
	releaseBranchRe = regexp.MustCompile(`^v?\d+\.\d+\.x$`)
)

// OpenFunc opens the repository of owner/repo
type OpenFunc func(owner, repo string) (*gogit.Repository, error)

// LocalSource reads history from local clones
type LocalSource struct {
	open OpenFunc
}

// NewLocalSource reads clones laid out as <root>/<repo>
func NewLocalSource(root string) *LocalSource {
	return &LocalSource{open: func(_, repo string) (*gogit.Repository, error) {
		return gogit.PlainOpen(filepath.Join(root, repo))
	}}
}

// NewLocalSourceWith reads repositories returned by open
func NewLocalSourceWith(open OpenFunc) *LocalSource {
	return &LocalSource{open: open}
}

func (s *LocalSource) repo(owner, repo string) (*gogit.Repository, error) {
	r, err := s.open(owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", owner, repo, err)
	}
	return r, nil
}

// DefaultBranch returns the branch HEAD points at
func (s *LocalSource) DefaultBranch(_ context.Context, owner, repo string) (string, error) {
	r, err := s.repo(owner, repo)
	if err != nil {
		return "", err
	}
	return defaultBranch(r)
}

func defaultBranch(r *gogit.Repository) (string, error) {
	head, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return "", errors.New("HEAD is detached")
}

// Tags lists tags accepted by keep with their commit and tagger dates
func (s *LocalSource) Tags(ctx context.Context, owner, repo string, keep func(string) bool) ([]snapshot.TagRef, error) {
	r, err := s.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	iter, err := r.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var out []snapshot.TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := ref.Name().Short()
		if keep != nil && !keep(name) {
			return nil
		}
		out = append(out, resolveTag(r, name, ref.Hash()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func resolveTag(r *gogit.Repository, name string, hash plumbing.Hash) snapshot.TagRef {
	tr := snapshot.TagRef{Name: name}

	var commit *object.Commit
	if annotated, err := r.TagObject(hash); err == nil {
		tagged := annotated.Tagger.When.UTC()
		tr.TaggedAt = &tagged
		commit, err = annotated.Commit()
		if err != nil {
			return tr
		}
	} else {
		commit, err = r.CommitObject(hash)
		if err != nil {
			return tr
		}
	}

	tr.CommitID = commit.Hash.String()
	tr.CommittedAt = commit.Committer.When.UTC()
	return tr
}

// MergedPulls finds GitHub merge commits on the first-parent history of the
// default branch and every release branch
func (s *LocalSource) MergedPulls(ctx context.Context, owner, repo string) ([]snapshot.PullRequest, error) {
	r, err := s.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	branches, err := historyBranches(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[plumbing.Hash]bool)
	var out []snapshot.PullRequest
	for _, b := range branches {
		c, err := r.CommitObject(b.hash)
		if err != nil {
			continue
		}
		for c != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if c.NumParents() > 1 && !seen[c.Hash] {
				seen[c.Hash] = true
				if pr, ok := pullFromMerge(c, owner, repo, b.name); ok {
					out = append(out, pr)
				}
			}
			if c.NumParents() == 0 {
				break
			}
			if c, err = c.Parent(0); err != nil {
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MergedAt.Before(out[j].MergedAt) })
	return out, nil
}

// Commits lists every commit reachable from the default and release branches
func (s *LocalSource) Commits(ctx context.Context, owner, repo string) ([]string, error) {
	r, err := s.repo(owner, repo)
	if err != nil {
		return nil, err
	}
	branches, err := historyBranches(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[plumbing.Hash]bool)
	out := []string{}
	for _, b := range branches {
		c, err := r.CommitObject(b.hash)
		if err != nil {
			continue
		}
		err = object.NewCommitPreorderIter(c, seen, nil).ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seen[c.Hash] = true
			out = append(out, c.Hash.String())
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

type branchHead struct {
	name string
	hash plumbing.Hash
}

// historyBranches returns the default branch followed by the release
// branches, local or tracked from origin
func historyBranches(r *gogit.Repository) ([]branchHead, error) {
	def, err := defaultBranch(r)
	if err != nil {
		return nil, err
	}

	heads := make(map[string]plumbing.Hash)
	refs, err := r.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		var name string
		switch {
		case ref.Name().IsBranch():
			name = ref.Name().Short()
		case ref.Name().IsRemote() && strings.HasPrefix(ref.Name().Short(), "origin/"):
			name = strings.TrimPrefix(ref.Name().Short(), "origin/")
		default:
			return nil
		}
		if name != def && !releaseBranchRe.MatchString(name) {
			return nil
		}
		// a local branch wins over its remote tracking branch
		if _, ok := heads[name]; !ok || ref.Name().IsBranch() {
			heads[name] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := []branchHead{}
	if h, ok := heads[def]; ok {
		out = append(out, branchHead{name: def, hash: h})
	}
	var names []string
	for name := range heads {
		if name != def {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, branchHead{name: name, hash: heads[name]})
	}
	return out, nil
}

// pullFromMerge reads a GitHub merge commit message:
//
//	Merge pull request #12 from lsst/tickets/DM-123
//
//	Fix the thing
func pullFromMerge(c *object.Commit, owner, repo, branch string) (snapshot.PullRequest, bool) {
	lines := strings.Split(strings.TrimSpace(c.Message), "\n")
	m := mergeMessageRe.FindStringSubmatch(lines[0])
	if m == nil {
		return snapshot.PullRequest{}, false
	}

	title := ""
	for _, l := range lines[1:] {
		if l = strings.TrimSpace(l); l != "" {
			title = l
			break
		}
	}

	when := c.Committer.When.UTC()
	return snapshot.PullRequest{
		BaseBranch:       branch,
		HeadRef:          m[3],
		Title:            title,
		URL:              fmt.Sprintf("https://github.com/%s/%s/pull/%s", owner, repo, m[1]),
		MergedAt:         when,
		MergeCommitID:    c.Hash.String(),
		MergeCommittedAt: when,
	}, true
}
