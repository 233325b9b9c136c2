package testhelpers

import (
	"fmt"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// MemoryRepo builds an in-memory repository history for testing.
// Commits share one empty tree; only their graph, dates and messages matter.
type MemoryRepo struct {
	Repo *gogit.Repository
	t    testing.TB
	tree plumbing.Hash
	seq  int
}

// NewMemoryRepo creates an empty in-memory repository whose HEAD points at
// defaultBranch
func NewMemoryRepo(t testing.TB, defaultBranch string) *MemoryRepo {
	t.Helper()

	repo, err := gogit.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(defaultBranch))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("Failed to set HEAD: %v", err)
	}

	m := &MemoryRepo{Repo: repo, t: t}
	obj := repo.Storer.NewEncodedObject()
	if err := (&object.Tree{}).Encode(obj); err != nil {
		t.Fatalf("Failed to encode tree: %v", err)
	}
	if m.tree, err = repo.Storer.SetEncodedObject(obj); err != nil {
		t.Fatalf("Failed to store tree: %v", err)
	}
	return m
}

func signature(when time.Time) object.Signature {
	return object.Signature{Name: "Test User", Email: "test@example.com", When: when}
}

// Head returns the tip of a branch, or the zero hash if it does not exist
func (m *MemoryRepo) Head(branch string) plumbing.Hash {
	ref, err := m.Repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}

func (m *MemoryRepo) store(message string, when time.Time, parents ...plumbing.Hash) plumbing.Hash {
	m.t.Helper()

	c := &object.Commit{
		Author:       signature(when),
		Committer:    signature(when),
		Message:      message,
		TreeHash:     m.tree,
		ParentHashes: parents,
	}
	obj := m.Repo.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		m.t.Fatalf("Failed to encode commit: %v", err)
	}
	h, err := m.Repo.Storer.SetEncodedObject(obj)
	if err != nil {
		m.t.Fatalf("Failed to store commit: %v", err)
	}
	return h
}

// SetBranch points a branch at hash
func (m *MemoryRepo) SetBranch(branch string, hash plumbing.Hash) {
	m.t.Helper()
	if err := m.Repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)); err != nil {
		m.t.Fatalf("Failed to set branch %s: %v", branch, err)
	}
}

// SetRemoteBranch points origin/<branch> at hash
func (m *MemoryRepo) SetRemoteBranch(branch string, hash plumbing.Hash) {
	m.t.Helper()
	if err := m.Repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", branch), hash)); err != nil {
		m.t.Fatalf("Failed to set remote branch %s: %v", branch, err)
	}
}

// Commit adds a commit on top of branch and advances it
func (m *MemoryRepo) Commit(branch, message string, when time.Time) plumbing.Hash {
	m.t.Helper()
	var parents []plumbing.Hash
	if h := m.Head(branch); !h.IsZero() {
		parents = append(parents, h)
	}
	h := m.store(message, when, parents...)
	m.SetBranch(branch, h)
	return h
}

// MergePR adds a side commit and a GitHub style merge commit of it on branch
func (m *MemoryRepo) MergePR(branch string, number int, head, title string, when time.Time) plumbing.Hash {
	m.t.Helper()

	base := m.Head(branch)
	if base.IsZero() {
		base = m.Commit(branch, "Initial commit", when.Add(-2*time.Hour))
	}
	m.seq++
	side := m.store(fmt.Sprintf("Work %d", m.seq), when.Add(-time.Hour), base)
	msg := fmt.Sprintf("Merge pull request #%d from lsst/%s\n\n%s\n", number, head, title)
	h := m.store(msg, when, base, side)
	m.SetBranch(branch, h)
	return h
}

// Tag tags hash; the tag is annotated when taggedAt is set
func (m *MemoryRepo) Tag(name string, hash plumbing.Hash, taggedAt *time.Time) {
	m.t.Helper()

	var opts *gogit.CreateTagOptions
	if taggedAt != nil {
		sig := signature(*taggedAt)
		opts = &gogit.CreateTagOptions{Tagger: &sig, Message: "Release " + name}
	}
	if _, err := m.Repo.CreateTag(name, hash, opts); err != nil {
		m.t.Fatalf("Failed to create tag %s: %v", name, err)
	}
}
