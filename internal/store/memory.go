package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Compile-time check that Memory satisfies the store contract.
var _ Store = (*Memory)(nil)

type memRevision struct {
	id      string
	message string
	files   map[string][]byte // Full tree as of this revision
}

// Memory is an in-process Store. Each revision keeps a full copy of the tree, which is
// fine for the handful of small documents the society has.
type Memory struct {
	mu       sync.RWMutex
	branches map[string][]memRevision

	// BeforeCommit, if set, runs inside CommitAll before anything is applied.
	// Returning an error aborts the commit, leaving the branch untouched.
	BeforeCommit func(c Commit) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{branches: make(map[string][]memRevision)}
}

// Head implements Store.
func (m *Memory) Head(ctx context.Context, branch string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.branches[branch]
	if len(history) == 0 {
		return "", nil
	}
	return history[len(history)-1].id, nil
}

// Read implements Store.
func (m *Memory) Read(ctx context.Context, branch, revision, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rev, ok := m.find(branch, revision)
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnknownRevision, revision)
	}
	doc := Document{Path: path, Revision: rev.id}
	if content, ok := rev.files[path]; ok {
		doc.Content = append([]byte(nil), content...)
		doc.Found = true
	}
	return doc, nil
}

// CommitAll implements Store.
func (m *Memory) CommitAll(ctx context.Context, c Commit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.branches[c.Branch]
	head := ""
	if len(history) > 0 {
		head = history[len(history)-1].id
	}
	if head != c.Base {
		return "", ErrStaleRevision
	}

	if m.BeforeCommit != nil {
		if err := m.BeforeCommit(c); err != nil {
			return "", err
		}
	}

	files := make(map[string][]byte)
	if len(history) > 0 {
		for p, content := range history[len(history)-1].files {
			files[p] = content
		}
	}
	for _, f := range c.Files {
		files[f.Path] = append([]byte(nil), f.Content...)
	}

	rev := memRevision{id: uuid.NewString(), message: c.Message, files: files}
	m.branches[c.Branch] = append(history, rev)
	return rev.id, nil
}

// Messages returns the commit messages on branch, oldest first.
func (m *Memory) Messages(branch string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.branches[branch]))
	for _, rev := range m.branches[branch] {
		out = append(out, rev.message)
	}
	return out
}

// find resolves revision ("" = head) on branch. An empty branch resolves "" to an
// empty tree so reads before the first commit see every file as missing.
func (m *Memory) find(branch, revision string) (memRevision, bool) {
	history := m.branches[branch]
	if revision == "" {
		if len(history) == 0 {
			return memRevision{}, true
		}
		return history[len(history)-1], true
	}
	for _, rev := range history {
		if rev.id == revision {
			return rev, true
		}
	}
	return memRevision{}, false
}
