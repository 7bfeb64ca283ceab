// Package store defines the versioned key-value store the society's JSON documents live in.
//
// The store behaves like a git branch: every write is a commit that replaces one or more
// files at once and produces a new revision. Readers address a file by (branch, revision,
// path). CommitAll is all-or-nothing and conditional on the revision the writer read from,
// so two writers racing on the same branch cannot silently overwrite each other.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissing is returned by ReadCollection under RequirePresent when the path doesn't exist.
	ErrMissing = errors.New("store: file not found")
	// ErrStaleRevision means the branch head moved after the writer's base revision was read.
	ErrStaleRevision = errors.New("store: branch head moved since base revision")
	// ErrUnknownRevision means a revision ID doesn't exist on the branch.
	ErrUnknownRevision = errors.New("store: unknown revision")
)

// File is one path and its full new content in a commit.
type File struct {
	Path    string
	Content []byte
}

// Commit is an atomic multi-file write.
// Base is the revision the files were computed from; "" means "the branch must be empty".
type Commit struct {
	Branch  string
	Message string
	Base    string
	Files   []File
}

// Document is the result of reading one path. Found is false when the path has never
// been written on the branch at or before the requested revision.
type Document struct {
	Path     string
	Content  []byte
	Found    bool
	Revision string
}

// Store is the versioned store contract.
type Store interface {
	// Head returns the latest revision on branch, or "" when the branch has no commits.
	Head(ctx context.Context, branch string) (string, error)
	// Read returns path as of revision. An empty revision means the current head.
	Read(ctx context.Context, branch, revision, path string) (Document, error)
	// CommitAll applies every file in c as one new revision and returns its ID.
	// It fails with ErrStaleRevision if the branch head is no longer c.Base.
	CommitAll(ctx context.Context, c Commit) (string, error)
}

// MissingPolicy decides what ReadCollection does with a path that doesn't exist.
type MissingPolicy int

const (
	// DefaultEmpty treats a missing file as an empty collection.
	DefaultEmpty MissingPolicy = iota
	// RequirePresent treats a missing file as ErrMissing.
	RequirePresent
)

// ReadCollection reads a JSON array document into a slice.
// found reports whether the file existed, so callers can tell "empty" from "absent"
// even under DefaultEmpty. A missing file under DefaultEmpty yields a non-nil empty slice.
func ReadCollection[T any](ctx context.Context, s Store, branch, revision, path string, policy MissingPolicy) (items []T, found bool, err error) {
	doc, err := s.Read(ctx, branch, revision, path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	if !doc.Found {
		if policy == RequirePresent {
			return nil, false, fmt.Errorf("read %s: %w", path, ErrMissing)
		}
		return []T{}, false, nil
	}

	items = []T{}
	if err := json.Unmarshal(doc.Content, &items); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", path, err)
	}
	if items == nil {
		// The file literally contained null.
		items = []T{}
	}
	return items, true, nil
}

// EncodeFile renders v as an indented JSON file, the format the documents are kept in.
func EncodeFile(path string, v any) (File, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("encode %s: %w", path, err)
	}
	return File{Path: path, Content: content}, nil
}
