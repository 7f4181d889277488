// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package git

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Head is the revision of the mirror's current tip.
const Head = "HEAD"

// FileAt returns the contents of path as of rev.
func (m *Mirror) FileAt(rev string, path string) ([]byte, error) {
	commit, err := m.commit(rev)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, commandError("show", m.ref, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, commandError("show", m.ref, err)
	}

	return []byte(contents), nil
}

// LsDir lists the immediate entries of a directory as of rev. A directory
// absent at rev yields no entries and no error.
func (m *Mirror) LsDir(rev string, path string) ([]string, error) {
	commit, err := m.commit(rev)
	if err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, commandError("ls-tree", m.ref, err)
	}

	dir, err := tree.Tree(strings.TrimSuffix(path, "/"))
	if errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, commandError("ls-tree", m.ref, err)
	}

	entries := make([]string, 0, len(dir.Entries))
	for _, entry := range dir.Entries {
		entries = append(entries, entry.Name)
	}

	return entries, nil
}

// Resolve resolves a revision (hash, branch, tag, HEAD~n) to its commit id.
func (m *Mirror) Resolve(rev string) (string, error) {
	commit, err := m.commit(rev)
	if err != nil {
		return "", err
	}

	return commit.Hash.String(), nil
}

// CommitTS returns the author timestamp of rev in epoch seconds.
func (m *Mirror) CommitTS(rev string) (int64, error) {
	commit, err := m.commit(rev)
	if err != nil {
		return 0, err
	}

	return commit.Author.When.Unix(), nil
}

// FirstParent returns the commit id of rev's first parent, or ok=false when
// rev has no parents.
func (m *Mirror) FirstParent(rev string) (parent string, ok bool, err error) {
	commit, err := m.commit(rev)
	if err != nil {
		return "", false, err
	}

	if commit.NumParents() == 0 {
		return "", false, nil
	}

	first, err := commit.Parent(0)
	if err != nil {
		return "", false, commandError("rev-list", m.ref, err)
	}

	return first.Hash.String(), true, nil
}

// RootCommit returns the root of HEAD's first-parent chain. For repositories
// with more than one root commit this is the root reached by following first
// parents only.
func (m *Mirror) RootCommit() (string, error) {
	commit, err := m.commit(Head)
	if err != nil {
		return "", err
	}

	for commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return "", commandError("rev-list", m.ref, err)
		}
		commit = parent
	}

	return commit.Hash.String(), nil
}

// CountBetween counts the commits strictly after root up to and including
// rev, following first parents.
func (m *Mirror) CountBetween(root string, rev string) (int, error) {
	commit, err := m.commit(rev)
	if err != nil {
		return 0, err
	}

	count := 0
	for commit.Hash.String() != root && commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return 0, commandError("rev-list", m.ref, err)
		}

		commit = parent
		count++
	}

	return count, nil
}

// Count returns the number of commits between the repository's root and rev.
// A revision that does not resolve is probably a sentinel value like "none"
// or "ignore"; those count up to HEAD instead.
func (m *Mirror) Count(rev string) (int, error) {
	if _, err := m.Resolve(rev); err != nil {
		rev = Head
	}

	root, err := m.RootCommit()
	if err != nil {
		return 0, err
	}

	return m.CountBetween(root, rev)
}

func (m *Mirror) commit(rev string) (*object.Commit, error) {
	// the history walk queries ancestors by full hash; skip the revision
	// machinery for those
	if isHash(rev) {
		commit, err := m.repo.CommitObject(plumbing.NewHash(rev))
		if err != nil {
			return nil, commandError("rev-parse", m.ref, err)
		}

		return commit, nil
	}

	hash, err := m.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, commandError("rev-parse", m.ref, err)
	}

	commit, err := m.repo.CommitObject(*hash)
	if err != nil {
		return nil, commandError("rev-parse", m.ref, err)
	}

	return commit, nil
}

func isHash(rev string) bool {
	if len(rev) != 40 {
		return false
	}

	for _, r := range rev {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}

	return true
}
