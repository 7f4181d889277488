// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package git

import (
	"errors"
	"io"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Mirror is a local copy of one remote repository, bare or working, used to
// answer read-only history queries without repeated network access.
type Mirror struct {
	ref  RepositoryRef
	path string
	bare bool

	repo *git.Repository
}

func (m *Mirror) Ref() RepositoryRef {
	return m.ref
}

func (m *Mirror) Path() string {
	return m.path
}

// OpenPath opens an existing local repository without cloning or refreshing.
func OpenPath(url string, path string, bare bool) (*Mirror, error) {
	ref := NewRepositoryRef(url)

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, commandError("open", ref, err)
	}

	return &Mirror{ref: ref, path: path, bare: bare, repo: repo}, nil
}

type OpenerConfig struct {
	Fs       afero.Fs
	CacheDir string
	Auth     transport.AuthMethod
	Log      *zap.SugaredLogger
}

// Opener creates and refreshes Mirrors. Each repository is refreshed at most
// once per Opener, which scopes the skip decision to a single run instead of
// to a process id that the operating system may reuse.
type Opener struct {
	fs       afero.Fs
	cacheDir string
	auth     transport.AuthMethod
	log      *zap.SugaredLogger

	mu        sync.Mutex
	refreshed map[RepositoryRef]bool
}

func NewOpener(config OpenerConfig) *Opener {
	return &Opener{
		fs:        config.Fs,
		cacheDir:  config.CacheDir,
		auth:      config.Auth,
		log:       config.Log,
		refreshed: map[RepositoryRef]bool{},
	}
}

// Open returns a Mirror for url, cloning it on first use and refreshing it
// otherwise. With a cache directory configured the mirror persists across
// runs; without one it lives in a temporary directory the caller discards.
func (o *Opener) Open(url string, bare bool) (*Mirror, error) {
	ref := NewRepositoryRef(url)

	path, err := o.localPath(ref)
	if err != nil {
		return nil, err
	}

	m := &Mirror{ref: ref, path: path, bare: bare}

	// localPath creates the temporary directory up front, so repository
	// presence, not directory presence, decides between refresh and clone
	repo, err := git.PlainOpen(path)
	switch {
	case err == nil:
		m.repo = repo
		err = o.refresh(m)
	case errors.Is(err, git.ErrRepositoryNotExists):
		err = o.clone(m)
	default:
		return nil, commandError("open", ref, err)
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (o *Opener) localPath(ref RepositoryRef) (string, error) {
	if o.cacheDir == "" {
		return afero.TempDir(o.fs, ".", "tmp-saas-metrics-")
	}

	key, err := ref.CacheKey()
	if err != nil {
		return "", err
	}

	return filepath.Join(o.cacheDir, key), nil
}

func (o *Opener) clone(m *Mirror) error {
	o.log.Infow("cloning", "repo", m.ref)

	repo, err := git.PlainClone(m.path, m.bare, &git.CloneOptions{
		URL:      m.ref.String(),
		Auth:     o.auth,
		Progress: io.Discard,
	})
	if err != nil {
		return commandError("clone", m.ref, err)
	}

	m.repo = repo
	o.markRefreshed(m.ref)
	return nil
}

func (o *Opener) refresh(m *Mirror) error {
	if o.isRefreshed(m.ref) {
		o.log.Infow("refreshing(skipping)", "repo", m.ref)
		return nil
	}

	o.log.Infow("refreshing", "repo", m.ref)

	if m.bare {
		err := m.repo.Fetch(&git.FetchOptions{
			RemoteName: git.DefaultRemoteName,
			RefSpecs:   []gitconfig.RefSpec{"+refs/heads/*:refs/heads/*"},
			Force:      true,
			Auth:       o.auth,
			Progress:   io.Discard,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return commandError("fetch", m.ref, err)
		}
	} else {
		worktree, err := m.repo.Worktree()
		if err != nil {
			return commandError("pull", m.ref, err)
		}

		err = worktree.Pull(&git.PullOptions{
			RemoteName: git.DefaultRemoteName,
			Auth:       o.auth,
			Progress:   io.Discard,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return commandError("pull", m.ref, err)
		}
	}

	o.markRefreshed(m.ref)
	return nil
}

// The pool workers in the upstream resolver open disjoint refs, but they
// share this map.
func (o *Opener) isRefreshed(ref RepositoryRef) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.refreshed[ref]
}

func (o *Opener) markRefreshed(ref RepositoryRef) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.refreshed[ref] = true
}
