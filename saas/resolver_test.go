// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/app-sre/saas-metrics/git"
	"github.com/app-sre/saas-metrics/saas"
	"github.com/app-sre/saas-metrics/saas/mocks"
)

const selfURL = "https://github.com/org/deploy"

// the resolver only needs a mirror with a canonical ref; one empty commit is
// enough
func selfMirror(t *testing.T) *git.Mirror {
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	tree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("contexts: []"), 0o644))
	_, err = tree.Add("config.yaml")
	require.NoError(t, err)

	_, err = tree.Commit("init", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	mirror, err := git.OpenPath(selfURL, dir, false)
	require.NoError(t, err)

	return mirror
}

func snapshotWith(urls ...string) saas.Snapshot {
	snapshot := saas.Snapshot{}
	for i, url := range urls {
		name := fmt.Sprintf("svc-%d", i)
		snapshot[saas.Key{Context: "production", Name: name}] = saas.Service{
			Name: name,
			URL:  url,
		}
	}

	return snapshot
}

func TestResolveSequential(t *testing.T) {
	self := selfMirror(t)
	opener := &mocks.MockMirrors{}

	// two distinct upstreams, one referenced twice with a non-canonical
	// url, plus a self reference
	snapshot := snapshotWith(
		"https://github.com/org/api",
		"https://github.com/org/web",
		"https://github.com/org/web.git",
		selfURL,
	)

	mirrors, err := saas.NewResolver(opener, self).Resolve(snapshot, 0)
	assert.NoError(t, err)

	assert.ElementsMatch(t, []git.RepositoryRef{
		"https://github.com/org/api.git",
		"https://github.com/org/web.git",
	}, opener.Opened())

	assert.Len(t, mirrors, 3)
	assert.Same(t, self, mirrors[git.NewRepositoryRef(selfURL)])

	for _, bare := range opener.Bare() {
		assert.True(t, bare)
	}
}

func TestResolvePooled(t *testing.T) {
	self := selfMirror(t)
	opener := &mocks.MockMirrors{}

	snapshot := snapshotWith(
		"https://github.com/org/api",
		"https://github.com/org/web",
		"https://github.com/org/worker",
		selfURL,
	)

	mirrors, err := saas.NewResolver(opener, self).Resolve(snapshot, 2)
	assert.NoError(t, err)

	assert.ElementsMatch(t, []git.RepositoryRef{
		"https://github.com/org/api.git",
		"https://github.com/org/web.git",
		"https://github.com/org/worker.git",
	}, opener.Opened())

	assert.Len(t, mirrors, 4)
	assert.Same(t, self, mirrors[git.NewRepositoryRef(selfURL)])
}

func TestResolveSelfOnly(t *testing.T) {
	self := selfMirror(t)
	opener := &mocks.MockMirrors{}

	mirrors, err := saas.NewResolver(opener, self).Resolve(snapshotWith(selfURL), 0)
	assert.NoError(t, err)

	assert.Empty(t, opener.Opened())
	assert.Len(t, mirrors, 1)
}

func TestResolveError(t *testing.T) {
	self := selfMirror(t)
	errWrong := fmt.Errorf("something went wrong")

	for _, poolSize := range []int{0, 2} {
		t.Run(fmt.Sprintf("pool size %d", poolSize), func(t *testing.T) {
			opener := &mocks.MockMirrors{Err_: errWrong}

			_, err := saas.NewResolver(opener, self).Resolve(snapshotWith("https://github.com/org/api"), poolSize)
			assert.Equal(t, errWrong, err)
		})
	}
}
