// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

import (
	"sync"

	"github.com/app-sre/saas-metrics/git"
)

// Mirrors establishes local mirrors of remote repositories. Implemented by
// git.Opener.
type Mirrors interface {
	Open(url string, bare bool) (*git.Mirror, error)
}

// Resolver establishes one bare mirror per distinct upstream repository
// referenced by a snapshot.
type Resolver struct {
	opener Mirrors
	self   *git.Mirror
}

func NewResolver(opener Mirrors, self *git.Mirror) *Resolver {
	return &Resolver{opener: opener, self: self}
}

// Resolve opens a bare mirror for every upstream URL in snapshot that is not
// the deployment repository itself, which maps to the already open
// deployment mirror. poolSize bounds the number of concurrent workers; 0
// processes the URLs one at a time in the calling goroutine.
func (r *Resolver) Resolve(snapshot Snapshot, poolSize int) (map[git.RepositoryRef]*git.Mirror, error) {
	distinct := map[git.RepositoryRef]bool{}
	for _, service := range snapshot {
		ref := git.NewRepositoryRef(service.URL)
		if ref != r.self.Ref() {
			distinct[ref] = true
		}
	}

	refs := make([]git.RepositoryRef, 0, len(distinct))
	for ref := range distinct {
		refs = append(refs, ref)
	}

	mirrors := map[git.RepositoryRef]*git.Mirror{
		r.self.Ref(): r.self,
	}

	if poolSize > 0 {
		opened, err := r.openPooled(refs, poolSize)
		if err != nil {
			return nil, err
		}

		for ref, mirror := range opened {
			mirrors[ref] = mirror
		}

		return mirrors, nil
	}

	// Sequential fallback. Some environments misbehave under concurrent
	// mirror operations.
	for _, ref := range refs {
		mirror, err := r.opener.Open(ref.String(), true)
		if err != nil {
			return nil, err
		}

		mirrors[ref] = mirror
	}

	return mirrors, nil
}

type openResult struct {
	ref    git.RepositoryRef
	mirror *git.Mirror
	err    error
}

func (r *Resolver) openPooled(refs []git.RepositoryRef, poolSize int) (map[git.RepositoryRef]*git.Mirror, error) {
	queue := make(chan git.RepositoryRef, len(refs))
	results := make(chan openResult, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for ref := range queue {
				mirror, err := r.opener.Open(ref.String(), true)
				results <- openResult{ref: ref, mirror: mirror, err: err}
			}
		}()
	}

	for _, ref := range refs {
		queue <- ref
	}
	close(queue)

	wg.Wait()
	close(results)

	mirrors := make(map[git.RepositoryRef]*git.Mirror, len(refs))
	for result := range results {
		if result.err != nil {
			return nil, result.err
		}

		mirrors[result.ref] = result.mirror
	}

	return mirrors, nil
}
