// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mocks

import (
	"sync"

	"github.com/app-sre/saas-metrics/git"
	"github.com/app-sre/saas-metrics/saas"
)

var _ saas.Mirrors = &MockMirrors{}

// MockMirrors is a saas.Mirrors that returns canned mirrors and records the
// repositories it was asked to open. Safe for concurrent use.
type MockMirrors struct {
	Err_     error
	Mirrors_ map[git.RepositoryRef]*git.Mirror

	mu     sync.Mutex
	opened []git.RepositoryRef
	bare   []bool
}

func (m *MockMirrors) Open(url string, bare bool) (*git.Mirror, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := git.NewRepositoryRef(url)
	m.opened = append(m.opened, ref)
	m.bare = append(m.bare, bare)

	if m.Err_ != nil {
		return nil, m.Err_
	}

	if mirror, ok := m.Mirrors_[ref]; ok {
		return mirror, nil
	}

	return &git.Mirror{}, nil
}

func (m *MockMirrors) Opened() []git.RepositoryRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]git.RepositoryRef{}, m.opened...)
}

func (m *MockMirrors) Bare() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]bool{}, m.bare...)
}
