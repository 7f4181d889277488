// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package git

import (
	"fmt"
	"strings"
)

// RepositoryRef is the canonical form of a remote repository URL: trailing
// slashes stripped and the .git suffix enforced. Two refs identify the same
// repository iff they are equal.
type RepositoryRef string

func NewRepositoryRef(url string) RepositoryRef {
	url = strings.TrimSuffix(url, "/")
	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}

	return RepositoryRef(url)
}

func (r RepositoryRef) String() string {
	return string(r)
}

var providerPrefixes = map[string]string{
	"https://gitlab.cee.redhat.com/": "gitlab",
	"https://github.com/":            "github",
}

// CacheKey derives the directory name used for this repository under a
// shared cache root, e.g. github-org-repo.
func (r RepositoryRef) CacheKey() (string, error) {
	for prefix, provider := range providerPrefixes {
		if !strings.HasPrefix(string(r), prefix) {
			continue
		}

		short := strings.TrimSuffix(strings.TrimPrefix(string(r), prefix), ".git")
		parts := strings.Split(short, "/")
		if len(parts) != 2 {
			return "", fmt.Errorf("expecting only two path components in %s", r)
		}

		return fmt.Sprintf("%s-%s-%s", provider, parts[0], parts[1]), nil
	}

	return "", fmt.Errorf("unknown provider for %s", r)
}
