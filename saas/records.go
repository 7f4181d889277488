// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

import (
	"fmt"

	"github.com/app-sre/saas-metrics/git"
)

// Records builds the head record for every service in snapshot: the
// deployment head commit and timestamp plus the upstream commit count and
// the pinned commit's position in upstream history. Services pinned to an
// empty hash are positioned at the upstream head.
func Records(deployment *git.Mirror, snapshot Snapshot, mirrors map[git.RepositoryRef]*git.Mirror) (map[Key]Record, error) {
	head, err := deployment.Resolve(git.Head)
	if err != nil {
		return nil, err
	}

	headTS, err := deployment.CommitTS(git.Head)
	if err != nil {
		return nil, err
	}

	records := make(map[Key]Record, len(snapshot))
	for key, service := range snapshot {
		mirror, ok := mirrors[git.NewRepositoryRef(service.URL)]
		if !ok {
			return nil, fmt.Errorf("no mirror established for %s", service.URL)
		}

		rev := service.Hash
		if rev == "" {
			rev = git.Head
		}

		upstreamCommits, err := mirror.Count(git.Head)
		if err != nil {
			return nil, err
		}

		index, err := mirror.Count(rev)
		if err != nil {
			return nil, err
		}

		records[key] = Record{
			Service:             service,
			Context:             key.Context,
			Commit:              head,
			CommitTS:            headTS,
			UpstreamCommits:     upstreamCommits,
			UpstreamCommitIndex: index,
		}
	}

	return records, nil
}
