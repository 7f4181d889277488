// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

import (
	"regexp"

	"github.com/app-sre/saas-metrics/git"
)

var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsSHA reports whether value is a full 40 character commit id.
func IsSHA(value string) bool {
	return shaPattern.MatchString(value)
}

// History walks a deployment repository's first-parent ancestry backwards to
// find, per service, the oldest commit at which the currently pinned hash
// was already the pinned value.
type History struct {
	mirror  *git.Mirror
	catalog *Catalog
}

func NewHistory(mirror *git.Mirror, catalog *Catalog) *History {
	return &History{mirror: mirror, catalog: catalog}
}

// Walk narrows each record's Commit and CommitTS to the earliest ancestor
// whose snapshot still pins the same hash. Records whose pin is a branch, a
// tag or empty keep their head values: a moving reference has no single
// introducing commit to find by value comparison.
//
// The walk visits at most Count(HEAD) ancestors, one full linear scan in the
// worst case.
func (h *History) Walk(records map[Key]Record) (map[Key]Record, error) {
	candidates := make(map[Key]Record, len(records))
	open := make(map[Key]bool, len(records))

	for key, record := range records {
		candidates[key] = record
		if IsSHA(record.Hash) {
			open[key] = true
		}
	}

	total, err := h.mirror.Count(git.Head)
	if err != nil {
		return nil, err
	}

	commit, err := h.mirror.Resolve(git.Head)
	if err != nil {
		return nil, err
	}

	for offset := 1; offset <= total && len(open) > 0; offset++ {
		parent, ok, err := h.mirror.FirstParent(commit)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		commit = parent

		ts, err := h.mirror.CommitTS(commit)
		if err != nil {
			return nil, err
		}

		snapshot, err := h.catalog.Services(commit)
		if err != nil {
			return nil, err
		}

		for key := range open {
			service, found := snapshot[key]
			if !found || service.Hash != records[key].Hash {
				// the candidate from the previous offset is the
				// earliest commit with a matching pin
				delete(open, key)
				continue
			}

			candidate := candidates[key]
			candidate.Commit = commit
			candidate.CommitTS = ts
			candidates[key] = candidate
		}
	}

	return candidates, nil
}
