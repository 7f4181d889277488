// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pinA = strings.Repeat("a", 40)
	pinB = strings.Repeat("b", 40)
)

func TestIsSHA(t *testing.T) {
	assert.True(t, IsSHA(pinA))
	assert.False(t, IsSHA("master"))
	assert.False(t, IsSHA(""))
	assert.False(t, IsSHA(strings.Repeat("a", 39)))
	assert.False(t, IsSHA(strings.Repeat("z", 40)))
}

func headRecord(commit string, ts int64, hash string) Record {
	return Record{
		Service:             Service{Name: "api", URL: upstreamURL, Hash: hash},
		Context:             "production",
		Commit:              commit,
		CommitTS:            ts,
		UpstreamCommits:     10,
		UpstreamCommitIndex: 4,
	}
}

// deployment repository with three linear commits: the pin changes from B to
// A at the second commit and stays A at the head
func promotionRepo(t *testing.T) (*testRepo, []string) {
	repo := newTestRepo(t)

	repo.write("config.yaml", rootConfig)
	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, pinB))
	first := repo.commit("pin B", epoch)

	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, pinA))
	second := repo.commit("promote A", epoch.Add(time.Minute))

	repo.write("README.md", "unrelated change")
	third := repo.commit("docs", epoch.Add(2*time.Minute))

	return repo, []string{first, second, third}
}

func TestWalkFindsPromotionCommit(t *testing.T) {
	repo, commits := promotionRepo(t)
	mirror := repo.mirror(deployURL)

	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	key := Key{Context: "production", Name: "api"}
	records := map[Key]Record{
		key: headRecord(commits[2], epoch.Add(2*time.Minute).Unix(), pinA),
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)

	// the pin still matched at the second commit but not at the root
	assert.Equal(t, commits[1], result[key].Commit)
	assert.Equal(t, epoch.Add(time.Minute).Unix(), result[key].CommitTS)

	// upstream enrichment passes through untouched
	assert.Equal(t, 10, result[key].UpstreamCommits)
	assert.Equal(t, 4, result[key].UpstreamCommitIndex)
}

func TestWalkKeepsHeadValuesForMovingPins(t *testing.T) {
	repo := newTestRepo(t)
	repo.write("config.yaml", rootConfig)
	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, "master"))
	repo.commit("pin branch", epoch)
	head := repo.commit("noop", epoch.Add(time.Minute))

	mirror := repo.mirror(deployURL)
	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	key := Key{Context: "production", Name: "api"}
	records := map[Key]Record{
		key: headRecord(head, epoch.Add(time.Minute).Unix(), "master"),
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)

	// a branch pin has no single introducing commit; nothing moves
	assert.Equal(t, records[key], result[key])
}

func TestWalkKeepsHeadValuesForEmptyPins(t *testing.T) {
	repo, commits := promotionRepo(t)
	mirror := repo.mirror(deployURL)

	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	key := Key{Context: "production", Name: "api"}
	records := map[Key]Record{
		key: headRecord(commits[2], epoch.Add(2*time.Minute).Unix(), ""),
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)
	assert.Equal(t, records[key], result[key])
}

func TestWalkServiceAddedAtHead(t *testing.T) {
	repo := newTestRepo(t)
	repo.write("config.yaml", rootConfig)
	repo.commit("init", epoch)

	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, pinA))
	head := repo.commit("add api", epoch.Add(time.Minute))

	mirror := repo.mirror(deployURL)
	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	key := Key{Context: "production", Name: "api"}
	records := map[Key]Record{
		key: headRecord(head, epoch.Add(time.Minute).Unix(), pinA),
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)

	// absent at offset 1, so no older candidate exists
	assert.Equal(t, records[key], result[key])
}

func TestWalkSingleCommitRepository(t *testing.T) {
	repo := newTestRepo(t)
	repo.write("config.yaml", rootConfig)
	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, pinA))
	head := repo.commit("init", epoch)

	mirror := repo.mirror(deployURL)
	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	key := Key{Context: "production", Name: "api"}
	records := map[Key]Record{
		key: headRecord(head, epoch.Unix(), pinA),
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)
	assert.Equal(t, records[key], result[key])
}

func TestWalkMultipleServices(t *testing.T) {
	repo := newTestRepo(t)

	repo.write("config.yaml", rootConfig)
	repo.write("production/services/api.yaml", serviceFile("api", upstreamURL, pinA))
	repo.write("staging/services/web.yaml", serviceFile("web", "https://github.com/org/web", pinB))
	first := repo.commit("init", epoch)

	repo.write("staging/services/web.yaml", serviceFile("web", "https://github.com/org/web", pinA))
	second := repo.commit("promote web", epoch.Add(time.Minute))

	repo.write("README.md", "unrelated")
	third := repo.commit("docs", epoch.Add(2*time.Minute))

	mirror := repo.mirror(deployURL)
	catalog, err := NewCatalog(mirror)
	require.NoError(t, err)

	api := Key{Context: "production", Name: "api"}
	web := Key{Context: "staging", Name: "web"}
	headTS := epoch.Add(2 * time.Minute).Unix()
	records := map[Key]Record{
		api: {
			Service:  Service{Name: "api", URL: upstreamURL, Hash: pinA},
			Context:  "production",
			Commit:   third,
			CommitTS: headTS,
		},
		web: {
			Service:  Service{Name: "web", URL: "https://github.com/org/web", Hash: pinA},
			Context:  "staging",
			Commit:   third,
			CommitTS: headTS,
		},
	}

	result, err := NewHistory(mirror, catalog).Walk(records)
	assert.NoError(t, err)

	// api's pin was in effect since the root
	assert.Equal(t, first, result[api].Commit)
	assert.Equal(t, epoch.Unix(), result[api].CommitTS)

	// web's pin was promoted at the second commit
	assert.Equal(t, second, result[web].Commit)
	assert.Equal(t, epoch.Add(time.Minute).Unix(), result[web].CommitTS)
}
