// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

// Context is one named grouping of service definition files declared in a
// deployment repository's root configuration.
type Context struct {
	Name string `yaml:"name"`
	Data struct {
		ServicesDir string `yaml:"services_dir"`
	} `yaml:"data"`
}

// Service is one declared service, pinned to a commit hash, to a branch or
// tag, or (empty hash) to the upstream default branch head.
type Service struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Hash string `yaml:"hash"`
}

// Key identifies a service within one commit's snapshot.
type Key struct {
	Context string
	Name    string
}

// Snapshot is the set of services declared as of one deployment repository
// commit.
type Snapshot map[Key]Service

// Record is a Service enriched with the deployment commit that introduced
// its current pin and with its position in upstream history.
type Record struct {
	Service

	Context string

	// Commit is the deployment repository commit the pin was introduced
	// at; CommitTS is that commit's author timestamp.
	Commit   string
	CommitTS int64

	// UpstreamCommits is the total first-parent length of the upstream
	// repository's history; UpstreamCommitIndex the pinned commit's
	// 0-based position in it.
	UpstreamCommits     int
	UpstreamCommitIndex int
}
