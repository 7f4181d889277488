// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package git

import "fmt"

// CommandError is returned whenever an operation against a repository fails.
// It is never retried by this layer.
type CommandError struct {
	Op   string
	Repo RepositoryRef
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s failed for %s: %s", e.Op, e.Repo, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(op string, repo RepositoryRef, err error) *CommandError {
	return &CommandError{Op: op, Repo: repo, Err: err}
}
