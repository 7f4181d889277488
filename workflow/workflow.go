// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workflow

type Workflow interface {
	Execute() error
}
