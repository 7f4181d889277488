// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

// Credential is an optional git credential for private deployment or
// upstream repositories.
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}
