// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package saas

import (
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/app-sre/saas-metrics/git"
)

const (
	rootConfigFile = "config.yaml"
	servicesKey    = "services"
)

// ConfigReadError indicates the deployment repository's root configuration
// is missing or unparseable at head. It is fatal for that repository.
type ConfigReadError struct {
	Repo git.RepositoryRef
	Err  error
}

func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("cannot read deployment config for %s: %s", e.Repo, e.Err)
}

func (e *ConfigReadError) Unwrap() error {
	return e.Err
}

// Catalog reads service declarations out of a deployment repository at
// arbitrary commits. The set of contexts is fixed at open time from the
// repository's head configuration and applied to every queried commit.
type Catalog struct {
	mirror   *git.Mirror
	contexts []Context
}

func NewCatalog(mirror *git.Mirror) (*Catalog, error) {
	data, err := mirror.FileAt(git.Head, rootConfigFile)
	if err != nil {
		return nil, &ConfigReadError{Repo: mirror.Ref(), Err: err}
	}

	var config struct {
		Contexts []Context `yaml:"contexts"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &ConfigReadError{Repo: mirror.Ref(), Err: err}
	}

	return &Catalog{mirror: mirror, contexts: config.Contexts}, nil
}

func (c *Catalog) Contexts() []Context {
	return c.contexts
}

// Services returns the snapshot of declared services as of rev, keyed by
// (context, service name). Files that fail to parse or have an unexpected
// shape contribute no services.
func (c *Catalog) Services(rev string) (Snapshot, error) {
	snapshot := Snapshot{}

	for _, context := range c.contexts {
		entries, err := c.mirror.LsDir(rev, context.Data.ServicesDir)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			services, ok := c.servicesIn(rev, path.Join(context.Data.ServicesDir, entry))
			if !ok {
				continue
			}

			for _, service := range services {
				snapshot[Key{Context: context.Name, Name: service.Name}] = service
			}
		}
	}

	return snapshot, nil
}

// servicesIn parses one definition file. Deployment repositories hold files
// this engine does not own, so anything that is not a mapping with a service
// list is reported as not applicable rather than as an error.
func (c *Catalog) servicesIn(rev string, filePath string) ([]Service, bool) {
	data, err := c.mirror.FileAt(rev, filePath)
	if err != nil {
		return nil, false
	}

	var file map[string]yaml.Node
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, false
	}

	list, ok := file[servicesKey]
	if !ok || list.Kind != yaml.SequenceNode {
		return nil, false
	}

	var services []Service
	for _, node := range list.Content {
		var service Service
		if node.Kind != yaml.MappingNode || node.Decode(&service) != nil {
			continue
		}
		if service.Name == "" || service.URL == "" {
			continue
		}

		services = append(services, service)
	}

	return services, true
}
