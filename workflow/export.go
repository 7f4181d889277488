// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workflow

import (
	"go.uber.org/zap"

	"github.com/app-sre/saas-metrics/git"
	"github.com/app-sre/saas-metrics/metrics"
	"github.com/app-sre/saas-metrics/saas"
)

var _ Workflow = &Export{}

type ExportConfig struct {
	URL      string
	PoolSize int
	Opener   saas.Mirrors
	Gauges   *metrics.Gauges
	Log      *zap.SugaredLogger
}

func NewExport(config ExportConfig) *Export {
	return &Export{
		url:      config.URL,
		poolSize: config.PoolSize,
		opener:   config.Opener,
		gauges:   config.Gauges,
		log:      config.Log,
	}
}

// Export reconstructs the promotion history of one deployment repository and
// records it on the run's gauges. A failure leaves the gauges of other
// repositories untouched.
type Export struct {
	url      string
	poolSize int
	opener   saas.Mirrors
	gauges   *metrics.Gauges
	log      *zap.SugaredLogger
}

func (e *Export) Execute() error {
	mirror, err := e.opener.Open(e.url, false)
	if err != nil {
		return err
	}

	catalog, err := saas.NewCatalog(mirror)
	if err != nil {
		return err
	}

	snapshot, err := catalog.Services(git.Head)
	if err != nil {
		return err
	}

	resolver := saas.NewResolver(e.opener, mirror)
	mirrors, err := resolver.Resolve(snapshot, e.poolSize)
	if err != nil {
		return err
	}

	records, err := saas.Records(mirror, snapshot, mirrors)
	if err != nil {
		return err
	}

	history := saas.NewHistory(mirror, catalog)
	records, err = history.Walk(records)
	if err != nil {
		return err
	}

	for _, record := range records {
		e.gauges.Observe(record)
	}

	e.log.Infow("processed", "repo", mirror.Ref(), "services", len(records))
	return nil
}
