// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/app-sre/saas-metrics/constant"
	"github.com/app-sre/saas-metrics/saas"
)

var labelNames = []string{"context", "service"}

// Gauges holds the per-service promotion gauges collected over one run.
type Gauges struct {
	registry *prometheus.Registry

	upstreamCommits *prometheus.GaugeVec
	commitIndex     *prometheus.GaugeVec
	commitTS        *prometheus.GaugeVec
}

func NewGauges() *Gauges {
	g := &Gauges{
		registry: prometheus.NewRegistry(),
		upstreamCommits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saas_upstream_commits",
			Help: "number of commits in the upstream repo",
		}, labelNames),
		commitIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saas_commit_index",
			Help: "commit number in upstream of the last promoted to prod commit",
		}, labelNames),
		commitTS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saas_commit_ts",
			Help: "timestamp of the last promoted to prod commit (in upstream)",
		}, labelNames),
	}

	g.registry.MustRegister(g.upstreamCommits, g.commitIndex, g.commitTS)
	return g
}

// Observe sets the gauges for one service record.
func (g *Gauges) Observe(record saas.Record) {
	labels := prometheus.Labels{
		"context": record.Context,
		"service": record.Name,
	}

	g.upstreamCommits.With(labels).Set(float64(record.UpstreamCommits))
	g.commitIndex.With(labels).Set(float64(record.UpstreamCommitIndex))
	g.commitTS.With(labels).Set(float64(record.CommitTS))
}

// Push submits every observed value to the pushgateway.
func (g *Gauges) Push(server string) error {
	return push.New(server, constant.MetricsJob).Gatherer(g.registry).Push()
}
