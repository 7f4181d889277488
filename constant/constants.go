// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package constant

const (
	AppName    = "saas-metrics"
	MetricsJob = "saas_metrics"
)
