// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/juju/fslock"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/app-sre/saas-metrics/engine"
	"github.com/app-sre/saas-metrics/git"
	"github.com/app-sre/saas-metrics/gql"
	"github.com/app-sre/saas-metrics/metrics"
	"github.com/app-sre/saas-metrics/workflow"
)

const lockFile = "saas-metrics.lock"

func push(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "reconstruct promotion history for every deployment repository and push the gauges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(fs)
		},
	}
}

func runPush(fs afero.Fs) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Sugar()

	auth, err := initAuth()
	if err != nil {
		return err
	}

	cacheDir := viper.GetString(cacheDirKey)
	if cacheDir != "" {
		if err := fs.MkdirAll(cacheDir, 0o755); err != nil {
			return err
		}

		// concurrent runs against a shared cache are not safe
		lock := fslock.New(filepath.Join(cacheDir, lockFile))
		if err := lock.TryLock(); err != nil {
			return err
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	client := gql.NewClient(viper.GetString(graphqlServerKey), viper.GetString(graphqlTokenKey))
	repos, err := client.SaasRepos(context.Background())
	if err != nil {
		return err
	}

	opener := git.NewOpener(git.OpenerConfig{
		Fs:       fs,
		CacheDir: cacheDir,
		Auth:     auth,
		Log:      log,
	})

	gauges := metrics.NewGauges()
	executor := engine.NewWorkflowEngine()

	failed := 0
	for _, repo := range repos {
		log.Infow("processing", "repo", repo)

		export := workflow.NewExport(workflow.ExportConfig{
			URL:      repo,
			PoolSize: viper.GetInt(poolSizeKey),
			Opener:   opener,
			Gauges:   gauges,
			Log:      log,
		})

		// one repository's failure must not abort the others
		if err := executor.Execute(export); err != nil {
			log.Errorw("processing failed", "repo", repo, "error", err)
			failed++
		}
	}

	if len(repos) > 0 && failed == len(repos) {
		return errors.New("all deployment repositories failed")
	}

	return gauges.Push(viper.GetString(pushGatewayKey))
}
