// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/app-sre/saas-metrics/config"
	"github.com/app-sre/saas-metrics/constant"
)

const (
	configFileKey      = "config-file"
	cacheDirKey        = "cache-dir"
	poolSizeKey        = "pool-size"
	graphqlServerKey   = "graphql-server"
	graphqlTokenKey    = "graphql-token"
	pushGatewayKey     = "pushgateway"
	credentialsFileKey = "credentials-file"
)

func New(fs afero.Fs) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   constant.AppName,
		Short: "saas-metrics reconstructs the promotion history of saas deployment repositories and exports it as gauges",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// we need to initialize our config here before each command starts,
			// since Cobra doesn't actually parse any of the flags until
			// cobra.Execute() is called.
			return initializeConfig()
		},
	}

	rootCmd.PersistentFlags().String(configFileKey, "", "path to configuration file for saas-metrics")
	rootCmd.PersistentFlags().String(cacheDirKey, ".cache", "directory repository mirrors are cached under")
	rootCmd.PersistentFlags().Int(poolSizeKey, 0, "number of concurrent upstream fetch workers (0 fetches sequentially)")
	rootCmd.PersistentFlags().String(graphqlServerKey, "", "graphql endpoint enumerating the deployment repositories")
	rootCmd.PersistentFlags().String(graphqlTokenKey, "", "authorization token for the graphql endpoint")
	rootCmd.PersistentFlags().String(pushGatewayKey, "", "prometheus pushgateway to submit the gauges to")
	rootCmd.PersistentFlags().String(credentialsFileKey, "", "path to git credentials file")

	for _, key := range []string{
		configFileKey,
		cacheDirKey,
		poolSizeKey,
		graphqlServerKey,
		graphqlTokenKey,
		pushGatewayKey,
		credentialsFileKey,
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			return nil, err
		}
	}

	// the token is usually injected through the environment rather than a flag
	if err := viper.BindEnv(graphqlTokenKey, "GRAPHQL_TOKEN"); err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		push(fs),
	)

	return rootCmd, nil
}

// initializes config from file, if available.
func initializeConfig() error {
	if viper.IsSet(configFileKey) && viper.GetString(configFileKey) != "" {
		cfgFile := os.ExpandEnv(viper.GetString(configFileKey))
		viper.SetConfigFile(cfgFile)

		return viper.ReadInConfig()
	}

	return nil
}

// If we need to use custom git credentials (say for private repos).
// No credentials file means anonymous access.
func initAuth() (transport.AuthMethod, error) {
	if !viper.IsSet(credentialsFileKey) || viper.GetString(credentialsFileKey) == "" {
		return nil, nil
	}

	credential := &config.Credential{}

	bytes, err := os.ReadFile(viper.GetString(credentialsFileKey))
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, credential); err != nil {
		return nil, err
	}

	return &http.BasicAuth{
		Username: credential.Username,
		Password: credential.Password,
	}, nil
}
