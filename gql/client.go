// Copyright (C) 2022, Red Hat, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const saasReposQuery = `
{
    apps: apps_v1 {
        codeComponents {
            name
            resource
            url
        }
    }
}
`

// saasRepoResource marks a code component as a saas deployment repository.
const saasRepoResource = "saasrepo"

type Client interface {
	SaasRepos(ctx context.Context) ([]string, error)
}

var _ Client = &HTTPClient{}

type HTTPClient struct {
	server string
	token  string
	client *http.Client
}

func NewClient(server string, token string) *HTTPClient {
	return &HTTPClient{
		server: server,
		token:  token,
		client: &http.Client{Timeout: time.Minute},
	}
}

type saasReposResponse struct {
	Data struct {
		Apps []struct {
			CodeComponents []struct {
				Name     string `json:"name"`
				Resource string `json:"resource"`
				URL      string `json:"url"`
			} `json:"codeComponents"`
		} `json:"apps"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// SaasRepos returns the URL of every code component declared as a saas
// deployment repository.
func (c *HTTPClient) SaasRepos(ctx context.Context) ([]string, error) {
	body, err := json.Marshal(map[string]string{"query": saasReposQuery})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql query failed: %s", resp.Status)
	}

	var parsed saasReposResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("graphql query failed: %s", parsed.Errors[0].Message)
	}

	var repos []string
	for _, app := range parsed.Data.Apps {
		for _, component := range app.CodeComponents {
			if component.Resource == saasRepoResource {
				repos = append(repos, component.URL)
			}
		}
	}

	return repos, nil
}
