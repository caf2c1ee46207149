// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fixes

import (
	"context"
	"os"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

// 🔧 RegistryOptions configures a remote fix registry.
type RegistryOptions struct {
	// Repo is the registry repository, e.g. "github.com/acme/fix-bundles".
	Repo string

	// Ref is the branch or tag to pull from. Defaults to "main".
	Ref string

	// Path is the directory inside the repository holding bundle files.
	// Defaults to "fixes".
	Path string

	// Token authenticates API calls. Falls back to GITHUB_TOKEN; empty
	// means anonymous access, which works for public registries.
	Token string
}

// 📡 Registry pulls fix bundles from a GitHub repository directory.
type Registry struct {
	client *github.Client
	owner  string
	name   string
	ref    string
	path   string
}

// 🏭 NewRegistry creates a Registry for the given repository.
func NewRegistry(ctx context.Context, opts RegistryOptions) (*Registry, error) {
	owner, name, err := parseRepo(opts.Repo)
	if err != nil {
		return nil, err
	}
	if opts.Ref == "" {
		opts.Ref = "main"
	}
	if opts.Path == "" {
		opts.Path = "fixes"
	}
	if opts.Token == "" {
		opts.Token = os.Getenv("GITHUB_TOKEN")
	}

	var client *github.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}

	return &Registry{
		client: client,
		owner:  owner,
		name:   name,
		ref:    opts.Ref,
		path:   opts.Path,
	}, nil
}

// 📥 Pull lists the bundle files under the registry path and decodes
// every fix in them.
func (r *Registry) Pull(ctx context.Context) ([]*Fix, error) {
	logger := zerolog.Ctx(ctx)

	tree, _, err := r.client.Git.GetTree(ctx, r.owner, r.name, r.ref, true)
	if err != nil {
		return nil, errors.Errorf("getting repository tree: %w", err)
	}

	prefix := strings.TrimSuffix(r.path, "/") + "/"
	var fixes []*Fix
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if !strings.HasPrefix(path, prefix) || !IsBundleFile(path) {
			continue
		}

		content, _, _, err := r.client.Repositories.GetContents(ctx, r.owner, r.name, path, &github.RepositoryContentGetOptions{
			Ref: r.ref,
		})
		if err != nil {
			return nil, errors.Errorf("getting bundle %s: %w", path, err)
		}
		data, err := content.GetContent()
		if err != nil {
			return nil, errors.Errorf("decoding bundle %s: %w", path, err)
		}

		bundle, err := DecodeBundle(path, []byte(data))
		if err != nil {
			return nil, errors.Errorf("bundle %s: %w", path, err)
		}
		fixes = append(fixes, bundle.Fixes...)
	}

	logger.Info().
		Str("repo", r.owner+"/"+r.name).
		Str("ref", r.ref).
		Int("fixes", len(fixes)).
		Msg("pulled fix registry")

	return fixes, nil
}

// 🔍 parseRepo splits a repository URL into owner and name.
func parseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSuffix(repo, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", errors.Errorf("invalid repository format: %s", repo)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
