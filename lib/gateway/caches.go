// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/bureau-foundation/jiragw/lib/jira"
)

// projectKeysRefreshInterval is how many lookups the cached project
// key list serves before it is dropped and refetched. Projects are
// created rarely; the engine polls constantly.
const projectKeysRefreshInterval = 30

// badResultCode marks a failed project access probe with no HTTP
// status to report. Any code at or above it denies access.
const badResultCode = 201

// remoteCache holds the per-session caches in front of the JIRA
// server. A session serves one replication engine connection, but the
// caches guard themselves anyway since probes run during queries.
type remoteCache struct {
	mu sync.Mutex

	projects map[string]*jira.Project

	projectKeys       []string
	projectKeysFilled bool
	projectKeysUses   int

	accessCodes map[string]int
}

func newRemoteCache() *remoteCache {
	return &remoteCache{
		projects:    make(map[string]*jira.Project),
		accessCodes: make(map[string]int),
	}
}

// project returns the named project, fetching and caching it on first
// use. Returns (nil, nil) when the project does not exist.
func (cache *remoteCache) project(ctx context.Context, remote Remote, key string) (*jira.Project, error) {
	cache.mu.Lock()
	cached, ok := cache.projects[key]
	cache.mu.Unlock()
	if ok {
		return cached, nil
	}

	project, err := remote.Project(ctx, key)
	if err != nil {
		if jira.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	cache.mu.Lock()
	cache.projects[key] = project
	cache.mu.Unlock()
	return project, nil
}

// allProjectKeys returns the keys of every visible project. The cached
// list is refreshed periodically so projects created mid-session
// eventually appear.
func (cache *remoteCache) allProjectKeys(ctx context.Context, remote Remote) ([]string, error) {
	cache.mu.Lock()
	cache.projectKeysUses++
	if cache.projectKeysUses%projectKeysRefreshInterval == 0 {
		cache.projectKeys = nil
		cache.projectKeysFilled = false
	}
	if cache.projectKeysFilled {
		keys := cache.projectKeys
		cache.mu.Unlock()
		return keys, nil
	}
	cache.mu.Unlock()

	projects, err := remote.AllProjects(ctx)
	if err != nil {
		if jira.ErrorStatus(err) != 0 {
			return nil, errNoProjects()
		}
		return nil, err
	}
	keys := make([]string, 0, len(projects))
	for _, project := range projects {
		keys = append(keys, project.Key)
	}
	if len(keys) == 0 {
		// Not cached; the next lookup probes the server again.
		return nil, errNoProjects()
	}

	cache.mu.Lock()
	cache.projectKeys = keys
	cache.projectKeysFilled = true
	cache.mu.Unlock()
	return keys, nil
}

// errNoProjects is the failure for a project list that comes back
// empty or inaccessible. Replication cannot proceed without at least
// one visible project.
func errNoProjects() *RequestError {
	return requestErrorf("No projects found:  check jira permissions for jira user.")
}

// hasProjectAccess reports whether the authenticated user can query
// the project. The probe is a minimal JQL search; the resulting status
// code is cached for the session.
func (cache *remoteCache) hasProjectAccess(ctx context.Context, remote Remote, key string) bool {
	cache.mu.Lock()
	code, ok := cache.accessCodes[key]
	cache.mu.Unlock()
	if !ok {
		code = 0
		probe := jira.SearchRequest{
			JQL:        fmt.Sprintf("project = %q and updated < '2006/1/1'", key),
			MaxResults: 1,
		}
		if _, err := remote.Search(ctx, probe); err != nil {
			code = badResultCode
			if status := jira.ErrorStatus(err); status != 0 {
				code = status
			}
		}
		cache.mu.Lock()
		cache.accessCodes[key] = code
		cache.mu.Unlock()
	}
	return code < badResultCode
}
