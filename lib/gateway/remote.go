// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/bureau-foundation/jiragw/lib/jira"
)

// Remote is the slice of the JIRA client the handler consumes. Tests
// substitute a fake; production wires in *jira.Client.
type Remote interface {
	Username() string
	ServerInfo(ctx context.Context) (*jira.ServerInfo, error)
	AllProjects(ctx context.Context) ([]jira.Project, error)
	Project(ctx context.Context, key string) (*jira.Project, error)
	ProjectIssueTypes(ctx context.Context, key string) ([]jira.NamedValue, error)
	Priorities(ctx context.Context) ([]jira.NamedValue, error)
	Resolutions(ctx context.Context) ([]jira.NamedValue, error)
	Statuses(ctx context.Context) ([]jira.NamedValue, error)
	IssueTypes(ctx context.Context) ([]jira.NamedValue, error)
	Fields(ctx context.Context) ([]jira.Field, error)
	Issue(ctx context.Context, key string) (*jira.Issue, error)
	CreateIssue(ctx context.Context, fields map[string]any) (*jira.Issue, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any) error
	Transitions(ctx context.Context, key string) ([]jira.Transition, error)
	DoTransition(ctx context.Context, key, transitionID string, fields map[string]any, comment string) error
	AddComment(ctx context.Context, key, body string) error
	Search(ctx context.Context, request jira.SearchRequest) (*jira.SearchResult, error)
	CreateMeta(ctx context.Context, projectKey string) (*jira.CreateMeta, error)
}

var _ Remote = (*jira.Client)(nil)
