// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"context"
	"net/url"
)

// ServerInfo fetches server metadata, including the server-local time.
func (client *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := client.get(ctx, "/serverInfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AllProjects lists every project visible to the authenticated user.
func (client *Client) AllProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := client.get(ctx, "/project", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Project fetches one project by key.
func (client *Client) Project(ctx context.Context, key string) (*Project, error) {
	var project Project
	if err := client.get(ctx, "/project/"+url.PathEscape(key), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ProjectIssueTypes lists the issue types available in one project.
func (client *Client) ProjectIssueTypes(ctx context.Context, key string) ([]NamedValue, error) {
	var project struct {
		IssueTypes []NamedValue `json:"issueTypes"`
	}
	if err := client.get(ctx, "/project/"+url.PathEscape(key), &project); err != nil {
		return nil, err
	}
	return project.IssueTypes, nil
}

// Priorities lists all priorities.
func (client *Client) Priorities(ctx context.Context) ([]NamedValue, error) {
	var values []NamedValue
	if err := client.get(ctx, "/priority", &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Resolutions lists all resolutions.
func (client *Client) Resolutions(ctx context.Context) ([]NamedValue, error) {
	var values []NamedValue
	if err := client.get(ctx, "/resolution", &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Statuses lists all statuses.
func (client *Client) Statuses(ctx context.Context) ([]NamedValue, error) {
	var values []NamedValue
	if err := client.get(ctx, "/status", &values); err != nil {
		return nil, err
	}
	return values, nil
}

// IssueTypes lists all issue types.
func (client *Client) IssueTypes(ctx context.Context) ([]NamedValue, error) {
	var values []NamedValue
	if err := client.get(ctx, "/issuetype", &values); err != nil {
		return nil, err
	}
	return values, nil
}

// User fetches one user by account name.
func (client *Client) User(ctx context.Context, name string) (*User, error) {
	var user User
	if err := client.get(ctx, "/user?username="+url.QueryEscape(name), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Fields lists every issue field, standard and custom.
func (client *Client) Fields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := client.get(ctx, "/field", &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Issue fetches one issue by key, with field display names expanded.
func (client *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	var issue Issue
	if err := client.get(ctx, "/issue/"+url.PathEscape(key)+"?expand=names", &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// CreateIssue creates an issue from a field id to value map and returns
// the created issue's key.
func (client *Client) CreateIssue(ctx context.Context, fields map[string]any) (*Issue, error) {
	var created Issue
	request := map[string]any{"fields": fields}
	if err := client.post(ctx, "/issue", request, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateIssue sets issue fields from a field id to value map.
func (client *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	request := map[string]any{"fields": fields}
	return client.put(ctx, "/issue/"+url.PathEscape(key), request)
}

// Transitions lists the workflow transitions currently available on an
// issue.
func (client *Client) Transitions(ctx context.Context, key string) ([]Transition, error) {
	var response struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := client.get(ctx, "/issue/"+url.PathEscape(key)+"/transitions", &response); err != nil {
		return nil, err
	}
	return response.Transitions, nil
}

// DoTransition performs a workflow transition, optionally setting
// fields and adding a comment in the same step.
func (client *Client) DoTransition(ctx context.Context, key, transitionID string, fields map[string]any, comment string) error {
	request := map[string]any{
		"transition": map[string]any{"id": transitionID},
	}
	if len(fields) > 0 {
		request["fields"] = fields
	}
	if comment != "" {
		request["update"] = map[string]any{
			"comment": []map[string]any{
				{"add": map[string]any{"body": comment}},
			},
		}
	}
	return client.post(ctx, "/issue/"+url.PathEscape(key)+"/transitions", request, nil)
}

// AddComment adds a comment to an issue.
func (client *Client) AddComment(ctx context.Context, key, body string) error {
	request := map[string]any{"body": body}
	return client.post(ctx, "/issue/"+url.PathEscape(key)+"/comment", request, nil)
}
