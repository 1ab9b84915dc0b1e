// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"context"
	"net/url"
	"strings"
)

// MetaFieldValue is one allowed value of a field in create metadata.
// Depending on the field, JIRA identifies values by name (issue types,
// priorities) or by value (custom select options).
type MetaFieldValue struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// MetaField describes one field on the create screen of an issue type.
type MetaField struct {
	FieldID       string           `json:"fieldId,omitempty"`
	Name          string           `json:"name"`
	Required      bool             `json:"required"`
	AllowedValues []MetaFieldValue `json:"allowedValues,omitempty"`
}

// IssueTypeMeta is the create metadata of one issue type.
type IssueTypeMeta struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Fields map[string]MetaField `json:"fields"`
}

// CreateMeta is the create metadata of one project: the issue types
// that can be created and the fields each accepts.
type CreateMeta struct {
	Key        string          `json:"key"`
	IssueTypes []IssueTypeMeta `json:"issuetypes"`
}

// FindIssueType returns the metadata of the named issue type, ignoring
// case.
func (meta *CreateMeta) FindIssueType(name string) (*IssueTypeMeta, bool) {
	for i := range meta.IssueTypes {
		if strings.EqualFold(meta.IssueTypes[i].Name, name) {
			return &meta.IssueTypes[i], true
		}
	}
	return nil, false
}

// CreateMeta fetches the create metadata for one project, with per
// issue type fields expanded.
func (client *Client) CreateMeta(ctx context.Context, projectKey string) (*CreateMeta, error) {
	var response struct {
		Projects []CreateMeta `json:"projects"`
	}
	path := "/issue/createmeta?projectKeys=" + url.QueryEscape(projectKey) + "&expand=projects.issuetypes.fields"
	if err := client.get(ctx, path, &response); err != nil {
		return nil, err
	}
	if len(response.Projects) == 0 {
		return &CreateMeta{Key: projectKey}, nil
	}
	return &response.Projects[0], nil
}
