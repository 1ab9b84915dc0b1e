// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"encoding/json"
	"strings"
)

// CustomFieldPrefix starts the id of every JIRA custom field.
const CustomFieldPrefix = "customfield_"

// ServerInfo describes the JIRA server, from /serverInfo.
type ServerInfo struct {
	BaseURL     string `json:"baseUrl"`
	Version     string `json:"version"`
	BuildNumber int    `json:"buildNumber"`
	ServerTime  string `json:"serverTime"`
	ServerTitle string `json:"serverTitle"`
}

// Project is a JIRA project.
type Project struct {
	Self string `json:"self,omitempty"`
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// NamedValue is the common shape of priorities, resolutions, statuses,
// issue types, versions, and components: an id and a display name.
type NamedValue struct {
	Self string `json:"self,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User is a JIRA account.
type User struct {
	Name         string `json:"name,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Field describes one issue field, standard or custom, from /field.
type Field struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Custom bool        `json:"custom"`
	Schema FieldSchema `json:"schema"`
}

// FieldSchema is the type information attached to a field descriptor.
type FieldSchema struct {
	Type   string `json:"type,omitempty"`
	Custom string `json:"custom,omitempty"`
}

// IsCustom reports whether the field id carries the custom field
// prefix. Some JIRA versions omit the custom flag on /field entries.
func (f *Field) IsCustom() bool {
	return f.Custom || strings.HasPrefix(f.ID, CustomFieldPrefix)
}

// Comment is one issue comment.
type Comment struct {
	ID     string `json:"id,omitempty"`
	Body   string `json:"body"`
	Author *User  `json:"author,omitempty"`
}

// Transition is one workflow transition available on an issue.
type Transition struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	To   NamedValue `json:"to"`
}

// Issue is a JIRA issue. Names maps field ids to display names and is
// populated when the issue was fetched with expand=names.
type Issue struct {
	ID     string            `json:"id,omitempty"`
	Key    string            `json:"key"`
	Fields IssueFields       `json:"fields"`
	Names  map[string]string `json:"names,omitempty"`
}

// IssueFields holds the field values of an issue. Standard fields are
// decoded into typed members; custom field values are kept raw in
// Custom, keyed by field id, since their shape depends on the field
// type.
type IssueFields struct {
	Summary     string
	Description string
	Environment string
	IssueType   *NamedValue
	Priority    *NamedValue
	Status      *NamedValue
	Resolution  *NamedValue
	Reporter    *User
	Assignee    *User
	DueDate     string
	Created     string
	Updated     string
	Project     *Project
	Components  []NamedValue
	Versions    []NamedValue
	FixVersions []NamedValue
	Comments    []Comment
	Custom      map[string]json.RawMessage
}

// UnmarshalJSON splits the flat JIRA fields object into the typed
// standard fields and the raw custom field map. Null values are
// dropped.
func (fields *IssueFields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decode := func(key string, target any) error {
		value, ok := raw[key]
		if !ok || string(value) == "null" {
			return nil
		}
		return json.Unmarshal(value, target)
	}

	if err := decode("summary", &fields.Summary); err != nil {
		return err
	}
	if err := decode("description", &fields.Description); err != nil {
		return err
	}
	if err := decode("environment", &fields.Environment); err != nil {
		return err
	}
	if err := decode("issuetype", &fields.IssueType); err != nil {
		return err
	}
	if err := decode("priority", &fields.Priority); err != nil {
		return err
	}
	if err := decode("status", &fields.Status); err != nil {
		return err
	}
	if err := decode("resolution", &fields.Resolution); err != nil {
		return err
	}
	if err := decode("reporter", &fields.Reporter); err != nil {
		return err
	}
	if err := decode("assignee", &fields.Assignee); err != nil {
		return err
	}
	if err := decode("duedate", &fields.DueDate); err != nil {
		return err
	}
	if err := decode("created", &fields.Created); err != nil {
		return err
	}
	if err := decode("updated", &fields.Updated); err != nil {
		return err
	}
	if err := decode("project", &fields.Project); err != nil {
		return err
	}
	if err := decode("components", &fields.Components); err != nil {
		return err
	}
	if err := decode("versions", &fields.Versions); err != nil {
		return err
	}
	if err := decode("fixVersions", &fields.FixVersions); err != nil {
		return err
	}

	var comment struct {
		Comments []Comment `json:"comments"`
	}
	if err := decode("comment", &comment); err != nil {
		return err
	}
	fields.Comments = comment.Comments

	for key, value := range raw {
		if !strings.HasPrefix(key, CustomFieldPrefix) || string(value) == "null" {
			continue
		}
		if fields.Custom == nil {
			fields.Custom = make(map[string]json.RawMessage)
		}
		fields.Custom[key] = value
	}
	return nil
}
