// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/jql"
)

// namedValues converts JIRA named values into ordered name/id pairs,
// preserving server order.
func namedValues(values []jira.NamedValue) []jql.Value {
	converted := make([]jql.Value, 0, len(values))
	for _, value := range values {
		converted = append(converted, jql.Value{Name: value.Name, ID: value.ID})
	}
	return converted
}

// issueTypeValues returns the issue types in play: the project's own
// types when a concrete project is named, all types otherwise.
func (h *Handler) issueTypeValues(ctx context.Context, projectID string) ([]jql.Value, error) {
	if projectID != "" && projectID != AllProjects {
		values, err := h.remote.ProjectIssueTypes(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return namedValues(values), nil
	}
	values, err := h.remote.IssueTypes(ctx)
	if err != nil {
		return nil, err
	}
	return namedValues(values), nil
}

func (h *Handler) priorityValues(ctx context.Context) ([]jql.Value, error) {
	values, err := h.remote.Priorities(ctx)
	if err != nil {
		return nil, err
	}
	return namedValues(values), nil
}

func (h *Handler) resolutionValues(ctx context.Context) ([]jql.Value, error) {
	values, err := h.remote.Resolutions(ctx)
	if err != nil {
		return nil, err
	}
	return namedValues(values), nil
}

func (h *Handler) statusValues(ctx context.Context) ([]jql.Value, error) {
	values, err := h.remote.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	return namedValues(values), nil
}

// remoteCustomFields lists the server's custom fields in server order.
func (h *Handler) remoteCustomFields(ctx context.Context) ([]jira.Field, error) {
	fields, err := h.remote.Fields(ctx)
	if err != nil {
		return nil, err
	}
	custom := make([]jira.Field, 0, len(fields))
	for _, field := range fields {
		if field.IsCustom() {
			custom = append(custom, field)
		}
	}
	return custom, nil
}

// segmentTranslator builds the JQL rewriter for segment filters: the
// standard field table, the configured custom field names, and the
// named values of the four select fields.
func (h *Handler) segmentTranslator(ctx context.Context, projectID string) (*jql.Translator, error) {
	issueTypes, err := h.issueTypeValues(ctx, projectID)
	if err != nil {
		return nil, err
	}
	priorities, err := h.priorityValues(ctx)
	if err != nil {
		return nil, err
	}
	resolutions, err := h.resolutionValues(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := h.statusValues(ctx)
	if err != nil {
		return nil, err
	}

	customNames := make([]string, 0, len(h.config.CustomFields))
	for _, field := range h.config.CustomFields {
		customNames = append(customNames, field.Name)
	}

	return &jql.Translator{
		StandardFields: standardFields,
		CustomFields:   customNames,
		IssueTypes:     issueTypes,
		Priorities:     priorities,
		Resolutions:    resolutions,
		Statuses:       statuses,
	}, nil
}

// findValueByName resolves a display name to its id, ignoring case.
func findValueByName(values []jql.Value, name string) (string, bool) {
	for _, value := range values {
		if equalFoldTrim(value.Name, name) {
			return value.ID, true
		}
	}
	return "", false
}
