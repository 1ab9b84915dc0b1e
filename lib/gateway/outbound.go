// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// defectFields renders a JIRA issue as the defect field map the
// replication engine consumes. Multi-value fields are joined with the
// protocol separator; comments are joined into a single text block.
// The engine composes Status/Resolution itself from the two parts.
func (h *Handler) defectFields(issue *jira.Issue) (wire.Fields, error) {
	styles := h.config.Handling.UserStyles
	fields := wire.Fields{{Name: FieldIssueKey, Value: issue.Key}}

	if issue.Fields.Reporter != nil {
		fields = append(fields, wire.Field{Name: FieldReporter, Value: userName(styles, issue.Fields.Reporter)})
	}
	if issue.Fields.Assignee != nil {
		fields = append(fields, wire.Field{Name: FieldAssignee, Value: userName(styles, issue.Fields.Assignee)})
	}
	if issue.Fields.Summary != "" {
		fields = append(fields, wire.Field{Name: FieldSummary, Value: issue.Fields.Summary})
	}
	if issue.Fields.Description != "" {
		fields = append(fields, wire.Field{Name: FieldDescription, Value: issue.Fields.Description})
	}
	if issue.Fields.Environment != "" {
		fields = append(fields, wire.Field{Name: FieldEnvironment, Value: issue.Fields.Environment})
	}

	// The engine expects these even when empty so that cleared values
	// replicate as cleared.
	fields = append(fields,
		wire.Field{Name: FieldComments, Value: joinComments(issue.Fields.Comments)},
		wire.Field{Name: FieldAffectsVersions, Value: joinNames(issue.Fields.Versions)},
		wire.Field{Name: FieldFixVersions, Value: joinNames(issue.Fields.FixVersions)},
		wire.Field{Name: FieldComponents, Value: joinNames(issue.Fields.Components)},
	)

	if issue.Fields.DueDate != "" {
		formatted, err := formatRemoteDate(issue.Fields.DueDate)
		if err != nil {
			return nil, fmt.Errorf("due date of %s: %w", issue.Key, err)
		}
		fields = append(fields, wire.Field{Name: FieldDueDate, Value: formatted})
	}
	if issue.Fields.Updated != "" {
		formatted, err := formatRemoteDate(issue.Fields.Updated)
		if err != nil {
			return nil, fmt.Errorf("update time of %s: %w", issue.Key, err)
		}
		fields = append(fields, wire.Field{Name: FieldUpdated, Value: formatted})
	}

	if issue.Fields.IssueType != nil {
		fields = append(fields, wire.Field{Name: FieldIssueType, Value: issue.Fields.IssueType.Name})
	}
	if issue.Fields.Priority != nil {
		fields = append(fields, wire.Field{Name: FieldPriority, Value: issue.Fields.Priority.Name})
	}
	if issue.Fields.Status != nil {
		fields = append(fields, wire.Field{Name: FieldStatus, Value: issue.Fields.Status.Name})
	}
	if issue.Fields.Resolution != nil {
		fields = append(fields, wire.Field{Name: FieldResolution, Value: issue.Fields.Resolution.Name})
	}

	custom, err := h.customDefectFields(issue)
	if err != nil {
		return nil, err
	}
	return append(fields, custom...), nil
}

// customDefectFields renders the configured custom fields, in
// configuration order. SELECT fields always appear; a missing value
// renders as the empty option so the engine sees a valid selection.
func (h *Handler) customDefectFields(issue *jira.Issue) (wire.Fields, error) {
	var fields wire.Fields
	for i := range h.config.CustomFields {
		configured := &h.config.CustomFields[i]

		raw, ok := findCustomValue(issue, configured.Name)
		if !ok {
			if configured.Type == wire.TypeSelect {
				fields = append(fields, wire.Field{Name: configured.Name, Value: EmptyOption})
			}
			continue
		}

		value, err := renderCustomValue(raw, configured.Type)
		if err != nil {
			return nil, fmt.Errorf("custom field %q of %s: %w", configured.Name, issue.Key, err)
		}
		if value == "" && configured.Type == wire.TypeSelect {
			value = EmptyOption
		}
		fields = append(fields, wire.Field{Name: configured.Name, Value: value})
	}
	return fields, nil
}

// findCustomValue locates a custom field value by display name using
// the names map of an expand=names fetch.
func findCustomValue(issue *jira.Issue, name string) (json.RawMessage, bool) {
	for id, value := range issue.Fields.Custom {
		if equalFoldTrim(issue.Names[id], name) {
			return value, true
		}
	}
	return nil, false
}

// renderCustomValue flattens a raw custom field value to the string
// form the engine replicates.
func renderCustomValue(raw json.RawMessage, fieldType string) (string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return "", err
	}

	switch typed := value.(type) {
	case string:
		if fieldType == wire.TypeDate {
			return formatRemoteDate(typed)
		}
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case map[string]any:
		return optionText(typed), nil
	case []any:
		parts := make([]string, 0, len(typed))
		for _, element := range typed {
			switch item := element.(type) {
			case string:
				parts = append(parts, item)
			case json.Number:
				parts = append(parts, item.String())
			case map[string]any:
				parts = append(parts, optionText(item))
			}
		}
		return strings.Join(parts, multiValueSeparator), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", typed), nil
	}
}

// optionText extracts the display text of an option object: select
// options carry "value", entity references carry "name".
func optionText(option map[string]any) string {
	if value, ok := option["value"].(string); ok {
		return value
	}
	if name, ok := option["name"].(string); ok {
		return name
	}
	return ""
}

// formatRemoteDate converts a REST wire timestamp to the protocol date
// format.
func formatRemoteDate(value string) (string, error) {
	parsed, err := parseRemoteDate(value)
	if err != nil {
		return "", err
	}
	return parsed.Format(protocolDateLayout), nil
}

func joinNames(values []jira.NamedValue) string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		names = append(names, value.Name)
	}
	return strings.Join(names, multiValueSeparator)
}

func joinComments(comments []jira.Comment) string {
	bodies := make([]string, 0, len(comments))
	for _, comment := range comments {
		bodies = append(bodies, comment.Body)
	}
	return strings.Join(bodies, commentSeparator)
}
