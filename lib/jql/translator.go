// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jql

import (
	"sort"
	"strings"
)

// Value pairs a display name with the id JQL queries use for it.
type Value struct {
	Name string
	ID   string
}

// Translator rewrites a replication engine segment filter into valid
// JQL. All replacements are plain text substitutions; names that do
// not occur in the filter cost nothing.
type Translator struct {
	// StandardFields maps standard field display names to field ids,
	// in the order the replacements are applied.
	StandardFields []Value

	// CustomFields lists custom field display names. They are quoted
	// and escaped rather than replaced by ids, longest name first so
	// that a field whose name prefixes another is not clobbered.
	CustomFields []string

	IssueTypes  []Value
	Statuses    []Value
	Resolutions []Value
	Priorities  []Value
}

// Translate applies the rewrite. The result is trimmed.
func (t *Translator) Translate(filter string) string {
	for _, field := range t.StandardFields {
		filter = strings.ReplaceAll(filter, field.Name+"=", field.ID+"=")
	}

	customFields := make([]string, len(t.CustomFields))
	copy(customFields, t.CustomFields)
	sort.Slice(customFields, func(i, j int) bool {
		if len(customFields[i]) != len(customFields[j]) {
			return len(customFields[i]) > len(customFields[j])
		}
		return customFields[i] < customFields[j]
	})
	for _, name := range customFields {
		filter = strings.ReplaceAll(filter, name+"=", `"`+escapeFieldName(name)+`"=`)
	}

	filter = replaceValues(filter, "issuetype", t.IssueTypes)
	filter = replaceValues(filter, "status", t.Statuses)
	filter = replaceValues(filter, "resolution", t.Resolutions)
	filter = replaceValues(filter, "priority", t.Priorities)

	filter = strings.ReplaceAll(filter, "='<Empty>'", " is EMPTY")
	return strings.TrimSpace(filter)
}

// replaceValues rewrites field='Name' comparisons into field="id".
func replaceValues(filter, fieldID string, values []Value) string {
	for _, value := range values {
		target := fieldID + "='" + value.Name + "'"
		replacement := fieldID + `="` + value.ID + `"`
		filter = strings.ReplaceAll(filter, target, replacement)
	}
	return filter
}

// escapeFieldName escapes backslashes and double quotes so the field
// name survives inside a quoted JQL identifier.
func escapeFieldName(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	return strings.ReplaceAll(name, `"`, `\"`)
}
