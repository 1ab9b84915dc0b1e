// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/jql"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// fieldResolver holds the server metadata needed to translate engine
// field values into REST field inputs: name-to-id maps for the select
// fields and the custom field registry.
type fieldResolver struct {
	issueTypes   []jql.Value
	priorities   []jql.Value
	resolutions  []jql.Value
	customFields []jira.Field
}

func (h *Handler) newFieldResolver(ctx context.Context) (*fieldResolver, error) {
	issueTypes, err := h.issueTypeValues(ctx, "")
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
	customFields, err := h.remoteCustomFields(ctx)
	if err != nil {
		return nil, err
	}
	return &fieldResolver{
		issueTypes:   issueTypes,
		priorities:   priorities,
		resolutions:  resolutions,
		customFields: customFields,
	}, nil
}

// customFieldID resolves a custom field display name to its field id.
func (r *fieldResolver) customFieldID(name string) (string, bool) {
	for _, field := range r.customFields {
		if equalFoldTrim(field.Name, name) {
			return field.ID, true
		}
	}
	return "", false
}

// issueFieldInputs translates an engine field map into the REST fields
// object for issue create and update calls. Status and Fix must be
// popped off beforehand; they are driven through transitions and
// comments, not field values.
func (h *Handler) issueFieldInputs(resolver *fieldResolver, fields map[string]string) (map[string]any, error) {
	inputs := make(map[string]any)
	for name, value := range fields {
		switch name {
		case FieldSummary:
			inputs["summary"] = value
		case FieldDescription:
			inputs["description"] = value
		case FieldEnvironment:
			inputs["environment"] = value
		case FieldReporter:
			inputs["reporter"] = map[string]any{"name": value}
		case FieldAssignee:
			inputs["assignee"] = map[string]any{"name": value}
		case FieldIssueType:
			if value != "" {
				inputs["issuetype"] = namedInput(resolver.issueTypes, value)
			}
		case FieldPriority:
			if value != "" {
				inputs["priority"] = namedInput(resolver.priorities, value)
			}
		case FieldResolution:
			if value != "" {
				inputs["resolution"] = namedInput(resolver.resolutions, value)
			}
		case FieldComponents:
			inputs["components"] = nameArray(value)
		case FieldAffectsVersions:
			inputs["versions"] = nameArray(value)
		case FieldFixVersions:
			inputs["fixVersions"] = nameArray(value)
		case FieldDueDate:
			if value == "" {
				inputs["duedate"] = nil
				continue
			}
			parsed, err := parseEngineDate(value)
			if err != nil {
				return nil, requestErrorf("Invalid date value for %s: %s", name, value)
			}
			inputs["duedate"] = parsed.Format(isoDateLayout)
		case FieldUpdated:
			if value == "" {
				continue
			}
			parsed, err := parseEngineDate(value)
			if err != nil {
				return nil, requestErrorf("Invalid date value for %s: %s", name, value)
			}
			inputs["updated"] = parsed.Format(isoDateTimeLayout)
		case FieldIssueKey, FieldComments, FieldCreated:
			// Read-only toward JIRA.
		default:
			if err := h.customFieldInput(resolver, inputs, name, value); err != nil {
				return nil, err
			}
		}
	}
	return inputs, nil
}

// customFieldInput translates one custom field value. Unconfigured or
// unknown fields are dropped with a log line rather than failing the
// whole save.
func (h *Handler) customFieldInput(resolver *fieldResolver, inputs map[string]any, name, value string) error {
	configured, ok := h.config.FindCustomField(name)
	if !ok {
		h.logger.Debug("dropping unconfigured field", slog.String("name", name))
		return nil
	}
	fieldID, ok := resolver.customFieldID(name)
	if !ok {
		h.logger.Warn("configured custom field not on server", slog.String("name", name))
		return nil
	}

	switch configured.Type {
	case wire.TypeDate:
		if value == "" {
			inputs[fieldID] = nil
			return nil
		}
		parsed, err := parseEngineDate(value)
		if err != nil {
			return requestErrorf("Invalid date value for %s: %s", name, value)
		}
		inputs[fieldID] = parsed.Format(isoDateTimeLayout)
	case wire.TypeSelect:
		if value == EmptyOption {
			value = ""
		}
		if value == "" {
			inputs[fieldID] = nil
			return nil
		}
		inputs[fieldID] = map[string]any{"value": value}
	default:
		inputs[fieldID] = value
	}
	return nil
}

// namedInput resolves a display name to an id reference, falling back
// to a name reference when the server does not list the value.
func namedInput(values []jql.Value, name string) map[string]any {
	if id, ok := findValueByName(values, name); ok {
		return map[string]any{"id": id}
	}
	return map[string]any{"name": name}
}

// nameArray splits a multi-value field into name references. The empty
// value clears the field.
func nameArray(value string) []any {
	if value == "" {
		return []any{}
	}
	parts := strings.Split(value, multiValueSeparator)
	array := make([]any, 0, len(parts))
	for _, part := range parts {
		array = append(array, map[string]any{"name": part})
	}
	return array
}

// parseEngineDate parses a date value as the engine renders them,
// trying the full protocol timestamp first and the due date display
// form second.
func parseEngineDate(value string) (time.Time, error) {
	parsed, err := parseProtocolDate(value)
	if err == nil {
		return parsed, nil
	}
	return time.Parse(dueDateLayout, strings.TrimSpace(value))
}
