// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/bureau-foundation/jiragw/lib/jql"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// listFields describes every replicated field to the engine: the fixed
// standard fields, the combined status/resolution select, and the
// server's custom fields.
func (h *Handler) listFields(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.Attr("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in listFields")
	}
	if _, err := h.requireRemote(); err != nil {
		return nil, err
	}

	issueTypes, err := h.issueTypeValues(ctx, projectID)
	if err != nil {
		return nil, fieldListError(err)
	}
	priorities, err := h.priorityValues(ctx)
	if err != nil {
		return nil, fieldListError(err)
	}
	resolutions, err := h.resolutionValues(ctx)
	if err != nil {
		return nil, fieldListError(err)
	}
	statuses, err := h.statusValues(ctx)
	if err != nil {
		return nil, fieldListError(err)
	}
	customFields, err := h.remoteCustomFields(ctx)
	if err != nil {
		return nil, fieldListError(err)
	}

	descs := wire.Descs{
		{Name: FieldIssueKey, Access: wire.AccessDefectID, Type: wire.TypeWord},
		{Name: FieldReporter, Access: wire.AccessReadOnly, Type: wire.TypeWord},
		{Name: FieldAssignee, Access: wire.AccessReadOnly, Type: wire.TypeWord},
		{Name: FieldSummary, Access: wire.AccessReadWrite, Type: wire.TypeLine},
		{Name: FieldDescription, Access: wire.AccessReadWrite, Type: wire.TypeText},
		{Name: FieldEnvironment, Access: wire.AccessReadWrite, Type: wire.TypeText},
		{Name: FieldComments, Access: wire.AccessReadOnly, Type: wire.TypeText},
		{Name: FieldDueDate, Access: wire.AccessReadOnly, Type: wire.TypeDate},
		{Name: FieldUpdated, Access: wire.AccessModDate, Type: wire.TypeDate},
		{Name: FieldIssueType, Access: wire.AccessReadWrite, Type: wire.TypeSelect, Values: selectOptions(issueTypes)},
		{Name: FieldPriority, Access: wire.AccessReadWrite, Type: wire.TypeSelect, Values: selectOptions(priorities)},
		{Name: FieldResolution, Access: wire.AccessReadOnly, Type: wire.TypeSelect, Values: selectOptions(resolutions)},
		{Name: FieldStatus, Access: wire.AccessReadOnly, Type: wire.TypeSelect, Values: selectOptions(statuses)},
		{Name: FieldAffectsVersions, Access: wire.AccessReadOnly, Type: wire.TypeLine},
		{Name: FieldFixVersions, Access: wire.AccessReadOnly, Type: wire.TypeLine},
		{Name: FieldComponents, Access: wire.AccessReadOnly, Type: wire.TypeLine},
		{Name: FieldFix, Access: wire.AccessReadWrite, Type: wire.TypeFix},
		{
			Name:   FieldStatusResolution,
			Access: wire.AccessReadWrite,
			Type:   wire.TypeSelect,
			Values: h.statusResolutionOptions(statuses, resolutions),
		},
	}

	for _, field := range customFields {
		desc := wire.Desc{Name: field.Name, Access: wire.AccessReadOnly, Type: wire.TypeLine}
		if configured, ok := h.config.FindCustomField(field.Name); ok {
			desc.Access = configured.AccessLevel()
			desc.Type = configured.Type
			if configured.Type == wire.TypeSelect {
				options := wire.NewStrings(EmptyOption)
				for _, option := range configured.Options {
					options.Add(option)
				}
				desc.Values = options
			}
		}
		descs = append(descs, desc)
	}

	return descs, nil
}

func fieldListError(err error) *RequestError {
	return requestErrorf("Error occurred while getting the field list: %s", errMessage(err))
}

// selectOptions renders named values as select options.
func selectOptions(values []jql.Value) *wire.Strings {
	options := wire.NewStrings()
	for _, value := range values {
		options.Add(value.Name)
	}
	return options
}

// statusResolutionOptions builds the combined status/resolution select:
// statuses that carry no resolution stay plain, statuses reached
// through resolution transitions are expanded into one option per
// resolution.
func (h *Handler) statusResolutionOptions(statuses, resolutions []jql.Value) *wire.Strings {
	options := wire.NewStrings()
	for _, status := range statuses {
		if !h.workflows.HasResolution(status.Name) {
			options.Add(status.Name)
		}
	}
	for _, status := range statuses {
		if !h.workflows.HasResolution(status.Name) {
			continue
		}
		for _, resolution := range resolutions {
			options.Add(status.Name + statusResolutionSeparator + resolution.Name)
		}
	}
	return options
}
