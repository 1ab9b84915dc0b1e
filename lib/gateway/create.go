// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"strings"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// newDefect returns an empty defect template for a project: every
// replicated standard field plus every custom field on the server,
// with empty values, and the project marker.
func (h *Handler) newDefect(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.Attr("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in newDefect")
	}
	if projectID == AllProjects {
		return nil, requestErrorf("Invalid PROJID in newDefect")
	}
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}

	project, err := h.cache.project(ctx, remote, projectID)
	if err != nil {
		return nil, requestErrorf("Error occurred while retrieving project: %s :%s", projectID, errMessage(err))
	}
	if project == nil {
		return nil, requestErrorf("Unknown project: %s", projectID)
	}

	remoteFields, err := remote.Fields(ctx)
	if err != nil {
		return nil, requestErrorf("Error occurred while creating new defect: %s", errMessage(err))
	}

	var template wire.Fields
	for _, field := range remoteFields {
		if isStandardFieldID(field.ID) || field.IsCustom() {
			template = append(template, wire.Field{Name: field.Name, Value: ""})
		}
	}
	template = append(template, wire.Field{Name: FieldProject, Value: projectID})
	return template, nil
}

// createDefect creates an issue from an engine field map. Field values
// the engine does not supply come from create metadata defaults; a
// Status value that differs from the created issue's status drives a
// follow-up transition.
func (h *Handler) createDefect(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.FieldValue("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in createDefect")
	}
	if projectID == AllProjects {
		return nil, requestErrorf("Invalid PROJID in newDefect")
	}
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}

	project, err := remote.Project(ctx, projectID)
	if err != nil {
		if jira.IsNotFound(err) {
			return nil, requestErrorf("Defect requested for unknown project: %s", projectID)
		}
		return nil, requestErrorf("Error occurred while retrieving project: %s :%s", projectID, errMessage(err))
	}
	if project == nil || project.Key == "" {
		return nil, requestErrorf("Defect requested for unknown project: %s", projectID)
	}

	fields, _ := request.FieldMap()
	delete(fields, "PROJID")
	delete(fields, FieldProject)

	// Status, Resolution and Fix are not issue fields on create; they
	// drive the follow-up transition.
	statusFields := make(map[string]string)
	for _, name := range []string{FieldStatus, FieldResolution, FieldFix} {
		if value, ok := fields[name]; ok {
			statusFields[name] = value
			delete(fields, name)
		}
	}

	resolver, err := h.newFieldResolver(ctx)
	if err != nil {
		return nil, createError(err)
	}
	inputs, err := h.createDefaults(ctx, projectID)
	if err != nil {
		return nil, err
	}
	userInputs, err := h.issueFieldInputs(resolver, fields)
	if err != nil {
		return nil, err
	}
	for id, value := range userInputs {
		inputs[id] = value
	}

	created, err := remote.CreateIssue(ctx, inputs)
	if err != nil {
		return nil, createError(err)
	}
	if created == nil || created.Key == "" {
		return nil, requestErrorf("Unable to create defect")
	}

	issue, err := remote.Issue(ctx, created.Key)
	if err != nil {
		return nil, createError(err)
	}

	if !isDifferentStatusResolution(issue, statusFields) {
		delete(statusFields, FieldStatus)
	}
	issue, err = h.updateIssueStatus(ctx, issue, statusFields)
	if err != nil {
		return nil, err
	}
	return wire.NewStrings(issue.Key), nil
}

func createError(err error) *RequestError {
	return requestErrorf("Error occurred while creating defect: %s", errMessage(err))
}

// createDefaults builds the baseline create input from the project's
// create metadata: the Bug issue type, its first allowed priority, the
// acting user as assignee, and a placeholder summary.
func (h *Handler) createDefaults(ctx context.Context, projectID string) (map[string]any, error) {
	meta, err := h.remote.CreateMeta(ctx, projectID)
	if err != nil {
		return nil, createError(err)
	}
	issueType, ok := meta.FindIssueType("Bug")
	if !ok {
		return nil, requestErrorf("Error occurred while creating defect: no Bug issue type in project: %s", projectID)
	}

	inputs := map[string]any{
		"project":   map[string]any{"key": projectID},
		"issuetype": map[string]any{"id": issueType.ID},
		"summary":   defaultIssueSummary,
	}
	if username := h.remote.Username(); username != "" {
		inputs["assignee"] = map[string]any{"name": username}
	}
	if priority, ok := issueType.Fields["priority"]; ok && len(priority.AllowedValues) > 0 {
		inputs["priority"] = map[string]any{"id": priority.AllowedValues[0].ID}
	}
	return inputs, nil
}

// isDifferentStatusResolution reports whether the engine's requested
// status/resolution pair differs from what the issue already carries.
func isDifferentStatusResolution(issue *jira.Issue, fields map[string]string) bool {
	requested := fields[FieldStatus]
	if resolution := fields[FieldResolution]; resolution != "" {
		requested += statusResolutionSeparator + resolution
	}

	current := ""
	if issue.Fields.Status != nil {
		current = issue.Fields.Status.Name
	}
	if issue.Fields.Resolution != nil {
		current += statusResolutionSeparator + issue.Fields.Resolution.Name
	}

	return !strings.EqualFold(requested, current)
}
