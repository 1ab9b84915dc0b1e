// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/bureau-foundation/jiragw/lib/jira"
	"github.com/bureau-foundation/jiragw/lib/wire"
)

// getDefect fetches one issue and renders it as a defect field map.
func (h *Handler) getDefect(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.Attr("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in getDefect")
	}
	defectID, ok := request.Attr("DEFECT")
	if !ok || defectID == "" {
		return nil, requestErrorf("Missing DEFECT in getDefect")
	}
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}

	issue, err := remote.Issue(ctx, defectID)
	if err != nil {
		if jira.IsNotFound(err) {
			return nil, requestErrorf("Defect: %s not found", defectID)
		}
		return nil, requestErrorf("Error occurred while retrieving defect: %s :%s", defectID, errMessage(err))
	}

	fields, err := h.defectFields(issue)
	if err != nil {
		return nil, requestErrorf("Error occurred while retrieving defect: %s :%s", defectID, errMessage(err))
	}

	projectKey := projectID
	if issue.Fields.Project != nil {
		projectKey = issue.Fields.Project.Key
	}
	fields = append(fields, wire.Field{Name: FieldProject, Value: projectKey})
	return fields, nil
}

// saveDefect applies an engine field map to an existing issue and
// reports the issue key back.
func (h *Handler) saveDefect(ctx context.Context, request *wire.Request) (wire.Response, error) {
	projectID, ok := request.FieldValue("PROJID")
	if !ok || projectID == "" {
		return nil, requestErrorf("Missing PROJID in saveDefect")
	}
	defectID, ok := request.FieldValue("DEFECTID")
	if !ok || defectID == "" {
		return nil, requestErrorf("Missing DEFECT in saveDefect")
	}
	remote, err := h.requireRemote()
	if err != nil {
		return nil, err
	}

	issue, err := remote.Issue(ctx, defectID)
	if err != nil {
		if jira.IsNotFound(err) {
			return nil, requestErrorf("Defect: %s not found", defectID)
		}
		return nil, requestErrorf("Error occurred while retrieving defect: %s :%s", defectID, errMessage(err))
	}

	fields, _ := request.FieldMap()
	delete(fields, "PROJID")
	delete(fields, "DEFECTID")
	delete(fields, FieldProject)

	resolver, err := h.newFieldResolver(ctx)
	if err != nil {
		return nil, requestErrorf("Error occurred while saving defect: %s :%s", defectID, errMessage(err))
	}

	updated, err := h.updateIssueFields(ctx, resolver, issue, fields)
	if err != nil {
		if _, ok := err.(*RequestError); ok {
			return nil, err
		}
		return nil, requestErrorf("Error occurred while saving defect: %s :%s", defectID, errMessage(err))
	}
	return wire.NewStrings(updated.Key), nil
}
