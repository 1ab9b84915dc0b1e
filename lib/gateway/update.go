// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/jiragw/lib/jira"
)

// findTransition resolves the workflow transition that moves an issue
// to the target status. The configured workflow graph names candidate
// transitions; the first one the server currently offers on the issue
// wins.
func (h *Handler) findTransition(ctx context.Context, issue *jira.Issue, targetStatus string) (*jira.Transition, error) {
	currentStatus := ""
	if issue.Fields.Status != nil {
		currentStatus = issue.Fields.Status.Name
	}

	candidates := h.workflows.FindTransitions(currentStatus, targetStatus)
	if len(candidates) == 0 {
		return nil, transitionError("no transition defined for current status to target status", issue.Key, currentStatus, targetStatus)
	}

	available, err := h.remote.Transitions(ctx, issue.Key)
	if err != nil {
		return nil, requestErrorf("Error occurred while saving defect: %s :%s", issue.Key, errMessage(err))
	}
	if len(available) == 0 {
		return nil, transitionError("no transitions available for current status", issue.Key, currentStatus, targetStatus)
	}

	for _, candidate := range candidates {
		for i := range available {
			if strings.EqualFold(strings.TrimSpace(available[i].Name), strings.TrimSpace(candidate)) {
				return &available[i], nil
			}
		}
	}
	return nil, transitionError("no matching transition found for current status", issue.Key, currentStatus, targetStatus)
}

func transitionError(reason, key, currentStatus, targetStatus string) *RequestError {
	return requestErrorf("Error occurred while saving defect: %s:  issue key (%s), current status (%s), target status (%s)",
		reason, key, currentStatus, targetStatus)
}

// updateIssueFields applies an engine field map to an issue: a Status
// value drives a workflow transition, carrying the Resolution and the
// Fix comment with it; everything else becomes a field update. Returns
// the re-fetched issue.
func (h *Handler) updateIssueFields(ctx context.Context, resolver *fieldResolver, issue *jira.Issue, fields map[string]string) (*jira.Issue, error) {
	targetStatus := popField(fields, FieldStatus)

	var transition *jira.Transition
	transitionFields := make(map[string]any)
	if targetStatus != "" {
		found, err := h.findTransition(ctx, issue, targetStatus)
		if err != nil {
			return nil, err
		}
		transition = found
		if resolution := popField(fields, FieldResolution); resolution != "" {
			transitionFields["resolution"] = map[string]any{"name": resolution}
		}
	}
	comment := popField(fields, FieldFix)

	inputs, err := h.issueFieldInputs(resolver, fields)
	if err != nil {
		return nil, err
	}

	if transition != nil {
		h.logger.Debug("transitioning issue",
			slog.String("key", issue.Key),
			slog.String("transition", transition.Name),
			slog.String("target", targetStatus),
		)
		if err := h.remote.DoTransition(ctx, issue.Key, transition.ID, transitionFields, comment); err != nil {
			return nil, requestErrorf("Error occurred while updating defect: %s", errMessage(err))
		}
	} else if comment != "" {
		if err := h.remote.AddComment(ctx, issue.Key, comment); err != nil {
			return nil, requestErrorf("Error occurred while updating defect: %s", errMessage(err))
		}
	}

	if err := h.remote.UpdateIssue(ctx, issue.Key, inputs); err != nil {
		return nil, requestErrorf("Error occurred while updating defect: %s", errMessage(err))
	}

	updated, err := h.remote.Issue(ctx, issue.Key)
	if err != nil {
		return nil, requestErrorf("Error occurred while retrieving defect: %s :%s", issue.Key, errMessage(err))
	}
	return updated, nil
}

// updateIssueStatus performs only the transition part of a save. Used
// after create, where the remaining fields were already set by the
// create call itself.
func (h *Handler) updateIssueStatus(ctx context.Context, issue *jira.Issue, fields map[string]string) (*jira.Issue, error) {
	targetStatus := popField(fields, FieldStatus)
	if targetStatus == "" {
		return issue, nil
	}

	transition, err := h.findTransition(ctx, issue, targetStatus)
	if err != nil {
		return nil, err
	}
	transitionFields := make(map[string]any)
	if resolution := popField(fields, FieldResolution); resolution != "" {
		transitionFields["resolution"] = map[string]any{"name": resolution}
	}
	comment := popField(fields, FieldFix)

	if err := h.remote.DoTransition(ctx, issue.Key, transition.ID, transitionFields, comment); err != nil {
		return nil, requestErrorf("Error occurred while updating defect status: %s", errMessage(err))
	}

	updated, err := h.remote.Issue(ctx, issue.Key)
	if err != nil {
		return nil, requestErrorf("Error occurred while updating defect status: %s", errMessage(err))
	}
	return updated, nil
}

// popField removes a field from the map and returns its value.
func popField(fields map[string]string, name string) string {
	value, ok := fields[name]
	if !ok {
		return ""
	}
	delete(fields, name)
	return value
}
