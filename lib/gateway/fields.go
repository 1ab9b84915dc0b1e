// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/jiragw/lib/jql"
)

// Display names of the standard issue fields as the replication engine
// sees them.
const (
	FieldIssueKey        = "Issue Key"
	FieldIssueType       = "Issue Type"
	FieldSummary         = "Summary"
	FieldPriority        = "Priority"
	FieldDueDate         = "Due Date"
	FieldComponents      = "Component/s"
	FieldAffectsVersions = "Affects Version/s"
	FieldFixVersions     = "Fix Version/s"
	FieldAssignee        = "Assignee"
	FieldReporter        = "Reporter"
	FieldEnvironment     = "Environment"
	FieldDescription     = "Description"
	FieldComments        = "Comments"
	FieldStatus          = "Status"
	FieldResolution      = "Resolution"
	FieldUpdated         = "Updated"
	FieldCreated         = "Created"
)

// Synthetic fields the gateway adds on top of the JIRA issue model.
const (
	// FieldProject carries the project key in defect field maps.
	FieldProject = "*Project*"

	// FieldStatusResolution is the combined status/resolution select
	// the engine segments and updates on.
	FieldStatusResolution = "Status/Resolution"

	// FieldFix carries fix details from the engine; its value becomes
	// an issue comment.
	FieldFix = "Fix"

	// AllProjects is the project key wildcard.
	AllProjects = "*All*"

	// EmptyOption is the select option representing no value.
	EmptyOption = "<Empty>"
)

const (
	// multiValueSeparator joins and splits multi-value field values on
	// the wire.
	multiValueSeparator = ", "

	// commentSeparator joins issue comments into the Comments field.
	commentSeparator = "\n------\n"

	// projectListSeparator splits the segment's project list.
	projectListSeparator = ","

	// statusResolutionSeparator joins a status and resolution pair.
	statusResolutionSeparator = "/"

	// defaultIssueSummary is used when a created defect names none.
	defaultIssueSummary = "New Issue"
)

// standardFields maps engine display names to JIRA field ids, in the
// order segment filter replacements are applied.
var standardFields = []jql.Value{
	{Name: FieldIssueKey, ID: "key"},
	{Name: FieldIssueType, ID: "issuetype"},
	{Name: FieldSummary, ID: "summary"},
	{Name: FieldPriority, ID: "priority"},
	{Name: FieldDueDate, ID: "duedate"},
	{Name: FieldComponents, ID: "components"},
	{Name: FieldAffectsVersions, ID: "versions"},
	{Name: FieldFixVersions, ID: "fixVersions"},
	{Name: FieldAssignee, ID: "assignee"},
	{Name: FieldReporter, ID: "reporter"},
	{Name: FieldEnvironment, ID: "environment"},
	{Name: FieldDescription, ID: "description"},
	{Name: FieldComments, ID: "comments"},
	{Name: FieldStatus, ID: "status"},
	{Name: FieldResolution, ID: "resolution"},
	{Name: FieldUpdated, ID: "updated"},
	{Name: FieldCreated, ID: "created"},
}

// standardFieldID returns the JIRA field id for an engine display name.
func standardFieldID(name string) (string, bool) {
	for _, field := range standardFields {
		if field.Name == name {
			return field.ID, true
		}
	}
	return "", false
}

// isStandardFieldID reports whether id belongs to a standard field the
// gateway replicates.
func isStandardFieldID(id string) bool {
	for _, field := range standardFields {
		if field.ID == id {
			return true
		}
	}
	return false
}

// equalFoldTrim compares two names ignoring case and surrounding
// whitespace.
func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Date formats. The engine exchanges timestamps in protocolDateLayout;
// JIRA's REST API uses ISO 8601 on the wire but the engine-facing due
// date keeps JIRA's display format.
const (
	protocolDateLayout   = "2006/01/02 15:04:05"
	dueDateLayout        = "2/Jan/06"
	customDateLayout     = "02/Jan/06"
	customDateTimeLayout = "02/Jan/06 3:04 PM"
	isoDateLayout        = "2006-01-02"
	isoDateTimeLayout    = "2006-01-02T15:04:05.000-0700"
)

// parseProtocolDate parses an engine "yyyy/MM/dd HH:mm:ss" timestamp
// leniently: components may lack zero padding and contain stray
// spaces, and the seconds component is optional. Out-of-range
// components roll over.
func parseProtocolDate(value string) (time.Time, error) {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(parts) < 5 {
		return time.Time{}, fmt.Errorf("expected year/month/day hour:minute[:second] components in %q", value)
	}
	numbers := make([]int, 6)
	for i := range numbers {
		if i >= len(parts) {
			break
		}
		number, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, err
		}
		numbers[i] = number
	}
	return time.Date(numbers[0], time.Month(numbers[1]), numbers[2], numbers[3], numbers[4], numbers[5], 0, time.UTC), nil
}

// parseRemoteDate parses a timestamp as JIRA renders it on the REST
// wire, accepting the datetime and date-only ISO forms and, for custom
// field values that arrive preformatted, the display forms.
func parseRemoteDate(value string) (time.Time, error) {
	layouts := []string{
		isoDateTimeLayout,
		time.RFC3339,
		isoDateLayout,
		customDateTimeLayout,
		customDateLayout,
	}
	var lastErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
