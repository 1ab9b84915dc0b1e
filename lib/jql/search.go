// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the date format JQL accepts in comparisons.
const dateLayout = "2006/01/02 15:04"

// Query composes one JQL search query.
type Query struct {
	// Project scopes the query to a single project. Takes precedence
	// over Projects.
	Project string

	// Projects scopes the query to a set of projects. Empty means no
	// project clause.
	Projects []string

	// ModDateField is the field compared against Since, typically
	// "Updated". It is lowercased in the query.
	ModDateField string

	// Since is the modification cutoff. Parsed leniently: the date
	// components may lack zero padding and trailing seconds are
	// ignored.
	Since string

	// SegmentFilter is an already translated segment filter, appended
	// verbatim.
	SegmentFilter string

	// OrderBy is an ORDER BY clause, appended verbatim.
	OrderBy string
}

// Build returns the query text.
func (q *Query) Build() (string, error) {
	var b strings.Builder

	if q.Project != "" {
		fmt.Fprintf(&b, "project = %q", q.Project)
	} else if len(q.Projects) > 0 {
		b.WriteString("project in (")
		for i, project := range q.Projects {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%q", project)
		}
		b.WriteString(")")
	}

	if q.ModDateField != "" && q.Since != "" {
		cutoff, err := parseLenientDate(q.Since)
		if err != nil {
			return "", fmt.Errorf("parsing date %q: %w", q.Since, err)
		}
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s > %q", strings.ToLower(q.ModDateField), cutoff.Format(dateLayout))
	}

	// The engine also names the user that last modified a defect, but
	// JIRA has no "last modified by" field out of the box, so that
	// input never reaches the query.

	if q.SegmentFilter != "" {
		b.WriteString(" ")
		b.WriteString(q.SegmentFilter)
	}
	if q.OrderBy != "" {
		b.WriteString(" ")
		b.WriteString(q.OrderBy)
	}

	return strings.TrimSpace(b.String()), nil
}

// parseLenientDate parses a "yyyy/MM/dd HH:mm" timestamp, tolerating
// missing zero padding and stray spaces between components. A trailing
// seconds component is ignored. Out-of-range components are
// normalized by rolling over, e.g. a 13th month lands in the next
// year.
func parseLenientDate(value string) (time.Time, error) {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if len(parts) < 5 {
		return time.Time{}, fmt.Errorf("expected year/month/day hour:minute components")
	}
	numbers := make([]int, 5)
	for i := range numbers {
		number, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, err
		}
		numbers[i] = number
	}
	return time.Date(numbers[0], time.Month(numbers[1]), numbers[2], numbers[3], numbers[4], 0, 0, time.UTC), nil
}
