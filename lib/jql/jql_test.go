// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jql

import (
	"strings"
	"testing"
)

func TestQueryBuildSingleProject(t *testing.T) {
	query := &Query{
		Project:      "TEST",
		ModDateField: "Updated",
		Since:        "2018/01/01 12:12:30",
		OrderBy:      "ORDER BY key ASC",
	}
	got, err := query.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `project = "TEST" AND updated > "2018/01/01 12:12" ORDER BY key ASC`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestQueryBuildProjectList(t *testing.T) {
	query := &Query{Projects: []string{"JBONE", "JBTWO"}}
	got, err := query.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `project in ("JBONE","JBTWO")`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestQueryBuildSingleProjectWins(t *testing.T) {
	query := &Query{Project: "xxx", Projects: []string{"yyy", "yyy2"}}
	got, err := query.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(got, "xxx") || strings.Contains(got, "yyy") {
		t.Errorf("got %q, want single project clause", got)
	}
}

func TestQueryBuildNoProjects(t *testing.T) {
	for _, projects := range [][]string{nil, {}} {
		query := &Query{
			Projects:     projects,
			ModDateField: "updated",
			Since:        "2018/ 2/2 12:12",
		}
		got, err := query.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if strings.Contains(got, "project") {
			t.Errorf("got %q, want no project clause", got)
		}
	}
}

func TestQueryBuildNormalizesLenientDate(t *testing.T) {
	query := &Query{
		Project:      "xxx",
		ModDateField: "updated",
		Since:        "2018/ 1/ 1 12:12",
	}
	got, err := query.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(got, `updated > "2018/01/01 12:12"`) {
		t.Errorf("got %q, date not normalized", got)
	}
}

func TestQueryBuildBadDate(t *testing.T) {
	query := &Query{Project: "x", ModDateField: "updated", Since: "yesterday"}
	if _, err := query.Build(); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestQueryBuildSegmentFilter(t *testing.T) {
	query := &Query{
		Project:       "TEST",
		SegmentFilter: `AND priority="2"`,
		OrderBy:       "ORDER BY key ASC",
	}
	got, err := query.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `project = "TEST" AND priority="2" ORDER BY key ASC`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func testTranslator() *Translator {
	return &Translator{
		StandardFields: []Value{
			{Name: "Issue Type", ID: "issuetype"},
			{Name: "Priority", ID: "priority"},
			{Name: "Status", ID: "status"},
			{Name: "Resolution", ID: "resolution"},
		},
		CustomFields: []string{"Progress", "Work Progress"},
		IssueTypes:   []Value{{Name: "Bug", ID: "1"}},
		Statuses:     []Value{{Name: "Open", ID: "1"}, {Name: "In Progress", ID: "3"}},
		Resolutions:  []Value{{Name: "Fixed", ID: "1"}},
		Priorities:   []Value{{Name: "Critical", ID: "2"}},
	}
}

func TestTranslateStandardFieldAndValue(t *testing.T) {
	got := testTranslator().Translate("AND Priority='Critical'")
	want := `AND priority="2"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateStatusName(t *testing.T) {
	got := testTranslator().Translate("AND Status='In Progress'")
	want := `AND status="3"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateCustomFieldQuoting(t *testing.T) {
	got := testTranslator().Translate("AND Progress='half'")
	want := `AND "Progress"='half'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateLongestCustomFieldFirst(t *testing.T) {
	// "Progress" must not clobber the tail of "Work Progress".
	got := testTranslator().Translate("AND Work Progress='half'")
	want := `AND "Work Progress"='half'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateEscapesCustomFieldName(t *testing.T) {
	translator := &Translator{CustomFields: []string{`Per"Cent\Done`}}
	got := translator.Translate(`AND Per"Cent\Done='10'`)
	want := `AND "Per\"Cent\\Done"='10'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateEmptySelect(t *testing.T) {
	got := testTranslator().Translate("AND Resolution='<Empty>'")
	want := "AND resolution is EMPTY"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTranslateTrimsResult(t *testing.T) {
	if got := testTranslator().Translate("  AND Status='Open'  "); got != `AND status="1"` {
		t.Errorf("got %q", got)
	}
}
